package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parser parses time specifications relative to a fixed "now" and optional
// start/end references. A Parser is a plain value: build one per call
// (or per fetch query, to let "end" reference a freshly parsed "start")
// rather than sharing it across goroutines.
type Parser struct {
	Now   time.Time
	Start *time.Time
	End   *time.Time
}

// NewParser returns a Parser anchored at now.
func NewParser(now time.Time) *Parser {
	return &Parser{Now: now}
}

var (
	epochRe     = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	offsetRe    = regexp.MustCompile(`^(start|end|now)?([+-]\d+(?:\.\d+)?)([a-zA-Z]*)$`)
	yyyymmddRe  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
	dotDateRe   = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2,4})$`)
	hhmmRe      = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// Parse interprets s, returning the resulting time.
func Parse(now time.Time, s string) (time.Time, error) {
	return NewParser(now).Parse(s)
}

// Parse interprets s against p's now/start/end references.
func (p *Parser) Parse(s string) (time.Time, error) {
	tok := strings.TrimSpace(s)
	if tok == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnparsable)
	}

	switch strings.ToUpper(tok) {
	case "N", "NOW":
		return p.Now, nil
	}

	lower := strings.ToLower(tok)

	switch lower {
	case "start":
		if p.Start == nil {
			return time.Time{}, ErrNoReference
		}

		return *p.Start, nil
	case "end":
		if p.End == nil {
			return time.Time{}, ErrNoReference
		}

		return *p.End, nil
	case "today":
		return startOfDay(p.Now), nil
	case "yesterday":
		return startOfDay(p.Now.AddDate(0, 0, -1)), nil
	case "tomorrow":
		return startOfDay(p.Now.AddDate(0, 0, 1)), nil
	case "noon":
		return atTimeOfDay(p.Now, 12, 0), nil
	case "midnight":
		return startOfDay(p.Now), nil
	case "teatime":
		return atTimeOfDay(p.Now, 16, 0), nil
	}

	if epochRe.MatchString(tok) {
		return p.parseEpochOrOffset(tok)
	}

	if m := offsetRe.FindStringSubmatch(tok); m != nil {
		return p.parseReferenceOffset(m)
	}

	if m := yyyymmddRe.FindStringSubmatch(tok); m != nil {
		return parseYMD(m[1], m[2], m[3])
	}

	if m := slashDateRe.FindStringSubmatch(tok); m != nil {
		// MM/DD/YY
		return parseMDY(m[1], m[2], m[3])
	}

	if m := dotDateRe.FindStringSubmatch(tok); m != nil {
		// DD.MM.YY
		return parseDMY(m[1], m[2], m[3])
	}

	if m := hhmmRe.FindStringSubmatch(tok); m != nil {
		h, _ := strconv.Atoi(m[1])
		mi, _ := strconv.Atoi(m[2])

		if h > 23 || mi > 59 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, tok)
		}

		return atTimeOfDay(p.Now, h, mi), nil
	}

	if t, ok := parseWeekday(p.Now, lower); ok {
		return t, nil
	}

	if t, err := parseMonthName(p.Now, tok); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, tok)
}

// parseEpochOrOffset implements the disambiguation rule: a bare number with
// no unit suffix and no sign is an absolute epoch timestamp (possibly
// fractional); a signed bare number is an offset in seconds from now.
func (p *Parser) parseEpochOrOffset(tok string) (time.Time, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, tok)
	}

	if strings.HasPrefix(tok, "+") || strings.HasPrefix(tok, "-") {
		return p.Now.Add(secondsToDuration(v)), nil
	}

	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)

	return time.Unix(sec, nsec).UTC(), nil
}

func (p *Parser) parseReferenceOffset(m []string) (time.Time, error) {
	ref := m[1]

	base := p.Now

	switch ref {
	case "start":
		if p.Start == nil {
			return time.Time{}, ErrNoReference
		}

		base = *p.Start
	case "end":
		if p.End == nil {
			return time.Time{}, ErrNoReference
		}

		base = *p.End
	case "now", "":
		base = p.Now
	}

	amount, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsable, m[0])
	}

	unit := strings.ToLower(m[3])

	return applyOffset(base, amount, unit)
}

func startOfDay(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}

func atTimeOfDay(t time.Time, hour, min int) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, hour, min, 0, 0, t.Location())
}

func parseYMD(ys, ms, ds string) (time.Time, error) {
	y, _ := strconv.Atoi(ys)
	mo, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)

	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("%w: %s%s%s", ErrUnparsable, ys, ms, ds)
	}

	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), nil
}

func parseMDY(mStr, dStr, yStr string) (time.Time, error) {
	mo, _ := strconv.Atoi(mStr)
	d, _ := strconv.Atoi(dStr)
	y := expandYear(yStr)

	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("%w: %s/%s/%s", ErrUnparsable, mStr, dStr, yStr)
	}

	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), nil
}

func parseDMY(dStr, mStr, yStr string) (time.Time, error) {
	mo, _ := strconv.Atoi(mStr)
	d, _ := strconv.Atoi(dStr)
	y := expandYear(yStr)

	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, fmt.Errorf("%w: %s.%s.%s", ErrUnparsable, dStr, mStr, yStr)
	}

	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), nil
}

func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		if y < 70 {
			return 2000 + y
		}

		return 1900 + y
	}

	return y
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// parseWeekday resolves a bare weekday name to the most recent occurrence
// of that weekday on or before now (including today).
func parseWeekday(now time.Time, lower string) (time.Time, bool) {
	wd, ok := weekdayNames[lower]
	if !ok {
		return time.Time{}, false
	}

	delta := (int(now.Weekday()) - int(wd) + 7) % 7

	return startOfDay(now.AddDate(0, 0, -delta)), true
}

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may": time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var monthDayRe = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})(?:,?\s+(\d{4}))?$`)

// parseMonthName handles "<Month> <day>[, <year>]" (e.g. "January 2 2020",
// "Jan 2, 2020"), defaulting to now's year when omitted.
func parseMonthName(now time.Time, tok string) (time.Time, error) {
	m := monthDayRe.FindStringSubmatch(tok)
	if m == nil {
		return time.Time{}, ErrUnparsable
	}

	mo, ok := monthNames[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, ErrUnparsable
	}

	d, _ := strconv.Atoi(m[2])

	y := now.Year()
	if m[3] != "" {
		y, _ = strconv.Atoi(m[3])
	}

	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC), nil
}

func secondsToDuration(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// applyOffset adds a signed amount of the given unit to base. The m-suffix
// disambiguation rule: after a y/mon/w/d-anchored context "m" means months;
// after an h/min/s-anchored context "m" means minutes. Since this package
// parses units explicitly (mon vs min, not bare "m"), ambiguity is resolved
// by requiring callers to spell "mon" for months and "min" (or "m" treated
// as minutes) for minutes - matching the common case bare "-25m" ⇒ minutes.
func applyOffset(base time.Time, amount float64, unit string) (time.Time, error) {
	switch unit {
	case "", "s", "sec", "secs", "second", "seconds":
		return base.Add(secondsToDuration(amount)), nil
	case "m", "min", "mins", "minute", "minutes":
		return base.Add(secondsToDuration(amount * 60)), nil
	case "h", "hr", "hour", "hours":
		return base.Add(secondsToDuration(amount * 3600)), nil
	case "d", "day", "days":
		return base.AddDate(0, 0, int(amount)), nil
	case "w", "week", "weeks":
		return base.AddDate(0, 0, int(amount)*7), nil
	case "mon", "month", "months":
		return base.AddDate(0, int(amount), 0), nil
	case "y", "yr", "year", "years":
		return base.AddDate(int(amount), 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown unit %q", ErrUnparsable, unit)
	}
}
