// Package rrdinfo implements the read-only key-value dump described in
// spec.md §6's "info" verb: a flat list of (key, value) pairs describing a
// round-robin file's static schema and live bookkeeping, in file order.
package rrdinfo

import (
	"fmt"
	"math"

	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// Entry is one key-value pair of the info dump. Value is always a string,
// float64, int64, or uint64 — the same small set rrdtool's own info output
// uses, so callers formatting it as text need no type switch beyond those.
type Entry struct {
	Key   string
	Value any
}

// Collect reads f and returns its info dump in the conventional key order:
// file identity, then per-DS fields, then per-RRA fields (including each
// RRA's per-DS cdp_prep value).
func Collect(f *rrdfile.File) ([]Entry, error) {
	header, err := f.StaticHeader()
	if err != nil {
		return nil, err
	}

	live, err := f.LiveHead()
	if err != nil {
		return nil, err
	}

	entries := []Entry{
		{"filename", f.Path()},
		{"rrd_version", header.Version},
		{"step", header.PDPStep},
		{"last_update", live.LastUp},
	}

	for i := 0; i < int(header.DSCount); i++ {
		d, err := f.DSDef(i)
		if err != nil {
			return nil, err
		}

		prep, err := f.PDPPrep(i)
		if err != nil {
			return nil, err
		}

		entries = append(entries,
			Entry{fmt.Sprintf("ds[%s].type", d.Name), d.Type.String()},
			Entry{fmt.Sprintf("ds[%s].last_ds", d.Name), prep.LastDS},
		)

		if d.Type != rrdfile.DSCompute {
			entries = append(entries,
				Entry{fmt.Sprintf("ds[%s].min", d.Name), d.Min()},
				Entry{fmt.Sprintf("ds[%s].max", d.Name), d.Max()},
				Entry{fmt.Sprintf("ds[%s].minimal_heartbeat", d.Name), d.Heartbeat()},
			)
		}
	}

	for i := 0; i < int(header.RRACount); i++ {
		r, err := f.RRADef(i)
		if err != nil {
			return nil, err
		}

		cur, err := f.RRAPtr(i)
		if err != nil {
			return nil, err
		}

		entries = append(entries,
			Entry{fmt.Sprintf("rra[%d].cf", i), r.CF.String()},
			Entry{fmt.Sprintf("rra[%d].rows", i), r.RowCnt},
			Entry{fmt.Sprintf("rra[%d].cur_row", i), cur},
			Entry{fmt.Sprintf("rra[%d].pdp_per_row", i), r.PDPCnt},
		)

		if !r.CF.IsHW() {
			entries = append(entries, Entry{fmt.Sprintf("rra[%d].xff", i), r.XFF()})
		}

		for j := 0; j < int(header.DSCount); j++ {
			c, err := f.CDPPrep(i, j)
			if err != nil {
				return nil, err
			}

			value := math.Float64frombits(c.Scratch[0])
			entries = append(entries, Entry{fmt.Sprintf("rra[%d].cdp_prep[%d].value", i, j), value})
		}
	}

	return entries, nil
}
