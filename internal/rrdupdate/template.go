package rrdupdate

import (
	"fmt"

	"github.com/calvinalkan/rrdgo/pkg/rrdfile"
)

// resolveTemplate maps each value position in an argument line to a file DS
// index. With no template, positions follow file order and every
// non-COMPUTE DS must be supplied (COMPUTE DSes take no value). With a
// template, only the named DSes are supplied in that order; every other DS
// is treated as unknown for this argument.
func resolveTemplate(f *rrdfile.File, names []string) ([]int, error) {
	dsCount, err := fileDSCount(f)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		order := make([]int, 0, dsCount)
		for i := 0; i < dsCount; i++ {
			d, err := f.DSDef(i)
			if err != nil {
				return nil, err
			}

			if d.Type != rrdfile.DSCompute {
				order = append(order, i)
			}
		}

		return order, nil
	}

	seen := make(map[string]bool, len(names))
	order := make([]int, 0, len(names))

	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTemplateName, name)
		}

		seen[name] = true

		idx, ok, err := findDSIndex(f, dsCount, name)
		if err != nil {
			return nil, err
		}

		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTemplateName, name)
		}

		order = append(order, idx)
	}

	return order, nil
}

func fileDSCount(f *rrdfile.File) (int, error) {
	h, err := f.StaticHeader()
	if err != nil {
		return 0, err
	}

	return int(h.DSCount), nil
}

func findDSIndex(f *rrdfile.File, dsCount int, name string) (int, bool, error) {
	for i := 0; i < dsCount; i++ {
		d, err := f.DSDef(i)
		if err != nil {
			return 0, false, err
		}

		if d.Name == name {
			return i, true, nil
		}
	}

	return 0, false, nil
}
