package sales

import (
	"fmt"
	"strings"
)

// Policy decides what happens when incoming data meets an existing cell
type Policy int

const (
	// KeepExisting adds new brands, months and empty cells but never overwrites a value
	KeepExisting Policy = iota
	// ReplaceMonths rewrites every incoming month column wholesale
	ReplaceMonths
)

// String returns the flag spelling of the policy
func (p Policy) String() string {
	switch p {
	case ReplaceMonths:
		return "replace"
	default:
		return "keep"
	}
}

// ParsePolicy parses "keep" or "replace"
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep", "":
		return KeepExisting, nil
	case "replace":
		return ReplaceMonths, nil
	default:
		return KeepExisting, fmt.Errorf("unknown merge policy %q", s)
	}
}

// MergeStats summarizes what a merge changed
type MergeStats struct {
	AddedBrands []string `json:"added_brands,omitempty"`
	AddedMonths []Month  `json:"added_months,omitempty"`
	Written     int      `json:"written"`
	Unchanged   int      `json:"unchanged"`
	Conflicts   int      `json:"conflicts"`
	Cleared     int      `json:"cleared"`
}

// Merge folds src into dst. Rows are matched by brand and columns by month;
// dst label columns are kept and only empty label cells are filled from src.
// Passthrough rows on either side are left alone.
func Merge(dst, src *Table, policy Policy) MergeStats {
	var stats MergeStats

	incoming := src.Months()
	for _, m := range incoming {
		if dst.AddMonth(m) {
			stats.AddedMonths = append(stats.AddedMonths, m)
		}
	}

	if policy == ReplaceMonths {
		for _, r := range dst.rows {
			if r.Passthrough {
				continue
			}
			srcRow := src.Row(r.Labels[dst.KeyIndex])
			for _, m := range incoming {
				if srcRow != nil {
					if _, ok := srcRow.Values[m]; ok {
						continue
					}
				}
				if r.clearCell(m) {
					stats.Cleared++
				}
			}
		}
	}

	// label column positions of src for each dst label column
	labelMap := make([]int, len(dst.Labels))
	for i, l := range dst.Labels {
		labelMap[i] = src.LabelIndex(l)
	}

	for _, srcRow := range src.rows {
		if srcRow.Passthrough {
			continue
		}
		brand := srcRow.Labels[src.KeyIndex]
		dstRow, created := dst.AddBrand(brand)
		if created {
			stats.AddedBrands = append(stats.AddedBrands, brand)
		}
		for i, j := range labelMap {
			if i == dst.KeyIndex || j < 0 || dstRow.Labels[i] != "" {
				continue
			}
			dstRow.Labels[i] = srcRow.Labels[j]
		}

		for _, m := range incoming {
			v, ok := srcRow.Values[m]
			if !ok {
				continue
			}
			existing, exists := dstRow.Values[m]
			switch {
			case !dstRow.hasCell(m):
				dstRow.Values[m] = v
				stats.Written++
			case exists && existing == v:
				stats.Unchanged++
			case policy == ReplaceMonths:
				dstRow.clearCell(m)
				dstRow.Values[m] = v
				stats.Written++
			default:
				stats.Conflicts++
			}
		}
	}

	return stats
}
