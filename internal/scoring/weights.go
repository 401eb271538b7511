package scoring

import "math"

// Redistribute sets the weight of criteria[index] and rebalances every other
// criterion proportionally to its current share so the rubric keeps summing
// to TotalWeight. The input slice is not modified.
//
// The new weight is clamped so every other criterion can keep a weight of at
// least 1. Rounding leftovers go to the largest other criterion, first in
// list order on ties; if that would take it below 1 it stops at 1 and the
// remainder moves on to the next largest.
func Redistribute(criteria []Criterion, index, newWeight int) []Criterion {
	out := make([]Criterion, len(criteria))
	copy(out, criteria)
	if index < 0 || index >= len(out) {
		return out
	}
	if len(out) == 1 {
		out[0].Weight = TotalWeight
		return out
	}

	others := len(out) - 1
	newWeight = clamp(newWeight, 1, TotalWeight-others)
	diff := float64(newWeight - out[index].Weight)
	out[index].Weight = newWeight

	totalOther := 0
	for i, c := range out {
		if i != index {
			totalOther += c.Weight
		}
	}
	for i := range out {
		if i == index {
			continue
		}
		w := float64(out[i].Weight)
		var adj float64
		if totalOther > 0 {
			adj = diff * (w / float64(totalOther))
		} else {
			adj = diff / float64(others)
		}
		out[i].Weight = max(1, int(math.Round(w-adj)))
	}

	total := 0
	for _, c := range out {
		total += c.Weight
	}
	absorbResidual(out, index, TotalWeight-total)
	return out
}

// absorbResidual hands the residual to the largest criterion other than skip.
func absorbResidual(cs []Criterion, skip, residual int) {
	used := make(map[int]bool, len(cs))
	for residual != 0 {
		target := -1
		for i, c := range cs {
			if i == skip || used[i] {
				continue
			}
			if target < 0 || c.Weight > cs[target].Weight {
				target = i
			}
		}
		if target < 0 {
			return
		}
		used[target] = true
		next := cs[target].Weight + residual
		if next >= 1 {
			cs[target].Weight = next
			return
		}
		residual = next - 1
		cs[target].Weight = 1
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
