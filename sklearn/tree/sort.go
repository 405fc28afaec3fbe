package tree

import "sort"

// columnOrder sorts a feature column and the matching sample ids together.
type columnOrder struct {
	xf      []float64
	samples []int
}

func (c columnOrder) Len() int           { return len(c.xf) }
func (c columnOrder) Less(i, j int) bool { return c.xf[i] < c.xf[j] }
func (c columnOrder) Swap(i, j int) {
	c.xf[i], c.xf[j] = c.xf[j], c.xf[i]
	c.samples[i], c.samples[j] = c.samples[j], c.samples[i]
}

// sortColumn orders xf ascending, applying the same permutation to samples.
// Both slices must have the same length.
func sortColumn(xf []float64, samples []int) {
	sort.Sort(columnOrder{xf: xf, samples: samples})
}
