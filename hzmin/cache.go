// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hzmin

// SearchLog is an append-only record of every (step, value, slope) sample
// evaluated during one line-search episode. The first entry is always the
// step-0 seed; insertion order selects interpolation brackets, so samples
// are never reordered or removed except by Clear.
type SearchLog struct {
	Alpha []float64
	Value []float64
	Slope []float64
}

// Clear empties the log at the start of a new line search.
func (l *SearchLog) Clear() {
	l.Alpha = l.Alpha[:0]
	l.Value = l.Value[:0]
	l.Slope = l.Slope[:0]
}

// Push appends one sample.
func (l *SearchLog) Push(alpha, value, slope float64) {
	l.Alpha = append(l.Alpha, alpha)
	l.Value = append(l.Value, value)
	l.Slope = append(l.Slope, slope)
}

// Len reports the number of samples collected so far.
func (l *SearchLog) Len() int {
	return len(l.Alpha)
}
