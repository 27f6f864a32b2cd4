/* Copyright (C) 2016 Philipp Benner
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package span

/* -------------------------------------------------------------------------- */

// BinGrid is the finite, restartable sequence of (index, start, end)
// triples covering a chromosome of a given length at a given bin size
// (spec §3, design notes on generators/iterators). The last bin may be
// shorter than binSize; BinGrid never pretends otherwise.
type BinGrid struct {
  Length  int
  BinSize int
}

// NewBinGrid validates and returns a grid over [0, length) with the
// given bin size.
func NewBinGrid(length, binSize int) BinGrid {
  if length <= 0 {
    panic("NewBinGrid(): length must be positive")
  }
  if binSize <= 0 {
    panic("NewBinGrid(): binSize must be positive")
  }
  return BinGrid{Length: length, BinSize: binSize}
}

// NumBins returns ⌈Length/BinSize⌉.
func (g BinGrid) NumBins() int {
  return divIntUp(g.Length, g.BinSize)
}

// Bin returns the half-open range covered by bin i. The last bin is
// clipped to g.Length, as required by spec §4.1's edge case.
func (g BinGrid) Bin(i int) Range {
  from := i * g.BinSize
  to := iMin(from+g.BinSize, g.Length)
  return NewRange(from, to)
}

// ForEach walks every bin in order, calling f(index, start, end). It is
// restartable: calling it again replays the same sequence with no
// side effects on the grid itself.
func (g BinGrid) ForEach(f func(index, start, end int)) {
  n := g.NumBins()
  for i := 0; i < n; i++ {
    r := g.Bin(i)
    f(i, r.From, r.To)
  }
}

// BinOf returns the index of the bin containing position pos, or -1 if
// pos falls outside [0, Length).
func (g BinGrid) BinOf(pos int) int {
  if pos < 0 || pos >= g.Length {
    return -1
  }
  return pos / g.BinSize
}
