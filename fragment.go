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

// DefaultFraglenRange bounds the shifts considered by
// EstimateFragmentLength when the caller does not narrow it further
// (mirrors the teacher's OptionFraglenRange default of an unrestricted
// range in track_coverage.go, here given concrete sane bounds).
var DefaultFraglenRange = [2]int{50, 500}

// DefaultFraglenBinSize is the resolution at which strand profiles are
// built for cross-correlation (teacher default in OptionFraglenBinSize).
const DefaultFraglenBinSize = 10

// EstimateFragmentLength implements the "auto" fragment size (spec §3)
// by strand cross-correlation: the plus-strand and minus-strand read
// start profiles of a ChIP-seq fragment are offset by approximately the
// fragment length, so the shift maximizing their correlation is taken
// as the estimate. Building the two profiles only requires the
// CoverageSource contract (stranded, unshifted queries at fragment=0),
// so no raw read access is needed.
func EstimateFragmentLength(source CoverageSource, chromosome string, length int, binSize int) (int, error) {
  fraglenRange := DefaultFraglenRange
  fraglenBinSize := DefaultFraglenBinSize
  if fraglenBinSize > binSize && binSize > 0 {
    fraglenBinSize = binSize
  }

  grid := NewBinGrid(length, fraglenBinSize)
  n := grid.NumBins()

  plus := make([]float64, n)
  minus := make([]float64, n)

  var err error
  grid.ForEach(func(i, start, end int) {
    if err != nil {
      return
    }
    c, e := source.Coverage(chromosome, NewRange(start, end), StrandPlus, 0)
    if e != nil {
      err = e
      return
    }
    plus[i] = float64(c)
    c, e = source.Coverage(chromosome, NewRange(start, end), StrandMinus, 0)
    if e != nil {
      err = e
      return
    }
    minus[i] = float64(c)
  })
  if err != nil {
    return 0, err
  }

  minShiftBins := fraglenRange[0] / fraglenBinSize
  maxShiftBins := fraglenRange[1] / fraglenBinSize
  if maxShiftBins >= n {
    maxShiftBins = n - 1
  }
  if minShiftBins < 0 {
    minShiftBins = 0
  }

  bestShift := fraglenRange[0]
  bestScore := negInf
  for shift := minShiftBins; shift <= maxShiftBins; shift++ {
    score := crossCorrelation(plus, minus, shift)
    if score > bestScore {
      bestScore = score
      bestShift = shift * fraglenBinSize
    }
  }
  return bestShift, nil
}

// crossCorrelation scores how well minus[i] aligns with plus[i-shift]:
// Σ plus[i] * minus[i+shift] over valid i.
func crossCorrelation(plus, minus []float64, shift int) float64 {
  n := len(plus)
  var sum float64
  for i := 0; i+shift < n; i++ {
    sum += plus[i] * minus[i+shift]
  }
  return sum
}
