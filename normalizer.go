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

import "sort"

import "gonum.org/v1/gonum/stat"

/* -------------------------------------------------------------------------- */

// NormalizationResult is component B's output (spec §4.2): the scale
// that equalizes control and treatment totals, and the mixing
// coefficient beta that best removes the control's linear contribution
// from the treatment signal. FitInformation has no fields for either
// value, so they are not stored with a fit descriptor.
type NormalizationResult struct {
  ScaleControl float64
  Beta         float64
}

// betaGridStep is the resolution of the beta search: spec §4.2 fixes
// the grid to {k*0.01 : k=0..100}.
const betaGridStep = 0.01
const betaGridSteps = 100

/* -------------------------------------------------------------------------- */

// Normalize computes component B from genome-wide coverage totals
// (spec §4.2). frames is one dataframe per chromosome with both Y and,
// when a control exists, Input populated.
func Normalize(frames map[string]*DataFrame) NormalizationResult {
  var totalY, totalInput float64
  hasControl := false
  for _, df := range frames {
    totalY += float64(df.TotalY())
    if df.HasInput() {
      hasControl = true
      totalInput += df.TotalInput()
    }
  }
  if !hasControl || totalInput == 0 {
    return NormalizationResult{ScaleControl: 1, Beta: 0}
  }

  scaleControl := totalY / totalInput

  y, input := concatenateYInput(frames)
  beta := searchBeta(y, input, scaleControl)

  return NormalizationResult{ScaleControl: scaleControl, Beta: beta}
}

// concatenateYInput flattens every chromosome's Y/Input columns into
// two parallel slices, in a deterministic order (sorted chromosome
// names), so the beta search is reproducible across runs regardless of
// map iteration order.
func concatenateYInput(frames map[string]*DataFrame) ([]float64, []float64) {
  names := make([]string, 0, len(frames))
  for name := range frames {
    names = append(names, name)
  }
  sort.Strings(names)

  total := 0
  for _, name := range names {
    total += frames[name].NumRows()
  }
  y := make([]float64, 0, total)
  input := make([]float64, 0, total)
  for _, name := range names {
    df := frames[name]
    for i := 0; i < df.NumRows(); i++ {
      y = append(y, float64(df.Y[i]))
      input = append(input, df.Input[i])
    }
  }
  return y, input
}

// searchBeta performs the grid search of spec §4.2: beta in
// {0.00, 0.01, ..., 1.00} minimizing |corr(y - beta*scaleControl*input,
// scaleControl*input)|.
func searchBeta(y, input []float64, scaleControl float64) float64 {
  scaledInput := make([]float64, len(input))
  for i, v := range input {
    scaledInput[i] = scaleControl * v
  }

  bestBeta := 0.0
  bestAbsCorr := negInf
  residual := make([]float64, len(y))
  for k := 0; k <= betaGridSteps; k++ {
    beta := float64(k) * betaGridStep
    for i := range y {
      residual[i] = y[i] - beta*scaledInput[i]
    }
    corr := stat.Correlation(residual, scaledInput, nil)
    absCorr := corr
    if absCorr < 0 {
      absCorr = -absCorr
    }
    if bestAbsCorr == negInf || absCorr < bestAbsCorr {
      bestAbsCorr = absCorr
      bestBeta = beta
    }
  }
  return bestBeta
}
