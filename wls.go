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

import "gonum.org/v1/gonum/mat"

/* -------------------------------------------------------------------------- */

// WLSRegression solves weighted least squares beta = (X'WX)^-1 X'Wy
// (spec §4.4), used as the M-step of the Poisson/NB regression
// emissions' IRLS loop. X is the covariate matrix without the
// intercept column; designMatrix prepends it.
type WLSRegression struct{}

// designMatrix assembles the design matrix from row-major covariate
// data, prepending a column of 1s for the intercept (spec §4.4). Every
// row of x must have the same length; a mismatch is DimensionMismatch
// (spec §8 scenario 5).
func (WLSRegression) designMatrix(x [][]float64) (*mat.Dense, error) {
  n := len(x)
  if n == 0 {
    return mat.NewDense(0, 1, nil), nil
  }
  p := len(x[0])
  for _, row := range x {
    if len(row) != p {
      return nil, newError(InvalidInput, "DimensionMismatch: design matrix rows have differing lengths (%d vs %d)", len(row), p)
    }
  }
  data := make([]float64, n*(p+1))
  for i, row := range x {
    data[i*(p+1)] = 1
    copy(data[i*(p+1)+1:i*(p+1)+1+p], row)
  }
  return mat.NewDense(n, p+1, data), nil
}

// Fit solves the weighted Gram system for beta, returning a vector of
// length p+1 (intercept first).
func (w WLSRegression) Fit(x [][]float64, y, weights []float64) ([]float64, error) {
  X, err := w.designMatrix(x)
  if err != nil {
    return nil, err
  }
  n, p := X.Dims()
  if len(y) != n || len(weights) != n {
    return nil, newError(InvalidInput, "DimensionMismatch: y/weights length does not match design matrix rows")
  }

  W := mat.NewDiagDense(n, weights)

  var XtW mat.Dense
  XtW.Mul(X.T(), W)

  var XtWX mat.Dense
  XtWX.Mul(&XtW, X)

  Yv := mat.NewVecDense(n, y)
  var XtWy mat.VecDense
  XtWy.MulVec(&XtW, Yv)

  var beta mat.VecDense
  if err := beta.SolveVec(&XtWX, &XtWy); err != nil {
    return nil, wrapError(NumericalFailure, err, "WLSRegression: normal equations are singular")
  }

  result := make([]float64, p)
  for i := 0; i < p; i++ {
    result[i] = beta.AtVec(i)
  }
  return result, nil
}
