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

import "math"

/* -------------------------------------------------------------------------- */

// NewPoissonRegressionEmission builds a PoissonRegressionEmissionScheme
// (spec §4.4): emission y ~ Poisson(exp(x'beta)), beta[0] the intercept.
func NewPoissonRegressionEmission(beta []float64, labels []string) EmissionScheme {
  return EmissionScheme{Kind: EmissionPoissonRegression, Beta: append([]float64{}, beta...), CovariateLabels: labels}
}

// NewNBRegressionEmission builds an NBRegressionEmissionScheme (spec
// §4.4): same log-link mean model, NB noise with dispersion r.
func NewNBRegressionEmission(beta []float64, r float64, labels []string) EmissionScheme {
  return EmissionScheme{Kind: EmissionNBRegression, Beta: append([]float64{}, beta...), R: r, CovariateLabels: labels}
}

/* -------------------------------------------------------------------------- */

// UpdatePoissonRegression performs one IRLS step for a Poisson
// regression emission (spec §4.4): working response z = eta +
// (y-mu)/mu, working weight w*mu, solved by WLSRegression.
func UpdatePoissonRegression(x [][]float64, y []int32, weights []float64, beta []float64) ([]float64, error) {
  n := len(y)
  z := make([]float64, n)
  w := make([]float64, n)
  for i := 0; i < n; i++ {
    eta := dot(beta, x[i])
    mu := math.Exp(eta)
    if mu < 1e-10 {
      mu = 1e-10
    }
    z[i] = eta + (float64(y[i])-mu)/mu
    w[i] = weights[i] * mu
  }
  return (WLSRegression{}).Fit(x, z, w)
}

// UpdateNBRegression performs one IRLS step for an NB regression
// emission (spec §4.4): same working response as Poisson, but the
// working weight is w*mu/(1+mu/r), reflecting the larger NB variance;
// r itself is refreshed afterward by weighted moment matching against
// the fitted means, exactly as the plain NB emission does.
func UpdateNBRegression(x [][]float64, y []int32, weights []float64, beta []float64, r float64) ([]float64, float64, error) {
  n := len(y)
  z := make([]float64, n)
  w := make([]float64, n)
  mus := make([]float64, n)
  for i := 0; i < n; i++ {
    eta := dot(beta, x[i])
    mu := math.Exp(eta)
    if mu < 1e-10 {
      mu = 1e-10
    }
    mus[i] = mu
    z[i] = eta + (float64(y[i])-mu)/mu
    w[i] = weights[i] * mu / (1 + mu/r)
  }
  newBeta, err := (WLSRegression{}).Fit(x, z, w)
  if err != nil {
    return nil, 0, err
  }

  var sumW, sumWD2 float64
  for i := 0; i < n; i++ {
    eta := dot(newBeta, x[i])
    mu := math.Exp(eta)
    d := float64(y[i]) - mu
    sumW += weights[i]
    sumWD2 += weights[i] * d * d
  }
  meanMu := 0.0
  for _, m := range mus {
    meanMu += m
  }
  meanMu /= float64(n)
  variance := sumWD2 / sumW
  floor := SPAN_HMM_NB_VAR_MEAN_MULTIPLIER * meanMu
  if variance < floor {
    variance = floor
  }
  denom := variance - meanMu
  if denom <= 1e-12 {
    denom = 1e-12
  }
  newR := meanMu * meanMu / denom
  if newR <= 0 {
    newR = 1e-6
  }
  return newBeta, newR, nil
}
