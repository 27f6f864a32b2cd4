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

// Mixture is the mixture engine of spec §4.3/§4.4: EM over a set of
// independent emission schemes with mixing weights, no transition
// structure. A ConstantIntegerEmissionScheme(0) (EmissionConstant with
// ConstantValue 0) serves as the zero-inflation component.
type Mixture struct {
  Emissions []EmissionScheme
  Weights   []float64 // linear, sums to 1
}

// NewMixture builds a mixture with uniform initial weights.
func NewMixture(emissions []EmissionScheme) *Mixture {
  w := make([]float64, len(emissions))
  for i := range w {
    w[i] = 1.0 / float64(len(emissions))
  }
  return &Mixture{Emissions: emissions, Weights: w}
}

/* -------------------------------------------------------------------------- */

// responsibilities returns, for one bin, the log-responsibility of each
// component and the bin's log-likelihood under the mixture.
func (m *Mixture) responsibilities(y int32, x []float64) ([]float64, float64) {
  logW := make([]float64, len(m.Emissions))
  for k, e := range m.Emissions {
    logW[k] = math.Log(m.Weights[k]) + e.LogProbability(y, x)
  }
  logLik := logSumExpSlice(logW)
  for k := range logW {
    logW[k] -= logLik
  }
  return logW, logLik
}

/* -------------------------------------------------------------------------- */

// MixtureTrainingData is the flattened corpus the mixture engine trains
// on: unlike the HMM, order does not matter, so all chromosomes are
// concatenated once up front.
type MixtureTrainingData struct {
  Y []int32
  X [][]float64
}

// Fit runs EM for the mixture engine (spec §4.3/§4.4): the E-step
// computes responsibilities per bin; the M-step updates weights by
// their mean and each component's parameters by the same per-kind
// update rules the HMM uses (NB moment matching, or one IRLS step for
// regression emissions).
func (m *Mixture) Fit(data MixtureTrainingData, cfg FitConfig) (FitResult, error) {
  n := len(data.Y)
  if n == 0 {
    return FitResult{}, newError(EmptyCoverage, "Mixture.Fit: no training data")
  }
  k := len(m.Emissions)

  prevLogLik := negInf
  nonMonotoneStreak := 0
  best := FitResult{LogLikelihood: negInf}

  for iter := 0; iter < cfg.MaxIterations; iter++ {
    if isCancelled(cfg.Cancel) {
      return best, newError(Cancelled, "Mixture.Fit cancelled at iteration %d", iter)
    }

    resp := make([][]float64, n)
    totalLogLik := 0.0
    for i := 0; i < n; i++ {
      var x []float64
      if data.X != nil {
        x = data.X[i]
      }
      logResp, logLik := m.responsibilities(data.Y[i], x)
      resp[i] = logResp
      totalLogLik += logLik
    }

    if math.IsNaN(totalLogLik) || math.IsInf(totalLogLik, 0) {
      return best, newError(NumericalFailure, "Mixture.Fit: non-finite log-likelihood").withDiagnostics(iter, best.LogLikelihood)
    }
    if totalLogLik > best.LogLikelihood {
      best = FitResult{LogLikelihood: totalLogLik, Iterations: iter}
    }

    converged := false
    if iter > 0 {
      if totalLogLik+1e-9 < prevLogLik {
        nonMonotoneStreak++
        if nonMonotoneStreak >= 2 {
          return best, newError(NumericalFailure, "Mixture.Fit: log-likelihood decreased twice in a row").withDiagnostics(iter, best.LogLikelihood)
        }
      } else {
        nonMonotoneStreak = 0
      }
      rel := math.Abs(totalLogLik-prevLogLik) / (math.Abs(prevLogLik) + 1e-12)
      converged = rel < cfg.Threshold
    }
    prevLogLik = totalLogLik

    newWeights := make([]float64, k)
    for comp := 0; comp < k; comp++ {
      var sumW float64
      for i := 0; i < n; i++ {
        sumW += math.Exp(resp[i][comp])
      }
      newWeights[comp] = sumW / float64(n)
      if m.Emissions[comp].Kind == EmissionConstant {
        continue
      }
      w := make([]float64, n)
      for i := 0; i < n; i++ {
        w[i] = math.Exp(resp[i][comp])
      }
      switch m.Emissions[comp].Kind {
      case EmissionNegBin:
        mu, r := UpdateNegBin(data.Y, w)
        m.Emissions[comp] = NewNegBinEmission(mu, r)
      case EmissionPoissonRegression:
        beta, err := UpdatePoissonRegression(data.X, data.Y, w, m.Emissions[comp].Beta)
        if err == nil {
          m.Emissions[comp].Beta = beta
        }
      case EmissionNBRegression:
        beta, r, err := UpdateNBRegression(data.X, data.Y, w, m.Emissions[comp].Beta, m.Emissions[comp].R)
        if err == nil {
          m.Emissions[comp].Beta = beta
          m.Emissions[comp].R = r
        }
      }
    }
    m.Weights = newWeights

    if converged {
      best.Iterations = iter + 1
      return best, nil
    }
  }

  best.Iterations = cfg.MaxIterations
  return best, nil
}

// Posterior returns, for every observation, the log-responsibility of
// each mixture component.
func (m *Mixture) Posterior(data MixtureTrainingData) [][]float64 {
  n := len(data.Y)
  result := make([][]float64, n)
  for i := 0; i < n; i++ {
    var x []float64
    if data.X != nil {
      x = data.X[i]
    }
    logResp, _ := m.responsibilities(data.Y[i], x)
    result[i] = logResp
  }
  return result
}
