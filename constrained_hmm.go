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

import "github.com/pbenner/threadpool"

/* -------------------------------------------------------------------------- */

// MultiTrainingSequence is the constrained HMM's training unit: D
// replicate-dimension tracks of equal length over one chromosome
// (spec §4.3's differential-analysis contract).
type MultiTrainingSequence struct {
  Seqname string
  Y       [][]int32 // [dimension][bin]
}

func (s MultiTrainingSequence) numBins() int {
  if len(s.Y) == 0 {
    return 0
  }
  return len(s.Y[0])
}

func (s MultiTrainingSequence) numDimensions() int {
  return len(s.Y)
}

/* -------------------------------------------------------------------------- */

// ConstrainedHMM implements spec §4.3's differential-analysis contract:
// stateDimensionEmissionMap[s][d] assigns one of K'+1 shared emission
// schemes to each (state, replicate-dimension) pair; distinct states
// may reuse the same scheme (design notes §9: the map is already
// index-based and maps directly onto Go slices).
type ConstrainedHMM struct {
  Variant                   StateVariant
  Emissions                 []EmissionScheme // shared scheme arena
  StateDimensionEmissionMap [][]int          // [state][dimension] -> emission index
  LogPi                     []float64
  LogA                      [][]float64
}

func (h *ConstrainedHMM) numStates() int {
  return len(h.StateDimensionEmissionMap)
}

func (h *ConstrainedHMM) emitFunc(seq MultiTrainingSequence) logEmitFunc {
  return func(state, bin int) float64 {
    sum := 0.0
    for d, e := range h.StateDimensionEmissionMap[state] {
      sum += h.Emissions[e].LogProbability(seq.Y[d][bin], nil)
    }
    return sum
  }
}

/* -------------------------------------------------------------------------- */

// Fit runs constrained Baum-Welch EM (spec §4.3): emission updates
// aggregate posteriors across every (state, dimension) pair that maps
// to the same scheme, weighted by gamma, exactly as a free HMM would
// aggregate across bins of a single state.
func (h *ConstrainedHMM) Fit(sequences []MultiTrainingSequence, cfg FitConfig) (FitResult, error) {
  if len(sequences) == 0 {
    return FitResult{}, newError(EmptyCoverage, "ConstrainedHMM.Fit: no training sequences")
  }
  threads := cfg.Threads
  if threads <= 0 {
    threads = 1
  }
  numStates := h.numStates()

  prevLogLik := negInf
  nonMonotoneStreak := 0
  best := FitResult{LogLikelihood: negInf}

  for iter := 0; iter < cfg.MaxIterations; iter++ {
    if isCancelled(cfg.Cancel) {
      return best, newError(Cancelled, "ConstrainedHMM.Fit cancelled at iteration %d", iter)
    }

    stats := make([]seqStats, len(sequences))

    pool := threadpool.New(threads, 100*threads)
    pool.RangeJob(0, len(sequences), func(i int, pool threadpool.ThreadPool, erf func() error) error {
      seq := sequences[i]
      emit := h.emitFunc(seq)
      logAlpha, logBeta, logLik := forwardBackward(numStates, h.LogPi, h.LogA, seq.numBins(), emit)
      gamma := posteriorGamma(logAlpha, logBeta, logLik)

      xi := make([][]float64, numStates)
      for s := range xi {
        xi[s] = make([]float64, numStates)
      }
      accumulateXi(logAlpha, logBeta, h.LogA, emit, logLik, xi)

      piAccum := make([]float64, numStates)
      for s := 0; s < numStates; s++ {
        piAccum[s] = math.Exp(gamma[0][s])
      }

      stats[i] = seqStats{gamma: gamma, logLik: logLik, xiAccum: xi, piAccum: piAccum}
      return nil
    })

    totalLogLik := 0.0
    for _, s := range stats {
      totalLogLik += s.logLik
    }
    if math.IsNaN(totalLogLik) || math.IsInf(totalLogLik, 0) {
      return best, newError(NumericalFailure, "ConstrainedHMM.Fit: non-finite log-likelihood").withDiagnostics(iter, best.LogLikelihood)
    }
    if totalLogLik > best.LogLikelihood {
      best = FitResult{LogLikelihood: totalLogLik, Iterations: iter}
    }

    converged := false
    if iter > 0 {
      if totalLogLik+1e-9 < prevLogLik {
        nonMonotoneStreak++
        if nonMonotoneStreak >= 2 {
          return best, newError(NumericalFailure, "ConstrainedHMM.Fit: log-likelihood decreased twice in a row").withDiagnostics(iter, best.LogLikelihood)
        }
      } else {
        nonMonotoneStreak = 0
      }
      rel := math.Abs(totalLogLik-prevLogLik) / (math.Abs(prevLogLik) + 1e-12)
      converged = rel < cfg.Threshold
    }
    prevLogLik = totalLogLik

    h.mStep(sequences, stats)

    if converged {
      best.Iterations = iter + 1
      return best, nil
    }
  }

  best.Iterations = cfg.MaxIterations
  return best, nil
}

func (h *ConstrainedHMM) mStep(sequences []MultiTrainingSequence, stats []seqStats) {
  numStates := h.numStates()

  pi := make([]float64, numStates)
  for _, s := range stats {
    for i := 0; i < numStates; i++ {
      pi[i] += s.piAccum[i]
    }
  }
  h.LogPi = toLogVector(pi)

  xiSum := make([][]float64, numStates)
  gammaSum := make([]float64, numStates)
  for s := range xiSum {
    xiSum[s] = make([]float64, numStates)
  }
  for _, st := range stats {
    for s := 0; s < numStates; s++ {
      for t := 0; t < numStates; t++ {
        xiSum[s][t] += st.xiAccum[s][t]
      }
    }
    for i := 0; i < len(st.gamma)-1; i++ {
      for s := 0; s < numStates; s++ {
        gammaSum[s] += math.Exp(st.gamma[i][s])
      }
    }
  }
  logA := make([][]float64, numStates)
  for s := 0; s < numStates; s++ {
    if gammaSum[s] <= 0 {
      logA[s] = toLogVector(xiSum[s])
      continue
    }
    row := make([]float64, numStates)
    for t := 0; t < numStates; t++ {
      row[t] = xiSum[s][t] / gammaSum[s]
    }
    logA[s] = toLogVector(row)
  }
  h.LogA = logA
  normalizeLogRows(h.LogA)

  // emission updates: aggregate every (state, dimension) pair that
  // shares a scheme into one weighted NB moment match.
  for e := range h.Emissions {
    if h.Emissions[e].Kind == EmissionConstant {
      continue
    }
    var y []int32
    var w []float64
    for state, dims := range h.StateDimensionEmissionMap {
      for d, scheme := range dims {
        if scheme != e {
          continue
        }
        for si, seq := range sequences {
          for i := 0; i < seq.numBins(); i++ {
            y = append(y, seq.Y[d][i])
            w = append(w, math.Exp(stats[si].gamma[i][state]))
          }
        }
      }
    }
    if len(y) == 0 {
      continue
    }
    mu, r := UpdateNegBin(y, w)
    h.Emissions[e] = NewNegBinEmission(mu, r)
  }
}

// Posterior returns per-bin, per-state log-posteriors.
func (h *ConstrainedHMM) Posterior(seq MultiTrainingSequence) [][]float64 {
  logAlpha, logBeta, logLik := forwardBackward(h.numStates(), h.LogPi, h.LogA, seq.numBins(), h.emitFunc(seq))
  return posteriorGamma(logAlpha, logBeta, logLik)
}
