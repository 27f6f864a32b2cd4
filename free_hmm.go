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

// TrainingSequence is one chromosome's worth of observations fed to the
// HMM/mixture engines: Y is required, X holds per-bin covariate rows
// for regression emissions (nil when every emission in the model is
// plain NB/Constant).
type TrainingSequence struct {
  Seqname string
  Y       []int32
  X       [][]float64
}

// FitConfig holds the EM stopping rule of spec §4.3: convergence is
// relative log-likelihood improvement below Threshold, or MaxIterations
// reached, whichever comes first. Cancel is polled cooperatively at the
// top of each iteration (spec §5).
type FitConfig struct {
  Threshold     float64
  MaxIterations int
  Threads       int
  Cancel        <-chan struct{}
}

// DefaultFitConfig matches spec §4.3's production defaults.
func DefaultFitConfig() FitConfig {
  return FitConfig{Threshold: 1e-4, MaxIterations: 10, Threads: 1}
}

// isCancelled polls the cooperative cancellation flag of spec §5; a nil
// channel means cancellation was never requested.
func isCancelled(cancel <-chan struct{}) bool {
  if cancel == nil {
    return false
  }
  select {
  case <-cancel:
    return true
  default:
    return false
  }
}

/* -------------------------------------------------------------------------- */

// FreeHMM is the free (unconstrained) HMM of spec §4.3: K states, one
// emission scheme per state (state 0 is Constant(0) iff Variant has a
// Z state), full K x K transition matrix.
type FreeHMM struct {
  Variant   StateVariant
  Emissions []EmissionScheme // one per state, arena indexed by state
  LogPi     []float64
  LogA      [][]float64

  // SharedFailures models the legacy MLFreeNBHMM contract (spec §4.3):
  // all non-zero NB states share one failure count r, updated jointly
  // rather than per state. FreeNBHMM/FreeNBZHMM leave this false.
  SharedFailures bool

  // Guard is the runtime-guard hook of spec §4.3, invoked after every
  // M-step; only the canonical NB2Z constructor in model.go sets it.
  Guard func(hmm *FreeHMM)
}

func (h *FreeHMM) numStates() int {
  return len(h.Emissions)
}

// emitFunc builds the per-sequence log-emission closure consumed by the
// generic forward/backward/Viterbi core.
func (h *FreeHMM) emitFunc(seq TrainingSequence) logEmitFunc {
  return func(state, bin int) float64 {
    var x []float64
    if seq.X != nil {
      x = seq.X[bin]
    }
    return h.Emissions[state].LogProbability(seq.Y[bin], x)
  }
}

/* -------------------------------------------------------------------------- */

// FitResult carries the diagnostics spec §7 requires fit-level errors
// to report: the iteration reached and the best log-likelihood seen,
// even when the loop aborts early.
type FitResult struct {
  LogLikelihood float64
  Iterations    int
}

type seqStats struct {
  gamma      [][]float64
  logLik     float64
  xiAccum    [][]float64
  piAccum    []float64
}

// Fit runs Baum-Welch EM to convergence (spec §4.3). The E-step is
// fanned out per sequence across a shared work-stealing pool (spec
// §5.2); the M-step is single-threaded since it only aggregates
// per-sequence statistics.
func (h *FreeHMM) Fit(sequences []TrainingSequence, cfg FitConfig) (FitResult, error) {
  if len(sequences) == 0 {
    return FitResult{}, newError(EmptyCoverage, "FreeHMM.Fit: no training sequences")
  }
  for _, seq := range sequences {
    if len(seq.Y) == 0 {
      return FitResult{}, newError(EmptyCoverage, "FreeHMM.Fit: sequence `%s' is empty", seq.Seqname)
    }
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
      return best, newError(Cancelled, "FreeHMM.Fit cancelled at iteration %d", iter)
    }

    stats := make([]seqStats, len(sequences))

    pool := threadpool.New(threads, 100*threads)
    pool.RangeJob(0, len(sequences), func(i int, pool threadpool.ThreadPool, erf func() error) error {
      seq := sequences[i]
      emit := h.emitFunc(seq)
      logAlpha, logBeta, logLik := forwardBackward(numStates, h.LogPi, h.LogA, len(seq.Y), emit)
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
      return best, newError(NumericalFailure, "FreeHMM.Fit: non-finite log-likelihood at iteration %d", iter).withDiagnostics(iter, best.LogLikelihood)
    }
    if totalLogLik > best.LogLikelihood {
      best = FitResult{LogLikelihood: totalLogLik, Iterations: iter}
    }

    converged := false
    if iter > 0 {
      if totalLogLik+1e-9 < prevLogLik {
        nonMonotoneStreak++
        if nonMonotoneStreak >= 2 {
          return best, newError(NumericalFailure, "FreeHMM.Fit: log-likelihood decreased twice in a row").withDiagnostics(iter, best.LogLikelihood)
        }
      } else {
        nonMonotoneStreak = 0
      }
      rel := math.Abs(totalLogLik-prevLogLik) / (math.Abs(prevLogLik) + 1e-12)
      converged = rel < cfg.Threshold
    }
    prevLogLik = totalLogLik

    h.mStep(sequences, stats)
    if h.Guard != nil {
      h.Guard(h)
    }

    if converged {
      best.Iterations = iter + 1
      return best, nil
    }
  }

  best.Iterations = cfg.MaxIterations
  return best, nil
}

/* -------------------------------------------------------------------------- */

// mStep updates prior, transition matrix and emissions from the
// E-step statistics of every sequence (spec §4.3).
func (h *FreeHMM) mStep(sequences []TrainingSequence, stats []seqStats) {
  numStates := h.numStates()

  // prior: average of gamma_0 across sequences
  pi := make([]float64, numStates)
  for _, s := range stats {
    for i := 0; i < numStates; i++ {
      pi[i] += s.piAccum[i]
    }
  }
  h.LogPi = toLogVector(pi)

  // transition: aggregate xi and gamma (excluding last bin) across sequences
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
      logA[s] = toLogVector(xiSum[s]) // degenerate: state never visited except at the end
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

  // emissions: weighted moment matching per state, excluding the
  // Constant(0) zero state which never updates (spec §3 invariant)
  firstUpdatable := 0
  if h.Variant.HasZero() {
    firstUpdatable = 1
  }

  if h.SharedFailures {
    h.updateSharedFailureEmissions(sequences, stats, firstUpdatable)
    return
  }

  for state := firstUpdatable; state < numStates; state++ {
    h.updateEmission(state, sequences, stats)
  }
}

func (h *FreeHMM) updateEmission(state int, sequences []TrainingSequence, stats []seqStats) {
  switch h.Emissions[state].Kind {
  case EmissionNegBin:
    y, w := gatherWeighted(state, sequences, stats, nil)
    mu, r := UpdateNegBin(y, w)
    h.Emissions[state] = NewNegBinEmission(mu, r)
  case EmissionPoissonRegression:
    y, w, x := gatherWeightedX(state, sequences, stats)
    beta, err := UpdatePoissonRegression(x, y, w, h.Emissions[state].Beta)
    if err == nil {
      h.Emissions[state].Beta = beta
    }
  case EmissionNBRegression:
    y, w, x := gatherWeightedX(state, sequences, stats)
    beta, r, err := UpdateNBRegression(x, y, w, h.Emissions[state].Beta, h.Emissions[state].R)
    if err == nil {
      h.Emissions[state].Beta = beta
      h.Emissions[state].R = r
    }
  case EmissionConstant:
    // never updated
  }
}

// updateSharedFailureEmissions implements the legacy MLFreeNBHMM
// contract: every non-zero state gets its own mean, but the failure
// count r is pooled across all of them.
func (h *FreeHMM) updateSharedFailureEmissions(sequences []TrainingSequence, stats []seqStats, first int) {
  numStates := h.numStates()
  means := make([]float64, numStates)
  var pooledY []int32
  var pooledW []float64
  for state := first; state < numStates; state++ {
    y, w := gatherWeighted(state, sequences, stats, nil)
    mu, _ := UpdateNegBin(y, w)
    means[state] = mu
    pooledY = append(pooledY, y...)
    pooledW = append(pooledW, w...)
  }
  _, r := UpdateNegBin(pooledY, pooledW)
  for state := first; state < numStates; state++ {
    h.Emissions[state] = NewNegBinEmission(means[state], r)
  }
}

func gatherWeighted(state int, sequences []TrainingSequence, stats []seqStats, _ interface{}) ([]int32, []float64) {
  var y []int32
  var w []float64
  for si, seq := range sequences {
    for i, v := range seq.Y {
      y = append(y, v)
      w = append(w, math.Exp(stats[si].gamma[i][state]))
    }
  }
  return y, w
}

func gatherWeightedX(state int, sequences []TrainingSequence, stats []seqStats) ([]int32, []float64, [][]float64) {
  var y []int32
  var w []float64
  var x [][]float64
  for si, seq := range sequences {
    for i, v := range seq.Y {
      y = append(y, v)
      w = append(w, math.Exp(stats[si].gamma[i][state]))
      x = append(x, seq.X[i])
    }
  }
  return y, w, x
}

/* -------------------------------------------------------------------------- */

// Viterbi returns the single most likely state path for a sequence,
// using the model's current, already-fitted parameters.
func (h *FreeHMM) Viterbi(seq TrainingSequence) []int {
  return viterbi(h.numStates(), h.LogPi, h.LogA, len(seq.Y), h.emitFunc(seq))
}

// Posterior returns per-bin, per-state log-posteriors for a sequence,
// consumed directly by the posterior-to-peaks engine (component I).
func (h *FreeHMM) Posterior(seq TrainingSequence) [][]float64 {
  logAlpha, logBeta, logLik := forwardBackward(h.numStates(), h.LogPi, h.LogA, len(seq.Y), h.emitFunc(seq))
  return posteriorGamma(logAlpha, logBeta, logLik)
}

// LogLikelihood scores a sequence under the model without updating it.
func (h *FreeHMM) LogLikelihood(seq TrainingSequence) float64 {
  _, _, logLik := forwardBackward(h.numStates(), h.LogPi, h.LogA, len(seq.Y), h.emitFunc(seq))
  return logLik
}

/* -------------------------------------------------------------------------- */

func (e *Error) withDiagnostics(iteration int, logLik float64) *Error {
  e.Iteration = iteration
  e.LogLikelihood = logLik
  return e
}
