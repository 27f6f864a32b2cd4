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
import "sort"

import "gonum.org/v1/gonum/stat"

/* -------------------------------------------------------------------------- */

const (
  estimateSNRFraction = 0.05
  maxMeanToStd        = 5.0
  guessEps            = 1e-6
  snrFloor            = 1.1
)

// GuessContext carries the guess-derived parameters the NB2Z runtime
// guard needs at every EM iteration (spec §4.3-guess step 6, §9 redesign
// flag: threaded explicitly as a field set at construction rather than
// a mutable package-level guess variable).
type GuessContext struct {
  NoiseMean float64
  SNR       float64
}

/* -------------------------------------------------------------------------- */

// guessByData implements spec §4.3-guess steps 1-6: it collects y,
// drops zeros when the state set has a Z component, computes the
// high/low emission statistics and derives one NB mean/failure pair per
// non-zero state. snrOverride, when positive, replaces the computed snr
// with a caller-supplied value (the multi-start retries of step 7 reuse
// the same meanL anchor but vary snr). Each mu is the square root of
// meanL scaled by snr^(k/(K-1)), so the lowest state lands at sqrt(meanL)
// and the highest at sqrt(meanH) with the others geometrically
// interpolated between.
func guessByData(y []int32, numNonZero int, dropZeros bool, snrOverride float64) (mus, rs []float64, ctx GuessContext) {
  vals := make([]float64, 0, len(y))
  for _, v := range y {
    if dropZeros && v == 0 {
      continue
    }
    vals = append(vals, float64(v))
  }
  if len(vals) == 0 || numNonZero == 0 {
    mus = make([]float64, numNonZero)
    rs = make([]float64, numNonZero)
    for i := range mus {
      mus[i] = float64(i + 1)
      rs[i] = 10
    }
    return mus, rs, GuessContext{NoiseMean: 1, SNR: snrFloor}
  }

  _, s := stat.MeanStdDev(vals, nil)
  v := s * s

  sorted := append([]float64(nil), vals...)
  sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
  n := len(sorted)

  highN := int(math.Ceil(estimateSNRFraction * float64(n)))
  if highN < 1 {
    highN = 1
  }
  meanH, sdH := stat.MeanStdDev(sorted[:highN], nil)
  // sdH is compared relative to meanH itself, not to an absolute
  // epsilon: a perfectly uniform (noiseless) high group has sdH=0, and
  // comparing that against a bare guessEps would make the clamp fire
  // hardest exactly when the estimate is most reliable, collapsing
  // meanH toward guessEps instead of leaving it alone.
  if sdH > guessEps*meanH && meanH > maxMeanToStd*sdH {
    meanH = maxMeanToStd * sdH
  }

  lowFrac := (1 - estimateSNRFraction) / 2
  lowN := int(math.Ceil(lowFrac * float64(n)))
  if lowN < 1 {
    lowN = 1
  }
  meanL, _ := stat.MeanStdDev(sorted[n-lowN:], nil)

  snr := (meanH + guessEps) / (meanL + guessEps)
  if snrOverride > 0 {
    snr = snrOverride
  }

  mus = make([]float64, numNonZero)
  rs = make([]float64, numNonZero)
  for k := 0; k < numNonZero; k++ {
    exp := 0.0
    if numNonZero > 1 {
      exp = float64(k) / float64(numNonZero-1)
    }
    mu := math.Sqrt(meanL * math.Pow(snr, exp))
    variance := v
    if variance < SPAN_HMM_NB_VAR_MEAN_MULTIPLIER*mu {
      variance = SPAN_HMM_NB_VAR_MEAN_MULTIPLIER * mu
    }
    denom := variance - mu
    if denom <= guessEps {
      denom = guessEps
    }
    mus[k] = mu
    rs[k] = mu * mu / denom
  }

  return mus, rs, GuessContext{NoiseMean: meanL, SNR: snr}
}

// multiStartSNR implements spec §4.3-guess step 7: attempt a retries at
// snr0 * m^(floor((a+1)/2)*(-1)^(a+1)), giving the sequence snr0,
// snr0*m, snr0/m, snr0*m^2, snr0/m^2, ...
func multiStartSNR(snr0, m float64, attempt int) float64 {
  half := math.Floor(float64(attempt+1) / 2)
  sign := 1.0
  if (attempt+1)%2 != 0 {
    sign = -1.0
  }
  v := snr0 * math.Pow(m, half*sign)
  return math.Max(snrFloor, v)
}

/* -------------------------------------------------------------------------- */

func uniformLog(k int) []float64 {
  r := make([]float64, k)
  for i := range r {
    r[i] = -math.Log(float64(k))
  }
  return r
}

func canonicalVariant(numStates int, hasZero bool) StateVariant {
  if hasZero {
    switch numStates {
    case 3:
      return StateZLH
    case 4:
      return StateZLMH
    default:
      return StateZLH
    }
  }
  switch numStates {
  case 3:
    return StateLMH
  default:
    return StateLH
  }
}

func flattenY(sequences []TrainingSequence) []int32 {
  var y []int32
  for _, s := range sequences {
    y = append(y, s.Y...)
  }
  return y
}

/* model family constructors (component G)
 * -------------------------------------------------------------------------- */

// newFreeNB builds an uninitialized Free-NB/-NBZ HMM of numStates total
// states (including the Constant(0) state when hasZero is set); its
// emissions carry placeholder parameters until InitFromGuess runs.
func newFreeNB(numStates int, hasZero, sharedFailures bool) *FreeHMM {
  emissions := make([]EmissionScheme, numStates)
  start := 0
  if hasZero {
    emissions[0] = NewConstantEmission(0)
    start = 1
  }
  for i := start; i < numStates; i++ {
    emissions[i] = NewNegBinEmission(float64(i-start+1), 10)
  }
  logA := make([][]float64, numStates)
  for i := range logA {
    logA[i] = uniformLog(numStates)
  }
  return &FreeHMM{
    Variant:        canonicalVariant(numStates, hasZero),
    Emissions:      emissions,
    LogPi:          uniformLog(numStates),
    LogA:           logA,
    SharedFailures: sharedFailures,
  }
}

// NewFreeNBHMM builds the FreeNBHMM family (spec §4.3): K NB states, no
// zero-inflation component, per-state failure counts.
func NewFreeNBHMM(k int) *FreeHMM {
  return newFreeNB(k, false, false)
}

// NewFreeNBZHMM builds the FreeNBZHMM family: a Constant(0) state plus
// K-1 NB states, per-state failure counts. This is the constructor the
// canonical two-state NB2Z model (K=3: Z, L, H) uses.
func NewFreeNBZHMM(k int) *FreeHMM {
  return newFreeNB(k, true, false)
}

// NewLegacyFreeNBHMM reproduces the legacy MLFreeNBHMM contract: all
// non-zero NB states share one pooled failure count.
func NewLegacyFreeNBHMM(k int) *FreeHMM {
  return newFreeNB(k, false, true)
}

// InitFromGuess runs the guessing algorithm of spec §4.3-guess over the
// concatenated training data and installs the resulting NB parameters,
// returning the GuessContext a canonical NB2Z model's runtime guard
// needs.
func (h *FreeHMM) InitFromGuess(sequences []TrainingSequence) GuessContext {
  hasZero := h.Variant.HasZero()
  start := 0
  if hasZero {
    start = 1
  }
  numNonZero := h.numStates() - start
  mus, rs, ctx := guessByData(flattenY(sequences), numNonZero, hasZero, 0)
  for i := 0; i < numNonZero; i++ {
    h.Emissions[start+i] = NewNegBinEmission(mus[i], rs[i])
  }
  return ctx
}

// nb2zGuard builds the runtime guard of spec §4.3: state 1 is LOW,
// state 2 is HIGH. If LOW's mean drifts under the noise floor it is
// reset; if the fitted snr falls under the guess target, HIGH's mean is
// boosted to LOW's mean times that target. Both resets recompute
// failures by the same variance floor the guesser uses.
func nb2zGuard(ctx GuessContext) func(h *FreeHMM) {
  return func(h *FreeHMM) {
    if h.numStates() < 3 {
      return
    }
    low := h.Emissions[1]
    if low.Mu < ctx.NoiseMean {
      low = rebuildNegBin(ctx.NoiseMean)
      h.Emissions[1] = low
    }
    high := h.Emissions[2]
    if high.Mu/low.Mu < ctx.SNR {
      high = rebuildNegBin(low.Mu * ctx.SNR)
      h.Emissions[2] = high
    }
  }
}

func rebuildNegBin(mu float64) EmissionScheme {
  variance := SPAN_HMM_NB_VAR_MEAN_MULTIPLIER * mu
  denom := variance - mu
  if denom <= guessEps {
    denom = guessEps
  }
  r := mu * mu / denom
  return NewNegBinEmission(mu, r)
}

// NewNB2ZHMM builds and initializes the canonical NB2Z model: a
// three-state FreeNBZHMM (Z, L, H) with its guess-derived parameters and
// runtime guard already wired.
func NewNB2ZHMM(sequences []TrainingSequence) *FreeHMM {
  h := newFreeNB(3, true, false)
  ctx := h.InitFromGuess(sequences)
  h.Guard = nb2zGuard(ctx)
  return h
}

/* -------------------------------------------------------------------------- */

// MultiStartSignalToNoise implements spec §4.3-guess step 7: it refits
// the given variant from each snr retry in the documented sequence and
// keeps the model with the highest training log-likelihood. Only the
// canonical StateZLH variant gets the NB2Z runtime guard wired, matching
// §4.3's "canonical NB2Z model" scoping of that guard.
func MultiStartSignalToNoise(sequences []TrainingSequence, variant StateVariant, attempts int, cfg FitConfig) (*FreeHMM, FitResult, error) {
  hasZero := variant.HasZero()
  numStates := variant.NumStates()
  start := 0
  if hasZero {
    start = 1
  }
  numNonZero := numStates - start

  y := flattenY(sequences)
  m, _ := stat.MeanStdDev(toFloat64s(y), nil)
  _, _, ctx0 := guessByData(y, numNonZero, hasZero, 0)

  best := FitResult{LogLikelihood: negInf}
  var bestModel *FreeHMM
  var lastErr error

  for a := 0; a < attempts; a++ {
    snrA := multiStartSNR(ctx0.SNR, m, a)
    mus, rs, ctx := guessByData(y, numNonZero, hasZero, snrA)

    h := newFreeNB(numStates, hasZero, false)
    for i := 0; i < numNonZero; i++ {
      h.Emissions[start+i] = NewNegBinEmission(mus[i], rs[i])
    }
    if variant == StateZLH {
      h.Guard = nb2zGuard(ctx)
    }

    result, err := h.Fit(sequences, cfg)
    if err != nil {
      lastErr = err
      continue
    }
    if result.LogLikelihood > best.LogLikelihood {
      best = result
      bestModel = h
    }
  }

  if bestModel == nil {
    if lastErr == nil {
      lastErr = newError(NumericalFailure, "MultiStartSignalToNoise: every attempt failed")
    }
    return nil, FitResult{}, lastErr
  }
  return bestModel, best, nil
}

func toFloat64s(y []int32) []float64 {
  r := make([]float64, len(y))
  for i, v := range y {
    r[i] = float64(v)
  }
  return r
}

/* -------------------------------------------------------------------------- */

// NewConstrainedNBZHMM builds the differential-analysis model of spec
// §4.3: a ZLHID state set over two replicate dimensions, where the
// shared emission arena holds one Constant(0) scheme plus K' NB schemes
// (one per distinct per-dimension label: L and H), and
// StateDimensionEmissionMap assigns each (state, dimension) pair to the
// scheme matching that dimension's half of the state's two-letter name.
func NewConstrainedNBZHMM() *ConstrainedHMM {
  variant := StateZLHID
  names := variant.Names()
  // shared arena: index 0 = Z, 1 = L, 2 = H
  emissions := []EmissionScheme{
    NewConstantEmission(0),
    NewNegBinEmission(2, 10),
    NewNegBinEmission(20, 10),
  }
  labelToEmission := map[byte]int{'Z': 0, 'L': 1, 'H': 2}

  dimMap := make([][]int, len(names))
  for s, name := range names {
    dimMap[s] = []int{labelToEmission[name[0]], labelToEmission[name[1]]}
  }

  numStates := len(names)
  logA := make([][]float64, numStates)
  for i := range logA {
    logA[i] = uniformLog(numStates)
  }

  return &ConstrainedHMM{
    Variant:                   variant,
    Emissions:                 emissions,
    StateDimensionEmissionMap: dimMap,
    LogPi:                     uniformLog(numStates),
    LogA:                      logA,
  }
}

// InitFromGuess guesses L/H parameters from the pooled, flattened
// observations of both replicate dimensions.
func (h *ConstrainedHMM) InitFromGuess(sequences []MultiTrainingSequence) {
  var y []int32
  for _, s := range sequences {
    for _, dim := range s.Y {
      y = append(y, dim...)
    }
  }
  mus, rs, _ := guessByData(y, 2, true, 0)
  h.Emissions[1] = NewNegBinEmission(mus[0], rs[0])
  h.Emissions[2] = NewNegBinEmission(mus[1], rs[1])
}

/* -------------------------------------------------------------------------- */

// NewNBMixture builds an NB-mixture with a Constant(0) zero-inflation
// component plus numComponents NB components, guessed from the pooled
// training data.
func NewNBMixture(y []int32, numComponents int) *Mixture {
  mus, rs, _ := guessByData(y, numComponents, true, 0)
  emissions := make([]EmissionScheme, numComponents+1)
  emissions[0] = NewConstantEmission(0)
  for i := 0; i < numComponents; i++ {
    emissions[i+1] = NewNegBinEmission(mus[i], rs[i])
  }
  return NewMixture(emissions)
}

// NewRegressionMixture builds a Poisson- or NB-regression mixture (spec
// §4.3/§4.4): one component per covariate-driven emission, each sharing
// the same covariate labels and an intercept-initialized beta.
func NewRegressionMixture(covariateLabels []string, numComponents int, nbNoise bool) *Mixture {
  dim := len(covariateLabels) + 1
  emissions := make([]EmissionScheme, numComponents)
  for i := range emissions {
    beta := make([]float64, dim)
    beta[0] = math.Log(float64(i + 1))
    if nbNoise {
      emissions[i] = EmissionScheme{Kind: EmissionNBRegression, Beta: beta, R: 10, CovariateLabels: covariateLabels}
    } else {
      emissions[i] = EmissionScheme{Kind: EmissionPoissonRegression, Beta: beta, CovariateLabels: covariateLabels}
    }
  }
  return NewMixture(emissions)
}
