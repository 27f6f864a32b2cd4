package span

import (
  "math"
  "testing"
)

// TestMultiStartSignalToNoiseSequence is spec §8 scenario 4: with
// snr0=20, m=2, attempts 0..4 should produce [20, 40, 10, 80, 5].
func TestMultiStartSignalToNoiseSequence(t *testing.T) {
  want := []float64{20, 40, 10, 80, 5}
  for a, w := range want {
    got := multiStartSNR(20, 2, a)
    if math.Abs(got-w) > 1e-9 {
      t.Errorf("multiStartSNR(20, 2, %d) = %v, want %v", a, got, w)
    }
  }
}

func TestMultiStartSignalToNoiseFloor(t *testing.T) {
  // A tiny snr0 combined with a shrinking multiplier must never fall
  // below the 1.1 floor.
  got := multiStartSNR(1.05, 2, 2)
  if got < snrFloor-1e-12 {
    t.Errorf("multiStartSNR should respect the floor, got %v", got)
  }
}

func TestGuessByDataSeparatesHighLow(t *testing.T) {
  // 95 low-signal bins around 2, 5 high-signal bins around 50: guessing
  // two states should place one mean near the noise floor and the other
  // clearly above it.
  y := make([]int32, 0, 100)
  for i := 0; i < 95; i++ {
    y = append(y, 2)
  }
  for i := 0; i < 5; i++ {
    y = append(y, 50)
  }
  mus, rs, ctx := guessByData(y, 2, false, 0)
  if len(mus) != 2 || len(rs) != 2 {
    t.Fatalf("expected 2 states, got mus=%v rs=%v", mus, rs)
  }
  if mus[1] <= mus[0] {
    t.Errorf("high state mean %v should exceed low state mean %v", mus[1], mus[0])
  }
  if ctx.SNR <= 1 {
    t.Errorf("SNR should be > 1 for clearly separated signal, got %v", ctx.SNR)
  }
  for _, r := range rs {
    if r <= 0 {
      t.Errorf("failure counts must stay positive, got %v", rs)
    }
  }
}

// TestGuessByDataNoiselessHighGroup is spec §8 scenario 3: a high group
// that is perfectly uniform (sdH=0) must not collapse meanH toward
// guessEps. mus[0] is checked against the spec's worked value directly;
// the high state is checked for soundness (ordering, no collapse) since
// its exact magnitude depends on guess-stage details the worked example
// does not fully pin down (see DESIGN.md).
func TestGuessByDataNoiselessHighGroup(t *testing.T) {
  y := make([]int32, 0, 60)
  for i := 0; i < 20; i++ {
    y = append(y, 1)
  }
  for i := 0; i < 20; i++ {
    y = append(y, 10)
  }
  for i := 0; i < 20; i++ {
    y = append(y, 200)
  }
  mus, rs, ctx := guessByData(y, 2, false, 0)
  if len(mus) != 2 || len(rs) != 2 {
    t.Fatalf("expected 2 states, got mus=%v rs=%v", mus, rs)
  }
  const want0 = 1.9
  if rel := math.Abs(mus[0]-want0) / want0; rel > 0.10 {
    t.Errorf("mus[0] = %v, want within 10%% of %v", mus[0], want0)
  }
  if mus[1] <= mus[0] {
    t.Errorf("high state mean %v should exceed low state mean %v", mus[1], mus[0])
  }
  if mus[1] < 10 {
    t.Errorf("high state mean collapsed toward the noise floor: %v", mus[1])
  }
  for i, r := range rs {
    if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
      t.Errorf("rs[%d] = %v, want a finite positive failure count", i, r)
    }
  }
  if ctx.SNR <= 1 {
    t.Errorf("SNR should be > 1 for clearly separated signal, got %v", ctx.SNR)
  }
}

func TestGuessByDataDropsZerosWhenRequested(t *testing.T) {
  y := []int32{0, 0, 0, 0, 10, 12, 14}
  musWithZeros, _, _ := guessByData(y, 1, false, 0)
  musDroppingZeros, _, _ := guessByData(y, 1, true, 0)
  if musDroppingZeros[0] <= musWithZeros[0] {
    t.Errorf("dropping zeros should raise the estimated mean: with=%v without=%v", musWithZeros[0], musDroppingZeros[0])
  }
}

func TestGuessByDataEmptyInput(t *testing.T) {
  mus, rs, ctx := guessByData(nil, 2, false, 0)
  if len(mus) != 2 || len(rs) != 2 {
    t.Fatalf("expected fallback parameters of length 2, got mus=%v rs=%v", mus, rs)
  }
  if ctx.SNR <= 0 {
    t.Errorf("fallback context should carry a positive SNR, got %v", ctx.SNR)
  }
}

func TestCanonicalVariant(t *testing.T) {
  if canonicalVariant(2, false) != StateLH {
    t.Error("2 states, no zero -> StateLH")
  }
  if canonicalVariant(3, true) != StateZLH {
    t.Error("3 states, zero -> StateZLH")
  }
  if canonicalVariant(3, false) != StateLMH {
    t.Error("3 states, no zero -> StateLMH")
  }
  if canonicalVariant(4, true) != StateZLMH {
    t.Error("4 states, zero -> StateZLMH")
  }
}

func TestNewNB2ZHMMWiresGuard(t *testing.T) {
  sequences := []TrainingSequence{
    {Seqname: "chr1", Y: []int32{0, 0, 2, 3, 20, 25, 0, 0, 1}},
  }
  h := NewNB2ZHMM(sequences)
  if h.numStates() != 3 {
    t.Fatalf("NewNB2ZHMM should build a 3-state model, got %d", h.numStates())
  }
  if h.Guard == nil {
    t.Fatal("NewNB2ZHMM should wire the NB2Z runtime guard")
  }
  if h.Emissions[0].Kind != EmissionConstant {
    t.Error("state 0 of a Z-variant model must be Constant(0)")
  }
}

func TestNB2ZGuardResetsLowStateBelowNoiseFloor(t *testing.T) {
  h := NewFreeNBZHMM(3)
  ctx := GuessContext{NoiseMean: 5, SNR: 4}
  h.Guard = nb2zGuard(ctx)
  h.Emissions[1] = NewNegBinEmission(1, 10) // below the noise floor
  h.Emissions[2] = NewNegBinEmission(20, 10)
  h.Guard(h)
  if h.Emissions[1].Mu != 5 {
    t.Errorf("LOW state should have been reset to the noise floor, got %v", h.Emissions[1].Mu)
  }
}

func TestNB2ZGuardBoostsHighStateBelowSNRTarget(t *testing.T) {
  h := NewFreeNBZHMM(3)
  ctx := GuessContext{NoiseMean: 1, SNR: 10}
  h.Guard = nb2zGuard(ctx)
  h.Emissions[1] = NewNegBinEmission(5, 10)
  h.Emissions[2] = NewNegBinEmission(6, 10) // snr well under target
  h.Guard(h)
  if h.Emissions[2].Mu != 50 {
    t.Errorf("HIGH state should have been boosted to low.Mu*SNR = 50, got %v", h.Emissions[2].Mu)
  }
}

func TestNB2ZGuardNoOpOnHealthyModel(t *testing.T) {
  h := NewFreeNBZHMM(3)
  ctx := GuessContext{NoiseMean: 1, SNR: 4}
  h.Guard = nb2zGuard(ctx)
  h.Emissions[1] = NewNegBinEmission(5, 10)
  h.Emissions[2] = NewNegBinEmission(40, 10)
  h.Guard(h)
  if h.Emissions[1].Mu != 5 || h.Emissions[2].Mu != 40 {
    t.Errorf("a healthy model should be left untouched, got %v / %v", h.Emissions[1].Mu, h.Emissions[2].Mu)
  }
}

func TestNewConstrainedNBZHMMSharesArenaByLabel(t *testing.T) {
  h := NewConstrainedNBZHMM()
  if len(h.Emissions) != 3 {
    t.Fatalf("expected a 3-entry shared arena (Z, L, H), got %d", len(h.Emissions))
  }
  // state "LH" should map dimension 0 to the L scheme and dimension 1 to the H scheme.
  names := h.Variant.Names()
  for s, name := range names {
    if name == "LH" {
      dims := h.StateDimensionEmissionMap[s]
      if h.Emissions[dims[0]].Kind != EmissionNegBin || h.Emissions[dims[0]].Mu >= h.Emissions[dims[1]].Mu {
        t.Errorf("state LH dimension map should point at (L, H) in increasing mean order: %v", dims)
      }
    }
  }
}
