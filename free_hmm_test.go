package span

import (
  "math"
  "testing"
)

func syntheticTwoStateSequence() TrainingSequence {
  var y []int32
  for b := 0; b < 5; b++ {
    for i := 0; i < 20; i++ {
      y = append(y, 2)
    }
    for i := 0; i < 10; i++ {
      y = append(y, 40)
    }
  }
  return TrainingSequence{Seqname: "chr1", Y: y}
}

func TestFreeHMMFitConverges(t *testing.T) {
  h := NewFreeNBHMM(2)
  seq := syntheticTwoStateSequence()
  result, err := h.Fit([]TrainingSequence{seq}, DefaultFitConfig())
  if err != nil {
    t.Fatalf("Fit failed: %v", err)
  }
  if math.IsNaN(result.LogLikelihood) || math.IsInf(result.LogLikelihood, 0) {
    t.Fatalf("non-finite log-likelihood: %v", result.LogLikelihood)
  }
}

func TestFreeHMMFitEmptySequences(t *testing.T) {
  h := NewFreeNBHMM(2)
  if _, err := h.Fit(nil, DefaultFitConfig()); err == nil {
    t.Fatal("expected an EmptyCoverage error for no training sequences")
  }
  if _, err := h.Fit([]TrainingSequence{{Seqname: "chr1"}}, DefaultFitConfig()); err == nil {
    t.Fatal("expected an EmptyCoverage error for an empty sequence")
  }
}

func TestFreeHMMZeroStateNeverUpdates(t *testing.T) {
  h := NewFreeNBZHMM(3)
  seq := TrainingSequence{Seqname: "chr1", Y: []int32{0, 0, 0, 3, 5, 4, 0, 0, 20, 22, 0, 0}}
  if _, err := h.Fit([]TrainingSequence{seq}, DefaultFitConfig()); err != nil {
    t.Fatalf("Fit failed: %v", err)
  }
  if h.Emissions[0].Kind != EmissionConstant || h.Emissions[0].ConstantValue != 0 {
    t.Errorf("state 0 should remain Constant(0), got %+v", h.Emissions[0])
  }
}

// TestFlipFreeHMMEnforcesOrdering covers spec §4.3/§8's state-ordering
// invariant: when a fit leaves mean and p both inverted between two NB
// states, FlipFreeHMM must swap them back into order.
func TestFlipFreeHMMEnforcesOrdering(t *testing.T) {
  h := &FreeHMM{
    Variant: StateLH,
    Emissions: []EmissionScheme{
      NewNegBinEmission(40, 10), // higher mean, higher p -- "out of order" for index 0
      NewNegBinEmission(4, 10),
    },
    LogPi: uniformLog(2),
    LogA:  [][]float64{uniformLog(2), uniformLog(2)},
  }
  warnings := FlipFreeHMM(h)
  if len(warnings) != 0 {
    t.Errorf("fully inverted pair should swap cleanly without warnings, got %v", warnings)
  }
  if h.Emissions[0].Mu >= h.Emissions[1].Mu {
    t.Errorf("after flipping, state 0 mean should be less than state 1 mean: %v vs %v", h.Emissions[0].Mu, h.Emissions[1].Mu)
  }
}

func TestFlipFreeHMMLeavesOrderedModelUntouched(t *testing.T) {
  h := &FreeHMM{
    Variant: StateLH,
    Emissions: []EmissionScheme{
      NewNegBinEmission(4, 10),
      NewNegBinEmission(40, 10),
    },
    LogPi: uniformLog(2),
    LogA:  [][]float64{uniformLog(2), uniformLog(2)},
  }
  FlipFreeHMM(h)
  if h.Emissions[0].Mu != 4 || h.Emissions[1].Mu != 40 {
    t.Errorf("already-ordered model should be unchanged, got %v / %v", h.Emissions[0].Mu, h.Emissions[1].Mu)
  }
}

func TestFreeHMMViterbiLengthMatchesSequence(t *testing.T) {
  h := NewFreeNBHMM(2)
  seq := syntheticTwoStateSequence()
  path := h.Viterbi(seq)
  if len(path) != len(seq.Y) {
    t.Fatalf("Viterbi path length = %d, want %d", len(path), len(seq.Y))
  }
  for _, s := range path {
    if s < 0 || s >= h.numStates() {
      t.Fatalf("Viterbi path contains out-of-range state %d", s)
    }
  }
}
