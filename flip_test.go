package span

import "testing"

func TestFlipMixtureEnforcesOrdering(t *testing.T) {
  m := NewMixture([]EmissionScheme{
    NewNegBinEmission(40, 10), // inverted relative to index
    NewNegBinEmission(4, 10),
  })
  m.Weights = []float64{0.7, 0.3}
  warnings := FlipMixture(m)
  if len(warnings) != 0 {
    t.Errorf("fully inverted pair should swap cleanly without warnings, got %v", warnings)
  }
  if m.Emissions[0].Mu >= m.Emissions[1].Mu {
    t.Errorf("after flipping, component 0 mean should be less than component 1: %v vs %v", m.Emissions[0].Mu, m.Emissions[1].Mu)
  }
  if m.Weights[0] != 0.3 || m.Weights[1] != 0.7 {
    t.Errorf("weights should have been swapped alongside emissions, got %v", m.Weights)
  }
}

func TestFlipMixtureLeavesOrderedModelUntouched(t *testing.T) {
  m := NewMixture([]EmissionScheme{
    NewNegBinEmission(4, 10),
    NewNegBinEmission(40, 10),
  })
  FlipMixture(m)
  if m.Emissions[0].Mu != 4 || m.Emissions[1].Mu != 40 {
    t.Errorf("already-ordered mixture should be unchanged, got %v / %v", m.Emissions[0].Mu, m.Emissions[1].Mu)
  }
}

func TestFlipConstrainedHMMSwapsSharedSchemesPerDimension(t *testing.T) {
  h := NewConstrainedNBZHMM()
  // deliberately invert the shared L/H schemes in the arena.
  h.Emissions[1] = NewNegBinEmission(40, 10) // labelled "L" but now the high one
  h.Emissions[2] = NewNegBinEmission(4, 10)  // labelled "H" but now the low one

  warnings := FlipConstrainedHMM(h, 2)
  if len(warnings) != 0 {
    t.Errorf("fully inverted shared schemes should swap without warnings, got %v", warnings)
  }
  if h.Emissions[1].Mu >= h.Emissions[2].Mu {
    t.Errorf("after flipping, scheme 1 mean should be less than scheme 2: %v vs %v", h.Emissions[1].Mu, h.Emissions[2].Mu)
  }
}

func TestFlipConstrainedHMMLeavesOrderedArenaUntouched(t *testing.T) {
  h := NewConstrainedNBZHMM()
  FlipConstrainedHMM(h, 2)
  if h.Emissions[1].Mu != 2 || h.Emissions[2].Mu != 20 {
    t.Errorf("already-ordered arena should be unchanged, got %v / %v", h.Emissions[1].Mu, h.Emissions[2].Mu)
  }
}
