package span

import (
  "math"
  "testing"
)

func TestMixtureFitSeparatesTwoComponents(t *testing.T) {
  emissions := []EmissionScheme{
    NewNegBinEmission(3, 10),
    NewNegBinEmission(30, 10),
  }
  m := NewMixture(emissions)

  y := make([]int32, 0, 200)
  for i := 0; i < 150; i++ {
    y = append(y, 3)
  }
  for i := 0; i < 50; i++ {
    y = append(y, 30)
  }

  result, err := m.Fit(MixtureTrainingData{Y: y}, DefaultFitConfig())
  if err != nil {
    t.Fatalf("Fit failed: %v", err)
  }
  if math.IsInf(result.LogLikelihood, -1) || math.IsNaN(result.LogLikelihood) {
    t.Fatalf("Fit produced a non-finite log-likelihood: %v", result.LogLikelihood)
  }
  if m.Emissions[1].Mu <= m.Emissions[0].Mu {
    t.Errorf("high component mean %v should exceed low component mean %v", m.Emissions[1].Mu, m.Emissions[0].Mu)
  }
  sum := m.Weights[0] + m.Weights[1]
  if math.Abs(sum-1) > 1e-6 {
    t.Errorf("weights should sum to 1, got %v", sum)
  }
}

func TestMixtureFitEmptyData(t *testing.T) {
  m := NewMixture([]EmissionScheme{NewNegBinEmission(1, 10)})
  if _, err := m.Fit(MixtureTrainingData{}, DefaultFitConfig()); err == nil {
    t.Fatal("expected an EmptyCoverage error on empty training data")
  } else if e, ok := err.(*Error); !ok || e.Kind != EmptyCoverage {
    t.Errorf("expected EmptyCoverage, got %v", err)
  }
}

func TestMixtureFitUpdatesNBRegressionComponent(t *testing.T) {
  // One NB-regression component driven by a single covariate; the
  // generative slope is positive (counts grow with x), so the IRLS
  // M-step should move beta's slope entry the same direction and leave
  // r finite and positive.
  labels := []string{"x"}
  m := NewMixture([]EmissionScheme{
    NewNBRegressionEmission([]float64{0, 0}, 10, labels),
  })
  x := [][]float64{{0}, {0}, {1}, {1}, {2}, {2}, {3}, {3}, {4}, {4}}
  y := []int32{1, 2, 3, 4, 8, 7, 20, 18, 55, 50}

  result, err := m.Fit(MixtureTrainingData{Y: y, X: x}, DefaultFitConfig())
  if err != nil {
    t.Fatalf("Fit failed: %v", err)
  }
  if math.IsNaN(result.LogLikelihood) || math.IsInf(result.LogLikelihood, 0) {
    t.Fatalf("non-finite log-likelihood: %v", result.LogLikelihood)
  }
  comp := m.Emissions[0]
  if comp.Kind != EmissionNBRegression {
    t.Fatalf("component kind changed during Fit: %v", comp.Kind)
  }
  if comp.Beta[1] <= 0 {
    t.Errorf("slope should be positive for increasing counts, got %v", comp.Beta[1])
  }
  if comp.R <= 0 || math.IsNaN(comp.R) || math.IsInf(comp.R, 0) {
    t.Errorf("failure count should stay finite and positive, got %v", comp.R)
  }
}

func TestMixtureConstantComponentNeverUpdates(t *testing.T) {
  m := NewMixture([]EmissionScheme{
    NewConstantEmission(0),
    NewNegBinEmission(10, 10),
  })
  y := []int32{0, 0, 0, 10, 12, 9, 0, 0, 11}
  if _, err := m.Fit(MixtureTrainingData{Y: y}, DefaultFitConfig()); err != nil {
    t.Fatalf("Fit failed: %v", err)
  }
  if m.Emissions[0].Kind != EmissionConstant || m.Emissions[0].ConstantValue != 0 {
    t.Errorf("Constant(0) component should never change, got %+v", m.Emissions[0])
  }
}

func TestMixturePosteriorRowsAreLogProbabilities(t *testing.T) {
  m := NewMixture([]EmissionScheme{
    NewNegBinEmission(3, 10),
    NewNegBinEmission(30, 10),
  })
  post := m.Posterior(MixtureTrainingData{Y: []int32{3, 30}})
  for _, row := range post {
    sum := 0.0
    for _, lp := range row {
      sum += math.Exp(lp)
    }
    if math.Abs(sum-1) > 1e-6 {
      t.Errorf("posterior row should sum to 1 in linear space, got %v", sum)
    }
  }
}
