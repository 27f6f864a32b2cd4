package span

import "testing"

func TestDataFrameHasColumnFlags(t *testing.T) {
  df := NewDataFrame("chr1", 3)
  if df.HasInput() || df.HasGC() || df.HasMapability() {
    t.Error("a freshly allocated dataframe should have no optional columns")
  }
  df.Input = []float64{1, 2, 3}
  df.GC = []float64{0.1, 0.2, 0.3}
  df.GC2 = []float64{0.01, 0.04, 0.09}
  df.Mapability = []float64{0.5, 0.5, 0.5}
  if !df.HasInput() || !df.HasGC() || !df.HasMapability() {
    t.Error("all optional columns should now be present")
  }
}

func TestDataFrameCovariateLabelsOrder(t *testing.T) {
  df := NewDataFrame("chr1", 2)
  df.Input = []float64{1, 2}
  df.GC = []float64{0.1, 0.2}
  df.GC2 = []float64{0.01, 0.04}
  df.Mapability = []float64{0.5, 0.5}
  want := []string{"input", "GC", "GC2", "mapability"}
  got := df.CovariateLabels()
  if len(got) != len(want) {
    t.Fatalf("CovariateLabels() = %v, want %v", got, want)
  }
  for i := range want {
    if got[i] != want[i] {
      t.Errorf("CovariateLabels()[%d] = %q, want %q", i, got[i], want[i])
    }
  }
}

func TestDataFrameCovariateMissingColumnErrors(t *testing.T) {
  df := NewDataFrame("chr1", 2)
  if _, err := df.Covariate("input"); err == nil {
    t.Error("expected an error requesting an absent input column")
  }
  if _, err := df.Covariate("unknown"); err == nil {
    t.Error("expected an error for an unknown covariate label")
  }
}

func TestDataFrameCovariateYConvertsToFloat(t *testing.T) {
  df := NewDataFrame("chr1", 3)
  df.Y = []int32{1, 2, 3}
  y, err := df.Covariate("y")
  if err != nil {
    t.Fatalf("Covariate(\"y\") failed: %v", err)
  }
  if y[0] != 1 || y[1] != 2 || y[2] != 3 {
    t.Errorf("Covariate(\"y\") = %v, want [1 2 3]", y)
  }
}

func TestDataFrameIsEmpty(t *testing.T) {
  df := NewDataFrame("chr1", 3)
  if !df.IsEmpty() {
    t.Error("all-zero dataframe should be empty")
  }
  df.Y[1] = 5
  if df.IsEmpty() {
    t.Error("dataframe with a non-zero bin should not be empty")
  }
}

func TestDataFrameTotals(t *testing.T) {
  df := NewDataFrame("chr1", 3)
  df.Y = []int32{1, 2, 3}
  df.Input = []float64{0.5, 0.5, 1}
  if df.TotalY() != 6 {
    t.Errorf("TotalY() = %d, want 6", df.TotalY())
  }
  if df.TotalInput() != 2 {
    t.Errorf("TotalInput() = %v, want 2", df.TotalInput())
  }
}
