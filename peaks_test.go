package span

import (
  "math"
  "testing"
)

// TestComputeBinsCoresAndPeaksMergesOnGap follows the prose description
// of spec §4.5 step 2 directly: two relaxed spans each containing a
// strict core, separated by a gap small enough to merge.
func TestComputeBinsCoresAndPeaksMergesOnGap(t *testing.T) {
  // bins: 0..10, relaxed runs [1,4) and [5,8); strict cores [2,3) and [6,7)
  relaxed := BitSet{false, true, true, true, false, true, true, true, false, false}
  strict := BitSet{false, false, true, false, false, false, true, false, false, false}

  peaks, cores, gaps, err := ComputeBinsCoresAndPeaks(relaxed, strict, 1)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if len(peaks) != 1 {
    t.Fatalf("expected the two spans to merge into one peak (gap=1), got %v", peaks)
  }
  if peaks[0].From != 1 || peaks[0].To != 8 {
    t.Errorf("merged peak = %v, want [1 8)", peaks[0])
  }
  if len(cores[0]) != 2 {
    t.Errorf("merged peak should carry both cores, got %v", cores[0])
  }
  if len(gaps[0]) != 1 || gaps[0][0] != (Range{4, 5}) {
    t.Errorf("merge gap = %v, want a single [4 5) gap", gaps[0])
  }
}

func TestComputeBinsCoresAndPeaksNoMergeWithoutGapBudget(t *testing.T) {
  relaxed := BitSet{false, true, true, true, false, true, true, true, false}
  strict := BitSet{false, false, true, false, false, false, true, false, false}
  peaks, _, _, err := ComputeBinsCoresAndPeaks(relaxed, strict, 0)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if len(peaks) != 2 {
    t.Fatalf("expected two separate peaks with gap=0, got %v", peaks)
  }
}

// TestComputeBinsCoresAndPeaksDropsSpanWithoutCore ensures a relaxed
// span containing no strict core never becomes a peak.
func TestComputeBinsCoresAndPeaksDropsSpanWithoutCore(t *testing.T) {
  relaxed := BitSet{false, true, true, true, false}
  strict := NewBitSet(5)
  peaks, _, _, err := ComputeBinsCoresAndPeaks(relaxed, strict, 0)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if len(peaks) != 0 {
    t.Errorf("a core-less relaxed span should not become a peak, got %v", peaks)
  }
}

func TestComputeBinsCoresAndPeaksRejectsInvariantViolation(t *testing.T) {
  relaxed := BitSet{false, false, false}
  strict := BitSet{true, false, false}
  if _, _, _, err := ComputeBinsCoresAndPeaks(relaxed, strict, 0); err == nil {
    t.Fatal("expected an error when strict is not a subset of relaxed")
  }
}

func TestComputeBitsetsStrictIsSubsetOfRelaxed(t *testing.T) {
  logNullProb := []float64{-5, -0.01, -3, -0.5, -10, -0.02, -0.01}
  cfg := DefaultPeakCallConfig()
  relaxed, strict, _, _ := ComputeBitsets(logNullProb, cfg)
  if !strict.IsSubsetOf(relaxed) {
    t.Fatal("ComputeBitsets must always produce strict subset relaxed")
  }
}

func TestClipPeakWithNoOp(t *testing.T) {
  r := Range{0, 10}
  y := make([]int32, 10)
  got := clipPeakWith(r, y, 0, 0)
  if got != r {
    t.Errorf("clipMaxSignal=clipMaxLength=0 should disable clipping, got %v", got)
  }
}

func TestClipPeakWithShrinksLowSignalEdges(t *testing.T) {
  // signal concentrated in the middle; clipping with a high signal floor
  // should shrink the range toward the high-signal bins.
  y := []int32{0, 0, 1, 50, 50, 1, 0, 0}
  r := Range{0, 8}
  got := clipPeakWith(r, y, 0.9, 0)
  if got.From < 0 || got.To > 8 || got.From >= got.To {
    t.Fatalf("clipped range invalid: %v", got)
  }
  if got.From <= r.From && got.To >= r.To {
    t.Error("clipping with a high signal floor should shrink the range")
  }
}

func TestScorePeakAllEqualQValues(t *testing.T) {
  r := Range{0, 4}
  y := []int32{1, 2, 3, 4}
  q := []float64{0.01, 0.01, 0.01, 0.01}
  cfg := DefaultPeakCallConfig()
  score, pvalue, qvalue, fold, summit := scorePeak(r, y, q, cfg)
  if score <= 0 {
    t.Errorf("score should be positive, got %v", score)
  }
  if pvalue <= 0 || pvalue > 1 {
    t.Errorf("pvalue out of range: %v", pvalue)
  }
  if qvalue != 0.01 {
    t.Errorf("qvalue = %v, want 0.01", qvalue)
  }
  if fold <= 0 {
    t.Errorf("fold change should be positive, got %v", fold)
  }
  if summit != 3 {
    t.Errorf("summit should be the highest-signal bin (index 3), got %d", summit)
  }
}

func TestCallPeaksEndToEndOnSyntheticEnrichment(t *testing.T) {
  n := 100
  y := make([]int32, n)
  logNullProb := make([]float64, n)
  for i := range y {
    if i >= 40 && i < 55 {
      y[i] = 50
      logNullProb[i] = -20
    } else {
      y[i] = 2
      logNullProb[i] = -0.001
    }
  }
  cfg := DefaultPeakCallConfig()
  peaks, err := CallPeaks("chr1", y, logNullProb, 100, cfg)
  if err != nil {
    t.Fatalf("CallPeaks failed: %v", err)
  }
  if len(peaks) != 1 {
    t.Fatalf("expected exactly one called peak over the enriched block, got %d", len(peaks))
  }
  p := peaks[0]
  if p.From > 40 || p.To < 55 {
    t.Errorf("called peak %v does not cover the enriched block [40,55)", p)
  }
  if p.Seqname != "chr1" {
    t.Errorf("Seqname = %q, want chr1", p.Seqname)
  }
}

func TestCallPeaksRejectsLengthMismatch(t *testing.T) {
  if _, err := CallPeaks("chr1", []int32{1, 2}, []float64{-1}, 10, DefaultPeakCallConfig()); err == nil {
    t.Fatal("expected an InvalidInput error for mismatched lengths")
  }
}

func TestCallPeaksRejectsEmptyChromosome(t *testing.T) {
  if _, err := CallPeaks("chr1", nil, nil, 10, DefaultPeakCallConfig()); err == nil {
    t.Fatal("expected an EmptyCoverage error for an empty chromosome")
  }
}

func TestScoreToBED1000Saturates(t *testing.T) {
  if got := scoreToBED1000(1000, 10); got != 1000 {
    t.Errorf("scoreToBED1000 should saturate at 1000, got %d", got)
  }
  if got := scoreToBED1000(5, 10); got != 500 {
    t.Errorf("scoreToBED1000(5, 10) = %d, want 500", got)
  }
}

func TestWriteBEDFormatsOneLinePerPeak(t *testing.T) {
  peaks := []Peak{
    {Seqname: "chr1", From: 10, To: 20, Score: 5, FoldEnrichment: 2, Pvalue: 0.01, Qvalue: 0.02},
  }
  lines := WriteBED(peaks, "peak", 10)
  if len(lines) != 1 {
    t.Fatalf("expected one BED line, got %d", len(lines))
  }
  if math.IsNaN(float64(len(lines[0]))) {
    t.Fatal("sanity check failed")
  }
}
