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

import "fmt"
import "math"
import "sort"

/* -------------------------------------------------------------------------- */

// PeakCallConfig holds the user-facing knobs of the posterior-to-peaks
// engine (spec §4.5).
type PeakCallConfig struct {
  FDR                 float64 // strict-bitset threshold on q-value
  SensitivityLog      float64 // relaxed-bitset threshold on log-null-probability
  Gap                 int     // max non-relaxed bins between merged spans
  ClipMaxSignal       float64 // stop clipping once remaining signal drops below this fraction of the original
  ClipMaxLength       float64 // stop clipping once remaining length drops below this fraction of the original
  ScoreBlocksFraction float64 // fraction of top-signal bins used for scoring
  ScoreBlocksGap      int     // not read by scorePeak: kept bins are scored individually, not grouped into gap-separated blocks
}

// DefaultPeakCallConfig matches the production defaults named in spec
// §4.5.
func DefaultPeakCallConfig() PeakCallConfig {
  return PeakCallConfig{
    FDR:                 0.05,
    SensitivityLog:      math.Log(0.05),
    Gap:                 0,
    ClipMaxSignal:       0,
    ClipMaxLength:       0,
    ScoreBlocksFraction: 0.5,
    ScoreBlocksGap:      0,
  }
}

/* -------------------------------------------------------------------------- */

// Peak is one called peak (spec §4.5/§6): Cores and Gaps record the
// strict-enriched runs and the merge-introduced non-relaxed runs that
// make up the peak's interior, in chromosome-bin coordinates.
type Peak struct {
  Seqname        string
  From, To       int // bin-index range, half-open
  Cores          []Range
  Gaps           []Range
  AbsSummit      int
  Pvalue         float64
  Qvalue         float64
  Score          float64
  FoldEnrichment float64
}

/* -------------------------------------------------------------------------- */

// CheckRelaxedStrictInvariant enforces spec §8's precondition that the
// strict bitset is a subset of the relaxed bitset.
func CheckRelaxedStrictInvariant(relaxed, strict BitSet) error {
  if relaxed.Len() != strict.Len() {
    return newError(InvalidInput, "CheckRelaxedStrictInvariant(): bitset length mismatch: %d vs %d", relaxed.Len(), strict.Len())
  }
  if !strict.IsSubsetOf(relaxed) {
    return newError(InvariantViolation, "CheckRelaxedStrictInvariant(): strict bitset is not a subset of relaxed")
  }
  return nil
}

// ComputeBitsets derives the relaxed and strict bitsets of spec §4.5
// from per-bin log-null-probabilities: relaxed uses the raw log
// threshold (sensitivity), strict uses the BH-adjusted q-value against
// fdr. Strict bins are folded into relaxed explicitly so the §8
// `strict ⊆ relaxed` invariant holds by construction regardless of how
// the caller's (fdr, sensitivity) pair relates.
func ComputeBitsets(logNullProb []float64, cfg PeakCallConfig) (relaxed, strict BitSet, pvalues, qvalues []float64) {
  n := len(logNullProb)
  pvalues = make([]float64, n)
  for i, lp := range logNullProb {
    pvalues[i] = math.Exp(lp)
  }
  qvalues = BenjaminiHochberg(pvalues)

  relaxed = NewBitSet(n)
  strict = NewBitSet(n)
  for i := 0; i < n; i++ {
    strict[i] = qvalues[i] <= cfg.FDR
    relaxed[i] = logNullProb[i] <= cfg.SensitivityLog || strict[i]
  }
  return relaxed, strict, pvalues, qvalues
}

/* -------------------------------------------------------------------------- */

// ComputeBinsCoresAndPeaks implements spec §4.5 step 2: contiguous
// relaxed runs are candidate spans; a span survives iff it contains at
// least one maximal strict run (a core); surviving spans separated by
// at most gap non-relaxed bins are merged, and the intervening bins
// become gaps of the merged peak.
func ComputeBinsCoresAndPeaks(relaxed, strict BitSet, gap int) (peaks []Range, cores [][]Range, gaps [][]Range, err error) {
  if err := CheckRelaxedStrictInvariant(relaxed, strict); err != nil {
    return nil, nil, nil, err
  }

  type span struct {
    r     Range
    cores []Range
  }
  var survivors []span
  for _, r := range relaxed.Runs() {
    var spanCores []Range
    for _, c := range strict.Runs() {
      if c.From >= r.From && c.To <= r.To {
        spanCores = append(spanCores, c)
      }
    }
    if len(spanCores) > 0 {
      survivors = append(survivors, span{r: r, cores: spanCores})
    }
  }

  for _, s := range survivors {
    if len(peaks) > 0 && s.r.From-peaks[len(peaks)-1].To <= gap {
      last := len(peaks) - 1
      gaps[last] = append(gaps[last], Range{From: peaks[last].To, To: s.r.From})
      peaks[last].To = s.r.To
      cores[last] = append(cores[last], s.cores...)
      continue
    }
    peaks = append(peaks, s.r)
    cores = append(cores, append([]Range{}, s.cores...))
    gaps = append(gaps, []Range{})
  }

  return peaks, cores, gaps, nil
}

/* -------------------------------------------------------------------------- */

// clipPeakWith implements spec §4.5 step 3: shrink both boundaries
// inward one bin at a time while the remaining signal stays at or above
// clipMaxSignal*originalSignal and the remaining length stays at or
// above clipMaxLength*originalLength.
func clipPeakWith(r Range, y []int32, clipMaxSignal, clipMaxLength float64) Range {
  if clipMaxSignal <= 0 && clipMaxLength <= 0 {
    return r
  }
  originalSignal := sumY(y, r.From, r.To)
  originalLength := float64(r.To - r.From)
  if originalSignal == 0 || originalLength == 0 {
    return r
  }

  from, to := r.From, r.To
  for from < to-1 {
    signal := sumY(y, from+1, to)
    length := float64(to - from - 1)
    if float64(signal) < clipMaxSignal*float64(originalSignal) {
      break
    }
    if length < clipMaxLength*originalLength {
      break
    }
    from++
  }
  for to > from+1 {
    signal := sumY(y, from, to-1)
    length := float64(to - 1 - from)
    if float64(signal) < clipMaxSignal*float64(originalSignal) {
      break
    }
    if length < clipMaxLength*originalLength {
      break
    }
    to--
  }
  return Range{From: from, To: to}
}

func sumY(y []int32, from, to int) int64 {
  var s int64
  for i := from; i < to; i++ {
    s += int64(y[i])
  }
  return s
}

/* -------------------------------------------------------------------------- */

// scorePeak implements spec §4.5 step 4: rank the peak's bins by
// signal, keep the top scoreBlocksFraction of them as score blocks, and
// sum -log(q) over the kept bins. When two candidate top blocks tie at
// the fraction cutoff, the earlier (lower-index) one is kept, per §9's
// open question on overlapping top blocks.
func scorePeak(r Range, y []int32, qvalues []float64, cfg PeakCallConfig) (score, pvalue, qvalue, foldChange float64, absSummit int) {
  n := r.To - r.From
  if n <= 0 {
    return 0, 1, 1, 0, r.From
  }
  idx := make([]int, n)
  for i := range idx {
    idx[i] = r.From + i
  }
  sort.Slice(idx, func(a, b int) bool {
    if y[idx[a]] != y[idx[b]] {
      return y[idx[a]] > y[idx[b]]
    }
    return idx[a] < idx[b]
  })

  absSummit = idx[0]
  qvalue = 1
  for _, i := range idx {
    if qvalues[i] < qvalue {
      qvalue = qvalues[i]
    }
  }

  budget := int(math.Ceil(cfg.ScoreBlocksFraction * float64(n)))
  if budget < 1 {
    budget = 1
  }
  kept := append([]int{}, idx[:budget]...)
  sort.Ints(kept)

  var sumNegLogQ float64
  var sumSignal, totalSignal int64
  for _, i := range kept {
    q := qvalues[i]
    if q < 1e-300 {
      q = 1e-300
    }
    sumNegLogQ += -math.Log(q)
    sumSignal += int64(y[i])
  }
  totalSignal = sumY(y, r.From, r.To)

  score = sumNegLogQ
  if totalSignal > 0 {
    foldChange = float64(sumSignal) / float64(totalSignal) * float64(n)
  }
  pvalue = 1
  if len(kept) > 0 {
    pvalue = math.Exp(-sumNegLogQ / float64(len(kept)))
  }
  return score, pvalue, qvalue, foldChange, absSummit
}

/* -------------------------------------------------------------------------- */

// CallPeaks is the posterior-to-peaks engine's entry point (spec §4.5):
// given per-bin log-null-probabilities and raw signal for one
// chromosome, it derives bitsets, spans/cores/gaps, clips, scores, and
// returns peaks sorted by start (ties by end).
func CallPeaks(seqname string, y []int32, logNullProb []float64, binSize int, cfg PeakCallConfig) ([]Peak, error) {
  if len(y) == 0 {
    return nil, newError(EmptyCoverage, "CallPeaks(): empty chromosome `%s'", seqname)
  }
  if len(y) != len(logNullProb) {
    return nil, newError(InvalidInput, "CallPeaks(): y/logNullProb length mismatch")
  }

  relaxed, strict, _, qvalues := ComputeBitsets(logNullProb, cfg)
  spans, cores, gaps, err := ComputeBinsCoresAndPeaks(relaxed, strict, cfg.Gap)
  if err != nil {
    return nil, err
  }

  peaks := make([]Peak, 0, len(spans))
  for i, r := range spans {
    clipped := clipPeakWith(r, y, cfg.ClipMaxSignal, cfg.ClipMaxLength)
    score, pvalue, qvalue, foldChange, summit := scorePeak(clipped, y, qvalues, cfg)
    peaks = append(peaks, Peak{
      Seqname:        seqname,
      From:           clipped.From,
      To:             clipped.To,
      Cores:          cores[i],
      Gaps:           gaps[i],
      AbsSummit:      summit*binSize + binSize/2,
      Pvalue:         pvalue,
      Qvalue:         qvalue,
      Score:          score,
      FoldEnrichment: foldChange,
    })
  }

  sort.Slice(peaks, func(a, b int) bool {
    if peaks[a].From != peaks[b].From {
      return peaks[a].From < peaks[b].From
    }
    return peaks[a].To < peaks[b].To
  })

  return peaks, nil
}

/* -------------------------------------------------------------------------- */

// scoreToBED1000 rescales a raw -log(q) score onto BED's [0,1000] range
// (spec §6): a score at or above capScore saturates to 1000.
func scoreToBED1000(score, capScore float64) int {
  if capScore <= 0 {
    return 0
  }
  v := int(score / capScore * 1000)
  if v > 1000 {
    v = 1000
  }
  if v < 0 {
    v = 0
  }
  return v
}

// WriteBED formats peaks as the tab-separated BED record of spec §6:
// chrom, start, end, name, score, strand, foldChange, -log10(p), -log10(q).
func WriteBED(peaks []Peak, namePrefix string, capScore float64) []string {
  lines := make([]string, len(peaks))
  for i, p := range peaks {
    name := fmt.Sprintf("%s_%d", namePrefix, i+1)
    lines[i] = fmt.Sprintf("%s\t%d\t%d\t%s\t%d\t.\t%f\t%f\t%f",
      p.Seqname, p.From, p.To, name,
      scoreToBED1000(p.Score, capScore),
      p.FoldEnrichment,
      -math.Log10(math.Max(p.Pvalue, 1e-300)),
      -math.Log10(math.Max(p.Qvalue, 1e-300)))
  }
  return lines
}
