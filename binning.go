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

import "github.com/pbenner/threadpool"

/* -------------------------------------------------------------------------- */

// AutoFragment is the sentinel fragment size requesting cross-correlation
// based estimation (spec §3: "fragment size or 'auto'").
const AutoFragment = -1

// BinningConfig bundles the parameters of component A (spec §4.1),
// following the teacher's Option* struct-per-flag convention from
// track_coverage.go but collapsed into one struct since none of these
// need the open OptionXXX{} variadic-options trick: they are always
// set together by the caller that owns a FitInformation.
type BinningConfig struct {
  BinSize  int
  Fragment int // explicit fragment size, or AutoFragment
  Unique   bool
}

/* -------------------------------------------------------------------------- */

// BuildDataFrame implements component A for a single chromosome: it
// turns treatment (and optional control) coverage, plus optional GC and
// mapability covariates, into one DataFrame.
func BuildDataFrame(
  treatment CoverageSource,
  control CoverageSource,
  seq SequenceSource,
  mapability BigWigSource,
  chromosome string,
  length int,
  cfg BinningConfig,
) (*DataFrame, error) {
  if cfg.BinSize <= 0 {
    return nil, newError(InvalidInput, "bin size must be positive")
  }
  grid := NewBinGrid(length, cfg.BinSize)
  n := grid.NumBins()

  fragment := cfg.Fragment
  if fragment == AutoFragment {
    var err error
    fragment, err = EstimateFragmentLength(treatment, chromosome, length, cfg.BinSize)
    if err != nil {
      return nil, err
    }
  }

  df := NewDataFrame(chromosome, n)

  var cerr error
  grid.ForEach(func(i, start, end int) {
    if cerr != nil {
      return
    }
    c, err := treatment.Coverage(chromosome, NewRange(start, end), StrandUnknown, fragment)
    if err != nil {
      cerr = err
      return
    }
    df.Y[i] = int32(c)
  })
  if cerr != nil {
    return nil, cerr
  }

  if control != nil {
    df.Input = make([]float64, n)
    var cerr2 error
    grid.ForEach(func(i, start, end int) {
      if cerr2 != nil {
        return
      }
      c, err := control.Coverage(chromosome, NewRange(start, end), StrandUnknown, fragment)
      if err != nil {
        cerr2 = err
        return
      }
      df.Input[i] = float64(c)
    })
    if cerr2 != nil {
      return nil, cerr2
    }
  }

  if seq != nil {
    gc, err := seq.BinnedMeanCG(chromosome, cfg.BinSize)
    if err != nil {
      return nil, err
    }
    if len(gc) != n {
      return nil, newError(InvalidInput, "SequenceSource returned %d bins for `%s', expected %d", len(gc), chromosome, n)
    }
    df.GC = make([]float64, n)
    df.GC2 = make([]float64, n)
    for i, v := range gc {
      df.GC[i] = v
      df.GC2[i] = v * v
    }
  }

  if mapability != nil {
    m, err := buildMapabilityColumn(mapability, chromosome, length, n)
    if err != nil {
      return nil, err
    }
    df.Mapability = m
  }

  return df, nil
}

// buildMapabilityColumn implements the mapability edge case of spec
// §4.1: a chromosome absent from the BigWig file is filled with the
// genome-wide mean mapability rather than left blank.
func buildMapabilityColumn(mapability BigWigSource, chromosome string, length, n int) ([]float64, error) {
  if !mapability.HasChromosome(chromosome) {
    total, err := mapability.TotalSummary()
    if err != nil {
      return nil, err
    }
    fill := clamp(total.Mean(), 0, 1)
    col := make([]float64, n)
    for i := range col {
      col[i] = fill
    }
    return col, nil
  }
  summaries, err := mapability.Summarize(chromosome, 0, length, n)
  if err != nil {
    return nil, err
  }
  if len(summaries) != n {
    return nil, newError(InvalidInput, "BigWigSource returned %d bins for `%s', expected %d", len(summaries), chromosome, n)
  }
  col := make([]float64, n)
  for i, s := range summaries {
    col[i] = clamp(s.Mean(), 0, 1)
  }
  return col, nil
}

/* -------------------------------------------------------------------------- */

// BuildDataFrames implements component A's parallel region (spec §5.1):
// per-chromosome dataframe construction fanned out across a shared
// work-stealing pool, since chromosomes are independent and the
// CoverageSource contract requires thread safety anyway. Chromosomes
// whose resulting dataframe is entirely zero are dropped (spec §7: "the
// binning layer recovers from per-chromosome empty data by excluding
// the chromosome"); if every chromosome is dropped this way the call
// fails with EmptyCoverage.
func BuildDataFrames(
  query GenomeQuery,
  treatment CoverageSource,
  control CoverageSource,
  seq SequenceSource,
  mapability BigWigSource,
  cfg BinningConfig,
  threads int,
) (map[string]*DataFrame, error) {
  seqnames := query.Seqnames()
  frames := make([]*DataFrame, len(seqnames))
  errs := make([]error, len(seqnames))

  pool := threadpool.New(threads, 100*threads)
  pool.RangeJob(0, len(seqnames), func(i int, pool threadpool.ThreadPool, erf func() error) error {
    name := seqnames[i]
    length, err := query.SeqLength(name)
    if err != nil {
      errs[i] = err
      return nil
    }
    df, err := BuildDataFrame(treatment, control, seq, mapability, name, length, cfg)
    if err != nil {
      errs[i] = err
      return nil
    }
    frames[i] = df
    return nil
  })

  result := make(map[string]*DataFrame, len(seqnames))
  for i, name := range seqnames {
    if errs[i] != nil {
      return nil, errs[i]
    }
    if frames[i].IsEmpty() {
      continue
    }
    result[name] = frames[i]
  }
  if len(result) == 0 {
    return nil, newError(EmptyCoverage, "no chromosome in the query has non-zero treatment coverage")
  }
  return result, nil
}
