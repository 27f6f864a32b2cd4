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

// DataFrame is the named, column-oriented table produced by the binning
// layer (spec §3): one row per bin of a single chromosome. Y is
// required; the remaining columns are present only when the
// corresponding input (control track, sequence index, mapability
// BigWig) was supplied, matching the teacher's optional-meta-column
// convention in meta.go but with a fixed, typed column set rather than
// an open interface{} bag, since SPAN never needs arbitrary columns.
type DataFrame struct {
  Seqname string
  // Y is the treatment coverage per bin (required).
  Y []int32
  // Input is control coverage per bin; nil unless a control track
  // was provided.
  Input []float64
  // GC and GC2 are mean CpG fraction and its square per bin; nil
  // unless a sequence index was provided.
  GC  []float64
  GC2 []float64
  // Mapability is mean mapability signal per bin, clamped to [0,1];
  // nil unless a BigWig mapability track was provided.
  Mapability []float64
}

// NewDataFrame allocates an empty dataframe with n rows of Y, all other
// columns left nil until populated.
func NewDataFrame(seqname string, n int) *DataFrame {
  return &DataFrame{Seqname: seqname, Y: make([]int32, n)}
}

// NumRows returns the row count, equal to the chromosome's bin count.
func (df *DataFrame) NumRows() int {
  return len(df.Y)
}

// HasInput reports whether the control column is present.
func (df *DataFrame) HasInput() bool {
  return df.Input != nil
}

// HasGC reports whether the GC covariate columns are present.
func (df *DataFrame) HasGC() bool {
  return df.GC != nil && df.GC2 != nil
}

// HasMapability reports whether the mapability column is present.
func (df *DataFrame) HasMapability() bool {
  return df.Mapability != nil
}

// CovariateLabels lists the optional columns present on df, in the
// canonical order used to build GLM design matrices (spec §4.4's
// covariateLabels).
func (df *DataFrame) CovariateLabels() []string {
  labels := []string{}
  if df.HasInput() {
    labels = append(labels, "input")
  }
  if df.HasGC() {
    labels = append(labels, "GC", "GC2")
  }
  if df.HasMapability() {
    labels = append(labels, "mapability")
  }
  return labels
}

// Covariate returns the named column as a float64 slice, or an error if
// the column is not present. Y is converted on the fly.
func (df *DataFrame) Covariate(label string) ([]float64, error) {
  switch label {
  case "y":
    r := make([]float64, len(df.Y))
    for i, v := range df.Y {
      r[i] = float64(v)
    }
    return r, nil
  case "input":
    if !df.HasInput() {
      return nil, newError(InvalidInput, "dataframe for `%s' has no input column", df.Seqname)
    }
    return df.Input, nil
  case "GC":
    if !df.HasGC() {
      return nil, newError(InvalidInput, "dataframe for `%s' has no GC column", df.Seqname)
    }
    return df.GC, nil
  case "GC2":
    if !df.HasGC() {
      return nil, newError(InvalidInput, "dataframe for `%s' has no GC2 column", df.Seqname)
    }
    return df.GC2, nil
  case "mapability":
    if !df.HasMapability() {
      return nil, newError(InvalidInput, "dataframe for `%s' has no mapability column", df.Seqname)
    }
    return df.Mapability, nil
  default:
    return nil, newError(InvalidInput, "unknown covariate `%s'", label)
  }
}

// IsEmpty reports whether every Y value is zero, the condition that
// triggers EmptyCoverage per spec §4.1/§7.
func (df *DataFrame) IsEmpty() bool {
  for _, v := range df.Y {
    if v != 0 {
      return false
    }
  }
  return true
}

// TotalY returns the genome-wide (here: per-chromosome) sum of Y, used
// by the coverage normalizer (component B).
func (df *DataFrame) TotalY() int64 {
  var total int64
  for _, v := range df.Y {
    total += int64(v)
  }
  return total
}

// TotalInput returns the per-chromosome sum of Input.
func (df *DataFrame) TotalInput() float64 {
  var total float64
  for _, v := range df.Input {
    total += v
  }
  return total
}
