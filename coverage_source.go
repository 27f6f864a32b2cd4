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

// Strand mirrors the teacher's '+'/'-'/'*' byte convention for stranded
// queries (see the now-removed bam.go reader this contract replaces).
type Strand byte

const (
  StrandPlus    Strand = '+'
  StrandMinus   Strand = '-'
  StrandUnknown Strand = '*'
)

/* -------------------------------------------------------------------------- */

// CoverageSource is the abstract read-coverage collaborator consumed by
// the binning layer (spec §1, §6). Concrete BAM/BED readers are
// external to this module; only this contract crosses the boundary.
// Implementations must be safe for concurrent calls from multiple
// goroutines since the pool fans per-chromosome work out across threads
// (spec §5).
type CoverageSource interface {
  // Coverage returns the number of read starts, shifted by fragment/2,
  // that fall within [r.From, r.To) on chromosome, restricted to the
  // given strand (StrandUnknown means both strands combined).
  Coverage(chromosome string, r Range, strand Strand, fragment int) (uint32, error)
}

// BigWigSource is the abstract mapability-track collaborator (spec §6).
type BigWigSource interface {
  // Summarize returns one Summary per requested bin, each bin spanning
  // an equal share of [start, end).
  Summarize(chromosome string, start, end, bins int) ([]Summary, error)
  // TotalSummary returns the genome-wide aggregate, used to fill bins
  // on chromosomes the BigWig file does not cover (spec §4.1).
  TotalSummary() (Summary, error)
  // HasChromosome reports whether the BigWig file has data for the
  // given chromosome.
  HasChromosome(chromosome string) bool
}

// Summary is a bin-level aggregate, named after the teacher's
// BbiSummaryStatistics/BbiSummaryRecord fields in bbi.go.
type Summary struct {
  Sum   float64
  Count float64
}

// Mean returns Sum/Count, or 0 if Count is 0.
func (s Summary) Mean() float64 {
  if s.Count == 0 {
    return 0
  }
  return s.Sum / s.Count
}

// SequenceSource is the abstract reference-sequence collaborator used
// to derive the GC covariates (spec §6).
type SequenceSource interface {
  // BinnedMeanCG returns, for every bin of the chromosome at the given
  // bin size, the mean CpG fraction in that bin.
  BinnedMeanCG(chromosome string, binSize int) ([]float64, error)
}

// ChromSizes is the ordered name->length manifest consumed to build a
// Genome (spec §6); Genome itself already satisfies the shape, this
// alias documents the external contract independently of the concrete
// type.
type ChromSizes = Genome
