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

// GenomeQuery restricts a Genome to a subset of its chromosomes and is
// the unit of coverage addressing (spec §3): every component that walks
// "the genome" in fact walks a GenomeQuery, so that a single chromosome
// or an arbitrary subset can be processed without rebuilding a Genome.
type GenomeQuery struct {
  genome   Genome
  seqnames []string
  index    map[string]int
}

// NewGenomeQuery restricts genome to the given chromosome names. An
// unknown name is an InvalidInput error. Passing no names is equivalent
// to querying the whole genome.
func NewGenomeQuery(genome Genome, seqnames ...string) (GenomeQuery, error) {
  if len(seqnames) == 0 {
    seqnames = append([]string{}, genome.Seqnames...)
  }
  index := make(map[string]int, len(seqnames))
  for _, s := range seqnames {
    if _, err := genome.GetIdx(s); err != nil {
      return GenomeQuery{}, err
    }
    index[s] = 1
  }
  return GenomeQuery{genome: genome, seqnames: seqnames, index: index}, nil
}

// Genome returns the parent genome this query restricts.
func (q GenomeQuery) Genome() Genome {
  return q.genome
}

// Seqnames returns the chromosome names selected by this query, in the
// order they were given (which for a full-genome query is the genome's
// own chromosome order).
func (q GenomeQuery) Seqnames() []string {
  r := make([]string, len(q.seqnames))
  copy(r, q.seqnames)
  return r
}

// Contains reports whether seqname is part of this query.
func (q GenomeQuery) Contains(seqname string) bool {
  _, ok := q.index[seqname]
  return ok
}

// Length returns the number of chromosomes selected by this query.
func (q GenomeQuery) Length() int {
  return len(q.seqnames)
}

// SeqLength returns the length of a chromosome selected by this query.
func (q GenomeQuery) SeqLength(seqname string) (int, error) {
  if !q.Contains(seqname) {
    return 0, newError(InvalidInput, "chromosome `%s' not part of this query", seqname)
  }
  return q.genome.SeqLength(seqname)
}
