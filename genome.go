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

import "bufio"
import "bytes"
import "fmt"
import "os"
import "strconv"
import "strings"

/* -------------------------------------------------------------------------- */

// Genome is a totally ordered list of named chromosomes with positive
// lengths (spec §3). Chromosome order is significant: it is part of the
// canonical form that FitInformation.id hashes over (after sorting), and
// it determines output ordering where ties are not otherwise broken.
type Genome struct {
  Seqnames []string
  Lengths  []int
}

/* constructor
 * -------------------------------------------------------------------------- */

// NewGenome builds a Genome from parallel seqname/length slices. Every
// length must be strictly positive; a zero or negative length is a
// programmer/input error and panics, matching the teacher's constructor
// convention for parallel-slice invariants it cannot otherwise express.
func NewGenome(seqnames []string, lengths []int) Genome {
  if len(seqnames) != len(lengths) {
    panic("NewGenome(): seqnames and lengths have different length")
  }
  for i, l := range lengths {
    if l <= 0 {
      panic(fmt.Sprintf("NewGenome(): chromosome `%s' has non-positive length %d", seqnames[i], l))
    }
  }
  return Genome{seqnames, lengths}
}

/* -------------------------------------------------------------------------- */

func (genome Genome) Clone() Genome {
  seqnames := make([]string, len(genome.Seqnames))
  lengths := make([]int, len(genome.Lengths))
  copy(seqnames, genome.Seqnames)
  copy(lengths, genome.Lengths)
  return Genome{seqnames, lengths}
}

// Length returns the number of chromosomes in the genome.
func (genome Genome) Length() int {
  return len(genome.Seqnames)
}

// SeqLength returns the length of the given chromosome.
func (genome Genome) SeqLength(seqname string) (int, error) {
  i, err := genome.GetIdx(seqname)
  if err != nil {
    return 0, err
  }
  return genome.Lengths[i], nil
}

func (genome *Genome) AddSequence(seqname string, length int) (int, error) {
  if length <= 0 {
    return -1, newError(InvalidInput, "chromosome `%s' has non-positive length %d", seqname, length)
  }
  if idx, err := genome.GetIdx(seqname); err == nil {
    return idx, newError(InvalidInput, "sequence `%s' already exists", seqname)
  }
  genome.Seqnames = append(genome.Seqnames, seqname)
  genome.Lengths = append(genome.Lengths, length)
  return genome.Length() - 1, nil
}

func (genome Genome) GetIdx(seqname string) (int, error) {
  for i := 0; i < genome.Length(); i++ {
    if genome.Seqnames[i] == seqname {
      return i, nil
    }
  }
  return -1, newError(InvalidInput, "sequence `%s' not found in genome", seqname)
}

// BinCount returns ⌈L/b⌉, the number of bins of size b covering a
// chromosome of length L (spec §3 bin grid).
func BinCount(length, binSize int) int {
  if binSize <= 0 {
    panic("BinCount(): binSize must be positive")
  }
  return divIntUp(length, binSize)
}

/* convert to string
 * -------------------------------------------------------------------------- */

func (genome Genome) String() string {
  var buffer bytes.Buffer

  buffer.WriteString(fmt.Sprintf("%10s %10s\n", "seqnames", "lengths"))
  for i := 0; i < genome.Length(); i++ {
    if i != 0 {
      buffer.WriteString("\n")
    }
    buffer.WriteString(fmt.Sprintf("%10s %10d", genome.Seqnames[i], genome.Lengths[i]))
  }
  return buffer.String()
}

/* i/o
 * -------------------------------------------------------------------------- */

// ReadFile imports chromosome sizes from a whitespace separated table
// (the UCSC "chrom.sizes" convention): first column chromosome name,
// second column length.
func (genome *Genome) ReadFile(filename string) error {
  f, err := os.Open(filename)
  if err != nil {
    return err
  }
  defer f.Close()

  seqnames := []string{}
  lengths := []int{}

  scanner := bufio.NewScanner(f)
  for scanner.Scan() {
    fields := strings.Fields(scanner.Text())
    if len(fields) == 0 {
      continue
    }
    if len(fields) < 2 {
      return newError(InvalidInput, "invalid genome file `%s'", filename)
    }
    t1, e1 := strconv.ParseInt(fields[1], 10, 64)
    if e1 != nil {
      return e1
    }
    if t1 <= 0 {
      return newError(InvalidInput, "chromosome `%s' has non-positive length in `%s'", fields[0], filename)
    }
    seqnames = append(seqnames, fields[0])
    lengths = append(lengths, int(t1))
  }
  if err := scanner.Err(); err != nil {
    return err
  }
  *genome = NewGenome(seqnames, lengths)

  return nil
}
