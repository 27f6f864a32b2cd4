/* Copyright (C) 2018 Philipp Benner
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

// MeanCpGFraction returns the fraction of dinucleotide positions in
// sequence that are CpG, i.e. n_cpg / (len(sequence)-1). This is the
// covariate SPAN's GC/GC2 columns are built from (spec §4.1): a plain
// fraction rather than an observed/expected ratio, always in [0,1].
func MeanCpGFraction(sequence []byte) float64 {
  if len(sequence) < 2 {
    return 0.0
  }
  n_cpg := 0
  for j := 0; j < len(sequence)-1; j++ {
    if (sequence[j] == 'c' || sequence[j] == 'C') && (sequence[j+1] == 'g' || sequence[j+1] == 'G') {
      n_cpg += 1
    }
  }
  return float64(n_cpg) / float64(len(sequence)-1)
}
