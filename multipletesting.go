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

import "sort"

/* -------------------------------------------------------------------------- */

// BenjaminiHochberg computes q-values from p-values (spec §4.5): sort
// ascending, q_(i) = p_(i)*n/i clamped to be monotone non-decreasing
// from the largest p-value down, then restored to the caller's original
// order.
func BenjaminiHochberg(pvalues []float64) []float64 {
  n := len(pvalues)
  qvalues := make([]float64, n)
  if n == 0 {
    return qvalues
  }

  idx := make([]int, n)
  for i := range idx {
    idx[i] = i
  }
  sort.Slice(idx, func(a, b int) bool { return pvalues[idx[a]] < pvalues[idx[b]] })

  sorted := make([]float64, n)
  for rank, i := range idx {
    sorted[rank] = pvalues[i] * float64(n) / float64(rank+1)
  }
  // enforce monotonicity from the largest rank down
  for rank := n - 2; rank >= 0; rank-- {
    if sorted[rank] > sorted[rank+1] {
      sorted[rank] = sorted[rank+1]
    }
  }
  for rank, i := range idx {
    q := sorted[rank]
    if q > 1 {
      q = 1
    }
    qvalues[i] = q
  }
  return qvalues
}
