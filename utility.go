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

import "math"

/* -------------------------------------------------------------------------- */

func iMin(a, b int) int {
  if a < b {
    return a
  }
  return b
}

func iMax(a, b int) int {
  if a > b {
    return a
  }
  return b
}

// Divide a by b, the result is rounded up. Used throughout to turn a
// chromosome length into a bin count (spec §3: ⌈L/b⌉).
func divIntUp(a, b int) int {
  return (a-1)/b + 1
}

/* -------------------------------------------------------------------------- */

var negInf = math.Inf(-1)

// logSumExp computes log(Σ exp(xs[i])) in a numerically stable way. All
// probability arithmetic in the HMM/mixture engines (spec §4.3, §5) is
// carried out in log space through this function.
func logSumExp(xs ...float64) float64 {
  max := math.Inf(-1)
  for _, x := range xs {
    if x > max {
      max = x
    }
  }
  if math.IsInf(max, -1) {
    return max
  }
  sum := 0.0
  for _, x := range xs {
    sum += math.Exp(x - max)
  }
  return max + math.Log(sum)
}

// logSumExpSlice is logSumExp over a slice, avoiding the variadic copy
// for hot loops (forward/backward recursions iterate this per bin).
func logSumExpSlice(xs []float64) float64 {
  max := math.Inf(-1)
  for _, x := range xs {
    if x > max {
      max = x
    }
  }
  if math.IsInf(max, -1) {
    return max
  }
  sum := 0.0
  for _, x := range xs {
    sum += math.Exp(x - max)
  }
  return max + math.Log(sum)
}

// clamp restricts x to [lo, hi].
func clamp(x, lo, hi float64) float64 {
  if x < lo {
    return lo
  }
  if x > hi {
    return hi
  }
  return x
}
