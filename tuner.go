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

// GridPoint is one (fdr, sensitivity, gap) combination of spec §4.6's
// parameter grid.
type GridPoint struct {
  FDR         float64
  Sensitivity float64
  Gap         int
}

// BuildGrid returns the Cartesian product FDRs x sensitivities x gaps,
// in nested-loop declared order: fdrs outermost, gaps innermost. Grid
// order matters: Tune reports the index of the first point (in this
// order) attaining the minimum total error.
func BuildGrid(fdrs, sensitivities []float64, gaps []int) []GridPoint {
  grid := make([]GridPoint, 0, len(fdrs)*len(sensitivities)*len(gaps))
  for _, fdr := range fdrs {
    for _, sens := range sensitivities {
      for _, gap := range gaps {
        grid = append(grid, GridPoint{FDR: fdr, Sensitivity: sens, Gap: gap})
      }
    }
  }
  return grid
}

// TuneResult is one grid point's evaluation outcome.
type TuneResult struct {
  Point      GridPoint
  Errors     LabelErrors
  TotalError float64
}

// PeakCaller evaluates a grid point over the chromosomes touching
// labelled regions, returning the called peaks per chromosome.
type PeakCaller func(point GridPoint) (map[string][]Peak, error)

// Tune implements the semi-supervised tuner of spec §4.6: each grid
// point is evaluated independently (one task per point, submitted to a
// shared work-stealing pool per spec §5's scheduling model 3), with
// results stored into a pre-allocated slot array indexed by grid order
// so no inter-task synchronization is needed beyond the final join.
// Cancellation is polled cooperatively at the top of each task.
func Tune(grid []GridPoint, labels []LocationLabel, call PeakCaller, threads int, cancel <-chan struct{}) ([]TuneResult, int, error) {
  if len(grid) == 0 {
    return nil, -1, newError(InvalidInput, "Tune(): empty parameter grid")
  }
  if threads <= 0 {
    threads = 1
  }

  results := make([]TuneResult, len(grid))
  var firstErr error

  pool := threadpool.New(threads, 100*threads)
  pool.RangeJob(0, len(grid), func(i int, pool threadpool.ThreadPool, erf func() error) error {
    if isCancelled(cancel) {
      return ErrCancelled
    }
    point := grid[i]
    peaksBySeqname, err := call(point)
    if err != nil {
      firstErr = err
      return nil
    }
    errs := EvaluateLabels(labels, peaksBySeqname)
    results[i] = TuneResult{Point: point, Errors: errs, TotalError: errs.TotalErrorRate()}
    return nil
  })

  if isCancelled(cancel) {
    return nil, -1, newError(Cancelled, "Tune(): cancelled")
  }
  if firstErr != nil {
    return nil, -1, firstErr
  }

  best := 0
  for i := 1; i < len(results); i++ {
    if results[i].TotalError < results[best].TotalError {
      best = i
    }
  }
  return results, best, nil
}
