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

// FlipFreeHMM enforces the ordering invariant mu_0 <= mu_1 <= ... <=
// mu_{K-1} after fitting (spec §4.3, §8): for every pair (i<j) of NB
// emissions, if both mu_i>mu_j and p_i>p_j, the two schemes are
// swapped together with rows/columns i,j of the prior and transition
// matrix. If only one of the two conditions holds, the pair is a
// data-quality warning rather than a swap (the caller is told which
// pairs were inconsistent so it can log them).
func FlipFreeHMM(h *FreeHMM) []string {
  var warnings []string
  n := h.numStates()
  for i := 0; i < n; i++ {
    if h.Emissions[i].Kind != EmissionNegBin {
      continue
    }
    for j := i + 1; j < n; j++ {
      if h.Emissions[j].Kind != EmissionNegBin {
        continue
      }
      muI, pI := h.Emissions[i].Mu, h.Emissions[i].P()
      muJ, pJ := h.Emissions[j].Mu, h.Emissions[j].P()
      meanInverted := muI > muJ
      pInverted := pI > pJ
      switch {
      case meanInverted && pInverted:
        swapStates(h, i, j)
      case meanInverted != pInverted:
        warnings = append(warnings, warnInverted(i, j, muI, pI, muJ, pJ))
      }
    }
  }
  return warnings
}

func warnInverted(i, j int, muI, pI, muJ, pJ float64) string {
  return fmt.Sprintf("state %d/%d mean/p inversion: mu=%.4g/%.4g p=%.4g/%.4g", i, j, muI, muJ, pI, pJ)
}

func swapStates(h *FreeHMM, i, j int) {
  h.Emissions[i], h.Emissions[j] = h.Emissions[j], h.Emissions[i]
  h.LogPi[i], h.LogPi[j] = h.LogPi[j], h.LogPi[i]
  n := h.numStates()
  for s := 0; s < n; s++ {
    h.LogA[s][i], h.LogA[s][j] = h.LogA[s][j], h.LogA[s][i]
  }
  h.LogA[i], h.LogA[j] = h.LogA[j], h.LogA[i]
}

/* -------------------------------------------------------------------------- */

// FlipMixture is the mixture-engine analogue of FlipFreeHMM (spec
// §4.3): it swaps emission schemes and weight-vector entries instead
// of prior/transition rows.
func FlipMixture(m *Mixture) []string {
  var warnings []string
  n := len(m.Emissions)
  for i := 0; i < n; i++ {
    if m.Emissions[i].Kind != EmissionNegBin {
      continue
    }
    for j := i + 1; j < n; j++ {
      if m.Emissions[j].Kind != EmissionNegBin {
        continue
      }
      muI, pI := m.Emissions[i].Mu, m.Emissions[i].P()
      muJ, pJ := m.Emissions[j].Mu, m.Emissions[j].P()
      meanInverted := muI > muJ
      pInverted := pI > pJ
      switch {
      case meanInverted && pInverted:
        m.Emissions[i], m.Emissions[j] = m.Emissions[j], m.Emissions[i]
        m.Weights[i], m.Weights[j] = m.Weights[j], m.Weights[i]
      case meanInverted != pInverted:
        warnings = append(warnings, warnInverted(i, j, muI, pI, muJ, pJ))
      }
    }
  }
  return warnings
}

/* -------------------------------------------------------------------------- */

// FlipConstrainedHMM applies the per-track-block variant of the flip
// step (spec §4.3) to the differential ZLHID model: each replicate
// dimension's NB schemes are flipped independently by delegating to the
// same pairwise rule, then states are permuted to keep
// StateDimensionEmissionMap consistent with the (now-reordered)
// per-dimension scheme ordering.
func FlipConstrainedHMM(h *ConstrainedHMM, numDimensions int) []string {
  var warnings []string
  // collect, per dimension, the set of scheme indices used at that
  // dimension, then apply the pairwise rule within that set.
  for d := 0; d < numDimensions; d++ {
    seen := map[int]bool{}
    var schemes []int
    for _, dims := range h.StateDimensionEmissionMap {
      if d < len(dims) && !seen[dims[d]] {
        seen[dims[d]] = true
        schemes = append(schemes, dims[d])
      }
    }
    for a := 0; a < len(schemes); a++ {
      for b := a + 1; b < len(schemes); b++ {
        i, j := schemes[a], schemes[b]
        if h.Emissions[i].Kind != EmissionNegBin || h.Emissions[j].Kind != EmissionNegBin {
          continue
        }
        muI, pI := h.Emissions[i].Mu, h.Emissions[i].P()
        muJ, pJ := h.Emissions[j].Mu, h.Emissions[j].P()
        meanInverted := muI > muJ
        pInverted := pI > pJ
        switch {
        case meanInverted && pInverted:
          h.Emissions[i], h.Emissions[j] = h.Emissions[j], h.Emissions[i]
        case meanInverted != pInverted:
          warnings = append(warnings, warnInverted(i, j, muI, pI, muJ, pJ))
        }
      }
    }
  }
  return warnings
}
