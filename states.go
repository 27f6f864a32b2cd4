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

// StateVariant enumerates the canonical HMM/mixture state spaces of
// spec §3.
type StateVariant int

const (
  StateLH StateVariant = iota
  StateZLH
  StateLMH
  StateZLMH
  StateZLHID // differential, two replicate tracks
)

// Names returns the per-state labels of the variant, in emission index
// order. Index 0 is Constant(0) whenever the variant carries a Z state,
// per spec §3's invariant.
func (v StateVariant) Names() []string {
  switch v {
  case StateLH:
    return []string{"L", "H"}
  case StateZLH:
    return []string{"Z", "L", "H"}
  case StateLMH:
    return []string{"L", "M", "H"}
  case StateZLMH:
    return []string{"Z", "L", "M", "H"}
  case StateZLHID:
    return []string{"ZZ", "ZL", "ZH", "LZ", "LL", "LH", "HZ", "HL", "HH"}
  default:
    panic("StateVariant.Names(): unknown variant")
  }
}

// NumStates returns |states|.
func (v StateVariant) NumStates() int {
  return len(v.Names())
}

// HasZero reports whether state 0 is the degenerate Constant(0)
// emission (spec §3 invariant: true for every variant whose enum
// starts with Z).
func (v StateVariant) HasZero() bool {
  switch v {
  case StateZLH, StateZLMH, StateZLHID:
    return true
  default:
    return false
  }
}

// NullStates returns the indices of the null-hypothesis subset (spec
// §3): a bin is enriched iff its most likely state is not in this set.
func (v StateVariant) NullStates() []int {
  switch v {
  case StateLH:
    return []int{0} // L
  case StateZLH:
    return []int{0, 1} // Z, L
  case StateLMH:
    return []int{0} // L
  case StateZLMH:
    return []int{0, 1, 2} // Z, L, M
  case StateZLHID:
    // null iff neither replicate is in H: both Z or L
    null := []int{}
    names := v.Names()
    for i, name := range names {
      a, b := name[0], name[1]
      if a != 'H' && b != 'H' {
        null = append(null, i)
      }
    }
    return null
  default:
    panic("StateVariant.NullStates(): unknown variant")
  }
}

// IsNull reports whether state index s is in the null subset.
func (v StateVariant) IsNull(s int) bool {
  for _, n := range v.NullStates() {
    if n == s {
      return true
    }
  }
  return false
}
