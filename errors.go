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

import "errors"
import "fmt"

/* -------------------------------------------------------------------------- */

// Kind classifies an error into one of the taxonomy buckets of the
// enrichment pipeline. Callers that need to branch on failure mode should
// switch on Kind rather than string-matching Error().
type Kind int

const (
  // Bad configuration or arguments: missing files, wrong genome build,
  // replicate count the model cannot accept.
  InvalidInput Kind = iota
  // A track has no usable signal left after filtering.
  EmptyCoverage
  // NaN/Inf encountered while fitting; carries the best iteration reached.
  NumericalFailure
  // A saved fit descriptor does not match the schema this build expects.
  SchemaMismatch
  // A long-running task was cancelled cooperatively.
  Cancelled
  // A program invariant was violated (e.g. strict bitset not a subset of
  // relaxed); distinct from InvalidInput because it never originates from
  // user-supplied data.
  InvariantViolation
)

func (k Kind) String() string {
  switch k {
  case InvalidInput:
    return "invalid input"
  case EmptyCoverage:
    return "empty coverage"
  case NumericalFailure:
    return "numerical failure"
  case SchemaMismatch:
    return "schema mismatch"
  case Cancelled:
    return "cancelled"
  case InvariantViolation:
    return "invariant violation"
  default:
    return "unknown error"
  }
}

/* -------------------------------------------------------------------------- */

// Error is the single result-enum style error type used throughout the
// package (spec ties each of the five error kinds to one variant of a
// single result enum; InvariantViolation is the implementation's sixth,
// internal-only, variant).
type Error struct {
  Kind    Kind
  Message string
  // Iteration and LogLikelihood are populated for NumericalFailure: the
  // EM loop reports the best-so-far state before aborting.
  Iteration     int
  LogLikelihood float64
  Cause         error
}

func (e *Error) Error() string {
  if e.Cause != nil {
    return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
  }
  return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
  return e.Cause
}

func (e *Error) Is(target error) bool {
  t, ok := target.(*Error)
  if !ok {
    return false
  }
  return t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...interface{}) *Error {
  return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...interface{}) *Error {
  return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

/* sentinels for errors.Is(err, span.ErrEmptyCoverage) style checks
 * -------------------------------------------------------------------------- */

var (
  ErrEmptyCoverage      = &Error{Kind: EmptyCoverage}
  ErrNumericalFailure   = &Error{Kind: NumericalFailure}
  ErrCancelled          = &Error{Kind: Cancelled}
  ErrInvariantViolation = &Error{Kind: InvariantViolation}
)

// IsCancelled reports whether err (or any error it wraps) is a Cancelled
// failure, the one kind §7 requires callers propagate unchanged.
func IsCancelled(err error) bool {
  var e *Error
  return errors.As(err, &e) && e.Kind == Cancelled
}
