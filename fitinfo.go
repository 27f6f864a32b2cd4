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

import (
  "crypto/sha256"
  "encoding/json"
  "fmt"
  "sort"
)

/* -------------------------------------------------------------------------- */

// fitInformationSchemaVersion is the stable schema version of spec §6;
// Load rejects any descriptor that does not carry this value.
const fitInformationSchemaVersion = 5

// PathPair is one treatment/control path entry of the fit descriptor.
type PathPair struct {
  Treatment string `json:"treatment"`
  Control   string `json:"control,omitempty"`
}

// FitInformation is the durable fit descriptor of spec §6: the only
// contract a cached fit must honor across process restarts. It is
// JSON-serialized exactly in the field order and names of the schema;
// the trained model's own parameter arrays serialize separately, keyed
// by this descriptor's Id as filename stem (spec §9).
type FitInformation struct {
  Build            string         `json:"build"`
  Paths            []PathPair     `json:"paths"`
  Labels           []string       `json:"labels"`
  Fragment         string         `json:"fragment"`
  Unique           bool           `json:"unique"`
  BinSize          int            `json:"bin_size"`
  ChromosomeSizes  map[string]int `json:"chromosomes_sizes"`
  FitInformationFQN string        `json:"fit.information.fqn"`
  Version          int            `json:"version"`
}

// NewFitInformation builds a descriptor for the given model tag,
// stamping the schema version.
func NewFitInformation(build string, paths []PathPair, labels []string, fragment int, unique bool, binSize int, chromSizes map[string]int, fqn string) FitInformation {
  fragStr := "auto"
  if fragment != AutoFragment {
    fragStr = fmt.Sprintf("%d", fragment)
  }
  return FitInformation{
    Build:             build,
    Paths:             paths,
    Labels:            labels,
    Fragment:          fragStr,
    Unique:            unique,
    BinSize:           binSize,
    ChromosomeSizes:   chromSizes,
    FitInformationFQN: fqn,
    Version:           fitInformationSchemaVersion,
  }
}

/* -------------------------------------------------------------------------- */

// Id derives the content-addressed cache key of spec §5/§9: a sha256
// digest over a canonical JSON encoding with the path pairs sorted and
// the chromosome-size map flattened into a sorted-by-name slice first,
// so permuting the input paths or the input chromosome list (map
// iteration order is otherwise undefined) never changes the id.
func (f FitInformation) Id() string {
  type canonicalChrom struct {
    Name   string `json:"name"`
    Length int    `json:"length"`
  }
  names := make([]string, 0, len(f.ChromosomeSizes))
  for name := range f.ChromosomeSizes {
    names = append(names, name)
  }
  sort.Strings(names)
  chroms := make([]canonicalChrom, len(names))
  for i, name := range names {
    chroms[i] = canonicalChrom{Name: name, Length: f.ChromosomeSizes[name]}
  }
  paths := append([]PathPair(nil), f.Paths...)
  sort.Slice(paths, func(a, b int) bool {
    if paths[a].Treatment != paths[b].Treatment {
      return paths[a].Treatment < paths[b].Treatment
    }
    return paths[a].Control < paths[b].Control
  })

  canonical := struct {
    Build    string           `json:"build"`
    Paths    []PathPair       `json:"paths"`
    Labels   []string         `json:"labels"`
    Fragment string           `json:"fragment"`
    Unique   bool             `json:"unique"`
    BinSize  int              `json:"bin_size"`
    Chroms   []canonicalChrom `json:"chromosomes"`
    FQN      string           `json:"fqn"`
  }{f.Build, paths, f.Labels, f.Fragment, f.Unique, f.BinSize, chroms, f.FitInformationFQN}

  buf, err := json.Marshal(canonical)
  if err != nil {
    panic(fmt.Sprintf("FitInformation.Id(): %v", err))
  }
  sum := sha256.Sum256(buf)
  return fmt.Sprintf("%x", sum)
}

/* -------------------------------------------------------------------------- */

// Save writes the descriptor as pretty-printed JSON.
func (f FitInformation) Save() ([]byte, error) {
  buf, err := json.MarshalIndent(f, "", "  ")
  if err != nil {
    return nil, wrapError(InvalidInput, err, "FitInformation.Save(): marshal failed")
  }
  return buf, nil
}

// LoadFitInformation parses and validates a descriptor (spec §6/§7):
// unknown version or missing fqn is a SchemaMismatch; build mismatch
// against wantBuild, when non-empty, is also a SchemaMismatch.
func LoadFitInformation(data []byte, wantBuild string) (FitInformation, error) {
  var f FitInformation
  if err := json.Unmarshal(data, &f); err != nil {
    return FitInformation{}, wrapError(SchemaMismatch, err, "LoadFitInformation(): invalid JSON")
  }
  if f.Version != fitInformationSchemaVersion {
    return FitInformation{}, newError(SchemaMismatch, "LoadFitInformation(): unsupported version %d", f.Version)
  }
  if f.FitInformationFQN == "" {
    return FitInformation{}, newError(SchemaMismatch, "LoadFitInformation(): missing fit.information.fqn")
  }
  if wantBuild != "" && f.Build != wantBuild {
    return FitInformation{}, newError(SchemaMismatch, "LoadFitInformation(): build mismatch: have `%s', want `%s'", f.Build, wantBuild)
  }
  return f, nil
}
