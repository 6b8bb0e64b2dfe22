// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pathmap

import (
	"fmt"
	"strings"
)

// Mapping pairs a local path prefix with its remote equivalent.
type Mapping struct {
	Local  string `yaml:"local"`
	Remote string `yaml:"remote"`
}

// String returns the mapping in "local=remote" form.
func (m Mapping) String() string {
	return m.Local + "=" + m.Remote
}

// Table is an ordered list of mappings, rewriting local paths to remote
// ones. Order matters: when several prefixes match, the first wins.
type Table []Mapping

// Rewrite replaces the Local prefix of the first matching mapping with
// its Remote prefix. A path that matches nothing is returned unchanged.
func (t Table) Rewrite(path string) string {
	for _, mapping := range t {
		if rest, ok := strings.CutPrefix(path, mapping.Local); ok {
			return mapping.Remote + rest
		}
	}
	return path
}

// Reverse returns a table that rewrites remote paths back to local
// ones, preserving order.
func (t Table) Reverse() Table {
	reversed := make(Table, len(t))
	for index, mapping := range t {
		reversed[index] = Mapping{Local: mapping.Remote, Remote: mapping.Local}
	}
	return reversed
}

// ParseMapping parses "local=remote". Both sides must be non-empty.
func ParseMapping(pair string) (Mapping, error) {
	local, remote, found := strings.Cut(pair, "=")
	if !found {
		return Mapping{}, fmt.Errorf("path mapping %q: expected local=remote", pair)
	}
	if local == "" || remote == "" {
		return Mapping{}, fmt.Errorf("path mapping %q: both prefixes must be non-empty", pair)
	}
	return Mapping{Local: local, Remote: remote}, nil
}

// ParseTable parses each pair with ParseMapping, keeping order.
func ParseTable(pairs []string) (Table, error) {
	table := make(Table, 0, len(pairs))
	for _, pair := range pairs {
		mapping, err := ParseMapping(pair)
		if err != nil {
			return nil, err
		}
		table = append(table, mapping)
	}
	return table, nil
}
