// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathmap translates filesystem paths between two namespaces
// (a controller's view of a project and a worker's view of the same
// files inside a container or on a remote host).
//
// A [Table] is an ordered list of [Mapping] prefixes. [Table.Rewrite]
// substitutes the first prefix that matches and leaves unmatched paths
// alone. [FieldTransform] lifts a table into a message-level transform
// for the bridge: it walks a decoded JSON value and rewrites the string
// values stored under caller-named keys. Which keys carry paths is the
// caller's knowledge; this package does not know any message schema.
//
// Tables are written on the command line and in config files as
// "local=remote" pairs, parsed by [ParseMapping] and [ParseTable].
package pathmap
