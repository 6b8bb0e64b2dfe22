// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the tether configuration file.
//
// The file is named by the TETHER_CONFIG environment variable (via
// [Load]) or by a --config flag (via [LoadFile]). There is no search
// path and no discovery: a binary either runs on flags alone or on
// exactly the file it was pointed at. Flags given alongside a file
// override the file's values; that merge happens in the binaries.
//
// Files ending in .json or .jsonc are read as JSON with comments and
// trailing commas (stripped by tidwall/jsonc); anything else is YAML.
// Both go through the same YAML decoder, so field names and duration
// syntax ("5s", "200ms") are identical across formats. Unknown fields
// are rejected.
//
// Path mappings can be written either as "local=remote" strings or as
// {local, remote} objects. ${HOME} and ${VAR:-default} are expanded in
// mapping prefixes and in the exit record path.
//
// [Config.ConnectOptions], [Config.AcceptOptions], and
// [Config.PathTable] project the file into the types the transport,
// bridge, and pathmap packages consume.
package config
