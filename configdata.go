// Package fortpresence provides embedded assets for the Fortpresence daemon.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML]. The daemon writes this file to the data directory
// on first run to seed the user's config.
package fortpresence

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml, embedded at
// build time. Regenerate with go generate ./internal/config.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
