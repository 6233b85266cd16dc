// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. A missing signing
// secret is reported as a configuration error so that the server refuses to
// start rather than failing on the first request.
package config
