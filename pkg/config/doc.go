// Package config loads the YAML server configuration: listen address,
// note store backend selection, session lifetime, and log output.
package config
