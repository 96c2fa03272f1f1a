// Package config loads broker configuration from YAML files and
// environment variables.
//
// Configuration is layered: a config.yml file provides the base, a .env
// file (when present) adds environment variables, and real environment
// variables override both. Nested keys map to environment variables by
// underscore-joining the path (e.g. UPSTREAM_CLIENT_SECRET overrides
// upstream.client_secret).
package config
