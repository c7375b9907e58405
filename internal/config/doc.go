// Package config loads the server configuration from an optional config.yaml
// and TASKBOARD_* environment variables, applies defaults and validates the
// result before any component is constructed.
package config
