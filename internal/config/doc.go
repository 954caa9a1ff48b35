// Package config provides application configuration and centralized path
// resolution for the shiftcli tools. Configuration merges an optional
// YAML file with SHIFT_-prefixed environment variables; all data paths
// resolve relative to the executable directory so the tools behave the
// same wherever they are invoked from.
package config
