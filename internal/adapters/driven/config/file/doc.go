// Package file provides the TOML configuration store and the settings
// loader that layers environment variables and defaults over it.
package file
