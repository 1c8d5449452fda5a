// Package pkgconfig provides a small abstraction for reading configuration values.
//
// Business code depends on the Config interface; the Viper implementation reads a
// YAML file, falls back to registered defaults, and lets ORGJOIN_* environment
// variables override any key.
package pkgconfig
