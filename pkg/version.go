// Package astroinject loads astronomical catalogs into PostgreSQL and
// manages their spatial indexes.
package astroinject

var (
	// Version of astroinject, set with -ldflags at build time.
	Version = "v0.1.0"
	// Build timestamp, set with -ldflags at build time.
	Build = "n/a"
)
