// Package config holds the caller-supplied options the core consumes (spec
// §6 External Interfaces). It follows the teacher's plain-struct-plus-
// Default-constructor shape (compare api.ServerConfig / api.DefaultConfig)
// rather than a flag/env loader — config loading itself is an external
// collaborator's job (CLI, env, file), not the core's.
package config

import "streets/units"

// Config carries every option the core consumes. Zero value is not
// meaningful for DrivingSide/CountryCode; use Default or set explicitly.
type Config struct {
	// DrivingSide determines left-to-right lane ordering in lane inference
	// and several transformation choices (sausage link collapse direction,
	// default sidewalk/shoulder side).
	DrivingSide units.DrivingSide

	// CountryCode is an ISO-3166-1 alpha-2 code used to resolve
	// locale-dependent lane inference defaults (e.g. default lane widths).
	CountryCode string

	// BikesCanUseBusLanes is carried for callers; no code in this module
	// reads it, and movement classification does not consider bicycles.
	BikesCanUseBusLanes bool

	// InferredSidewalks enables spec §4.1 step 1: synthesizing a
	// sidewalk=* tag when the way lacks one.
	InferredSidewalks bool

	// StreetParkingSpotLength is the assumed length, in meters, of one
	// on-street parking spot, used by downstream parking-lane consumers.
	StreetParkingSpotLength float64

	// TurnOnRed affects movement calculation at signalled intersections.
	TurnOnRed bool

	// IncludeRailroads includes light rail / railway ways in the network.
	IncludeRailroads bool

	// InferredKerbs is carried for callers; no code in this module reads
	// it, and lane inference does not synthesize kerb placement.
	InferredKerbs bool
}

// Default returns the configuration used throughout tests and the CLI when
// no overrides are given: right-hand traffic, US-like defaults.
func Default() Config {
	return Config{
		DrivingSide:             units.Right,
		CountryCode:             "US",
		BikesCanUseBusLanes:     true,
		InferredSidewalks:       true,
		StreetParkingSpotLength: 8.0,
		TurnOnRed:               true,
		IncludeRailroads:        false,
		InferredKerbs:           false,
	}
}
