// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "errors"

// Error taxonomy from SPEC_FULL.md §7. InvalidHandle never surfaces as a
// value here -- every accessor already reports it as ok=false, per the
// spec's "API returns an empty option, never panics" contract.
var (
	ErrConfigOutOfRange = errors.New("physics: config value out of range")
	ErrDegenerateShape  = errors.New("physics: degenerate shape")
	ErrNonFiniteState   = errors.New("physics: non-finite body state")
)

// clampPositive returns v if v > 0, else def, logging once per key under
// ErrConfigOutOfRange when it falls back.
func clampPositive(once *logOnce, key string, v, def float64) float64 {
	if v > 0 {
		return v
	}
	once.warn(key, "config value out of range, using default", "field", key, "value", v, "default", def, "err", ErrConfigOutOfRange)
	return def
}

// clampNonNegativeInt returns v if v >= 0, else def, logging once per key.
func clampNonNegativeInt(once *logOnce, key string, v, def int) int {
	if v >= 0 {
		return v
	}
	once.warn(key, "config value out of range, using default", "field", key, "value", v, "default", def, "err", ErrConfigOutOfRange)
	return def
}

// clampUnit returns v if v is within [0,1], else def, logging once per key.
func clampUnit(once *logOnce, key string, v, def float64) float64 {
	if v >= 0 && v <= 1 {
		return v
	}
	once.warn(key, "config value out of range, using default", "field", key, "value", v, "default", def, "err", ErrConfigOutOfRange)
	return def
}
