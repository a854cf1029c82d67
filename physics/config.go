// Copyright © 2013-2015 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/saptak7777/forgecore/math/lin"
)

// Config mirrors SPEC_FULL.md §6's configuration-constants table plus the
// gravity vector a host application tunes alongside it, per §2.12. Loaded
// from YAML the same way the teacher's load/shd.go loads a shader
// descriptor.
type Config struct {
	Gravity lin.V3 `yaml:"gravity"`

	FixedTimestep float64 `yaml:"fixed_timestep"`
	Substeps      int     `yaml:"substeps"`

	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
	Baumgarte          float64 `yaml:"baumgarte"`
	Slop               float64 `yaml:"slop"`

	BroadphaseCellSize float64 `yaml:"broadphase_cell_size"`

	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`

	CCDSpeedThreshold float64 `yaml:"ccd_speed_threshold"`
	CCDMaxIterations  int     `yaml:"ccd_max_iterations"`
	SpeculativeMargin float64 `yaml:"speculative_margin"`

	SleepThreshold float64 `yaml:"sleep_threshold"`
}

// DefaultConfig matches every default in SPEC_FULL.md §6's configuration
// table, with gravity set to Earth-like -9.8 m/s² on Y.
func DefaultConfig() Config {
	return Config{
		Gravity:            lin.V3{Y: -9.8},
		FixedTimestep:      1.0 / 60,
		Substeps:           2,
		VelocityIterations: 4,
		PositionIterations: 1,
		Baumgarte:          0.2,
		Slop:               0.01,
		BroadphaseCellSize: DefaultCellSize,
		LinearDamping:      0.02,
		AngularDamping:     0.02,
		CCDSpeedThreshold:  DefaultCCDSpeedThreshold,
		CCDMaxIterations:   DefaultMaxTOIIterations,
		SpeculativeMargin:  DefaultSpeculativeMargin,
		SleepThreshold:     0.01,
	}
}

// Validate clamps every out-of-range field to its DefaultConfig value,
// logging once per field via slog rather than failing construction, per
// SPEC_FULL.md §7's ConfigOutOfRange contract ("clamped to sane defaults
// at construction with a one-line log").
func (c *Config) Validate() []error {
	def := DefaultConfig()
	once := newLogOnce()
	var errs []error

	check := func(ok bool, key string) {
		if !ok {
			once.warn(key, "config value out of range, using default", "field", key, "err", ErrConfigOutOfRange)
			errs = append(errs, fmt.Errorf("%s: %w", key, ErrConfigOutOfRange))
		}
	}

	before := c.FixedTimestep
	c.FixedTimestep = clampPositive(once, "fixed_timestep", c.FixedTimestep, def.FixedTimestep)
	check(before == c.FixedTimestep, "fixed_timestep")

	if c.Substeps < 1 {
		check(false, "substeps")
		c.Substeps = def.Substeps
	}

	if c.VelocityIterations < 0 {
		check(false, "velocity_iterations")
		c.VelocityIterations = def.VelocityIterations
	}
	if c.PositionIterations < 0 {
		check(false, "position_iterations")
		c.PositionIterations = def.PositionIterations
	}

	before = c.Baumgarte
	c.Baumgarte = clampUnit(once, "baumgarte", c.Baumgarte, def.Baumgarte)
	check(before == c.Baumgarte, "baumgarte")

	if c.Slop < 0 {
		check(false, "slop")
		c.Slop = def.Slop
	}

	before = c.BroadphaseCellSize
	c.BroadphaseCellSize = clampPositive(once, "broadphase_cell_size", c.BroadphaseCellSize, def.BroadphaseCellSize)
	check(before == c.BroadphaseCellSize, "broadphase_cell_size")

	before = c.LinearDamping
	c.LinearDamping = clampUnit(once, "linear_damping", c.LinearDamping, def.LinearDamping)
	check(before == c.LinearDamping, "linear_damping")

	before = c.AngularDamping
	c.AngularDamping = clampUnit(once, "angular_damping", c.AngularDamping, def.AngularDamping)
	check(before == c.AngularDamping, "angular_damping")

	if c.CCDSpeedThreshold < 0 {
		check(false, "ccd_speed_threshold")
		c.CCDSpeedThreshold = def.CCDSpeedThreshold
	}
	if c.CCDMaxIterations < 0 {
		check(false, "ccd_max_iterations")
		c.CCDMaxIterations = def.CCDMaxIterations
	}
	if c.SpeculativeMargin < 0 {
		check(false, "speculative_margin")
		c.SpeculativeMargin = def.SpeculativeMargin
	}
	if c.SleepThreshold < 0 {
		check(false, "sleep_threshold")
		c.SleepThreshold = def.SleepThreshold
	}

	return errs
}

// LoadConfig unmarshals a YAML document into a Config, validating (and
// clamping) it before returning.
func LoadConfig(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: read: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("LoadConfig: yaml: %w", err)
	}
	cfg.Validate()
	return &cfg, nil
}

// SaveConfig marshals cfg to YAML and writes it to w.
func SaveConfig(w io.Writer, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("SaveConfig: yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (c Config) solverConfig() SolverConfig {
	return SolverConfig{
		VelocityIterations:   c.VelocityIterations,
		PositionIterations:   c.PositionIterations,
		Baumgarte:            c.Baumgarte,
		Slop:                 c.Slop,
		RestitutionThreshold: DefaultSolverConfig().RestitutionThreshold,
	}
}
