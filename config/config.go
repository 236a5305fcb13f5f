// Package config supplies the read-only configuration shared by a composable
// tree: a run identifier minted for every top-level call and an optional
// result-storage location. Loading configuration from files is left to the
// caller; Options carries yaml tags so it can be decoded directly.
package config

import (
	"strconv"
	"time"

	"github.com/hupe1980/flowmesh/core"
)

// Run identifier strategies understood by Options.RunIDStrategy.
const (
	RunIDUUID      = "uuid"
	RunIDTimestamp = "timestamp"
)

// Options configures a Config.
type Options struct {
	// RunIDStrategy selects how run identifiers are minted ("uuid" or "timestamp").
	RunIDStrategy string `yaml:"run_id"`
	// StoreResult is the location where run results are kept, if any.
	StoreResult string `yaml:"store_result"`
	// RunIDFunc overrides RunIDStrategy when set.
	RunIDFunc func() string `yaml:"-"`
}

// DefaultOptions returns uuid based run identifiers and no result location.
func DefaultOptions() Options {
	return Options{RunIDStrategy: RunIDUUID}
}

// Config implements core.Config.
type Config struct {
	opts Options
}

var _ core.Config = (*Config)(nil)

// New creates a Config with optional overrides.
func New(optFns ...func(o *Options)) *Config {
	opts := DefaultOptions()

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Config{opts: opts}
}

// RunID mints a fresh run identifier.
func (c *Config) RunID() string {
	if c.opts.RunIDFunc != nil {
		return c.opts.RunIDFunc()
	}
	if c.opts.RunIDStrategy == RunIDTimestamp {
		return TimestampRunID()
	}
	return core.NewID()
}

// StoreResult returns the configured result location.
func (c *Config) StoreResult() string {
	return c.opts.StoreResult
}

// Options returns a copy of the options the Config was built with.
func (c *Config) Options() Options {
	return c.opts
}

// TimestampRunID returns the current time in nanoseconds since the epoch.
func TimestampRunID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
