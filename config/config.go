// Package config holds the single startup constant the protocol needs: the
// fixed number of participating processes, N. Every component receives N
// through its constructor rather than reading a package-level global:
// queueproc.New takes a Config, while the clock, confirm and transport
// constructors and system.New take N as a plain int. N can therefore in
// principle be made dynamic without touching component internals (spec.md
// section 9).
package config

import "fmt"

// Config is the static configuration shared by every process replica.
type Config struct {
	// N is the total number of participating processes. All vector-clock
	// arrays and peer iteration ranges are sized by N.
	N int
}

// Validate reports an error if the configuration cannot back a running
// protocol instance.
func (c Config) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("config: N must be >= 1, got %d", c.N)
	}
	return nil
}

// New returns a Config for n processes, validated.
func New(n int) (Config, error) {
	c := Config{N: n}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
