package network

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samuelfneumann/ddpgnet/initwfn"
)

// Default sizes of the hidden layers of the Actor and Critic
const (
	DefaultHidden1 = 256
	DefaultHidden2 = 128
)

// Final layer weights are drawn from U(-FinalBound, FinalBound) by
// default, which keeps initial outputs close to zero.
const FinalBound = 3e-3

// Config implements a JSON serializable configuration of an Actor or
// Critic. Hidden1 is the number of units in the first hidden layer
// (fc1 for the Actor, fcs1 for the Critic) and Hidden2 the number of
// units in fc2.
type Config struct {
	StateSize  int
	ActionSize int
	Seed       uint64

	Hidden1 int
	Hidden2 int

	// FanIn determines how the bounds of the hidden layer weight
	// initialization are computed
	FanIn initwfn.FanIn

	// FinalInit initializes the weights of the output layer
	FinalInit *initwfn.InitWFn
}

// DefaultConfig returns a new Config with the default hidden layer
// sizes and initialization
func DefaultConfig(stateSize, actionSize int, seed uint64) Config {
	final, err := initwfn.NewUniform(-FinalBound, FinalBound)
	if err != nil {
		panic(fmt.Sprintf("defaultconfig: %v", err))
	}

	return Config{
		StateSize:  stateSize,
		ActionSize: actionSize,
		Seed:       seed,
		Hidden1:    DefaultHidden1,
		Hidden2:    DefaultHidden2,
		FanIn:      initwfn.FanInRows,
		FinalInit:  final,
	}
}

// LoadConfig reads a JSON Config from a file. Fields missing from the
// file are given their default values.
func LoadConfig(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("loadconfig: could not read config: %w",
			err)
	}

	config := DefaultConfig(0, 0, 0)
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("loadconfig: could not decode config: %w",
			err)
	}

	return config, config.Validate()
}

// Validate returns an error describing whether or not the
// configuration is valid.
func (c Config) Validate() error {
	sizes := []struct {
		name string
		size int
	}{
		{"state size", c.StateSize},
		{"action size", c.ActionSize},
		{"hidden layer 1", c.Hidden1},
		{"hidden layer 2", c.Hidden2},
	}
	for _, s := range sizes {
		if s.size <= 0 {
			return &Error{
				Op:  "validate",
				Err: fmt.Errorf("%w: %v must be positive, have %d", ErrInvalidSize, s.name, s.size),
			}
		}
	}

	if err := c.FanIn.Validate(); err != nil {
		return err
	}

	if c.FinalInit == nil || c.FinalInit.Config == nil {
		return fmt.Errorf("validate: no final layer initializer")
	}
	return nil
}

// Actor returns a new Actor described by the Config
func (c Config) Actor() (*Actor, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("actor: invalid config: %w", err)
	}
	return newActor(c)
}

// Critic returns a new Critic described by the Config
func (c Config) Critic() (*Critic, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("critic: invalid config: %w", err)
	}
	return newCritic(c)
}

// Option configures an Actor or Critic at construction
type Option func(*Config)

// WithHidden sets the number of units in the two hidden layers
func WithHidden(hidden1, hidden2 int) Option {
	return func(c *Config) {
		c.Hidden1 = hidden1
		c.Hidden2 = hidden2
	}
}

// WithFanIn sets the fan-in convention used to initialize the hidden
// layers
func WithFanIn(conv initwfn.FanIn) Option {
	return func(c *Config) {
		c.FanIn = conv
	}
}

// WithFinalInit sets the initializer of the output layer weights
func WithFinalInit(init *initwfn.InitWFn) Option {
	return func(c *Config) {
		c.FinalInit = init
	}
}

// newConfig returns the default Config with opts applied
func newConfig(stateSize, actionSize int, seed uint64, opts []Option) Config {
	c := DefaultConfig(stateSize, actionSize, seed)
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// marshal encodes the Config as JSON for embedding in gob streams. The
// final layer initializer is an interface, which gob cannot encode
// without registration.
func (c Config) marshal() ([]byte, error) {
	return json.Marshal(c)
}

// unmarshalConfig decodes a Config encoded by marshal
func unmarshalConfig(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}
