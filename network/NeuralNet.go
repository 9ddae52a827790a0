// Package network implements the Actor (policy) and Critic (value)
// networks of a deterministic actor-critic agent such as DDPG.
//
// The Actor maps a batch of states to a batch of actions bounded in
// (-1, 1). The Critic maps a batch of state-action pairs to a batch of
// scalar action values. Both networks are computed with gonum matrices,
// one sample per row, and can also be exported to a Gorgonia
// computational graph so that an external training loop can
// differentiate through them.
//
// Each network owns its own random source, seeded at construction, so
// that two networks built with the same seed and sizes have identical
// parameters.
package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
)

// Network is a neural network whose parameters can be read, replaced,
// reinitialized, and serialized.
type Network interface {
	gob.GobEncoder
	gob.GobDecoder

	// Config returns the configuration the network was built with
	Config() Config

	// Params returns a copy of the parameters of the network
	Params() Params

	// SetParams overwrites the parameters of the network
	SetParams(Params) error

	// ResetParameters reinitializes the weights of the network
	ResetParameters()
}

// Save gob encodes a Network to a file
func Save(net Network, filename string) error {
	data, err := net.GobEncode()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("save: could not write file: %w", err)
	}
	return nil
}

// Load decodes a Network saved with Save into net
func Load(net Network, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("load: could not read file: %w", err)
	}
	if err := net.GobDecode(data); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

// gobEncode encodes the configuration and parameters of a network
func gobEncode(c Config, p Params) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	config, err := c.marshal()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode config: %v", err)
	}
	if err := enc.Encode(config); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode config: %v", err)
	}

	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode parameters: %v",
			err)
	}
	return buf.Bytes(), nil
}

// gobDecode decodes the configuration and parameters of a network
// encoded by gobEncode
func gobDecode(in []byte) (Config, Params, error) {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var data []byte
	if err := dec.Decode(&data); err != nil {
		return Config{}, nil, fmt.Errorf("gobdecode: could not decode "+
			"config: %v", err)
	}
	config, err := unmarshalConfig(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("gobdecode: could not decode "+
			"config: %v", err)
	}

	var p Params
	if err := dec.Decode(&p); err != nil {
		return Config{}, nil, fmt.Errorf("gobdecode: could not decode "+
			"parameters: %v", err)
	}
	return config, p, nil
}
