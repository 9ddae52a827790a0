package initwfn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// UniformConfig implements a configuration of a weight initializer that
// draws weights from a uniform distribution with fixed bounds
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	config := UniformConfig{
		Low:  low,
		High: high,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm
func (u UniformConfig) Create(src rand.Source) Initializer {
	return uniform{distuv.Uniform{Min: u.Low, Max: u.High, Src: src}}
}

// uniform initializes weights with draws from a fixed uniform
// distribution
type uniform struct {
	dist distuv.Uniform
}

// Initialize implements the Initializer interface
func (u uniform) Initialize(weights *mat.Dense) {
	fill(weights, u.dist.Rand)
}
