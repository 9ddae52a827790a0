package initwfn

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FanIn determines which dimension of a weight matrix is treated as the
// fan-in of the layer when computing initialisation bounds.
//
// Weight matrices are stored [out, in]: row i holds the weights of
// output unit i. FanInRows takes the first storage dimension, which is
// the number of outputs of the layer. This matches the bounds used by
// the reference DDPG actor and critic. FanInCols takes the number of
// inputs, which is the textbook fan-in.
type FanIn string

const (
	FanInRows FanIn = "rows"
	FanInCols FanIn = "cols"
)

// Validate returns an error if the FanIn convention is unknown
func (f FanIn) Validate() error {
	switch f {
	case FanInRows, FanInCols:
		return nil
	}
	return fmt.Errorf("validate: unknown fan-in convention %q", string(f))
}

// HiddenInit returns the symmetric bounds (-1/sqrt(fanIn), 1/sqrt(fanIn))
// used to initialise the hidden layers of a network, where fanIn is
// taken from the dimensions of weights according to conv.
func HiddenInit(weights mat.Matrix, conv FanIn) (low, high float64) {
	r, c := weights.Dims()
	fanIn := r
	if conv == FanInCols {
		fanIn = c
	}
	lim := 1.0 / math.Sqrt(float64(fanIn))
	return -lim, lim
}

// HiddenUniformConfig implements a configuration of a weight
// initializer which draws weights from a uniform distribution whose
// bounds are computed from the fan-in of the weights being initialised.
type HiddenUniformConfig struct {
	FanIn FanIn
}

// NewHiddenUniform returns a new fan-in scaled uniform weight
// initializer
func NewHiddenUniform(conv FanIn) (*InitWFn, error) {
	if err := conv.Validate(); err != nil {
		return nil, fmt.Errorf("newhiddenuniform: %w", err)
	}
	return newInitWFn(HiddenUniformConfig{FanIn: conv})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (h HiddenUniformConfig) Type() Type {
	return HiddenUniform
}

// Create returns the weight initialization algorithm
func (h HiddenUniformConfig) Create(src rand.Source) Initializer {
	conv := h.FanIn
	if conv == "" {
		conv = FanInRows
	}
	return hiddenUniform{conv: conv, src: src}
}

// hiddenUniform initializes weights uniformly in the bounds returned
// by HiddenInit
type hiddenUniform struct {
	conv FanIn
	src  rand.Source
}

// Initialize implements the Initializer interface
func (h hiddenUniform) Initialize(weights *mat.Dense) {
	if weights == nil || weights.IsEmpty() {
		return
	}
	low, high := HiddenInit(weights, h.conv)
	dist := distuv.Uniform{Min: low, Max: high, Src: h.src}
	fill(weights, dist.Rand)
}
