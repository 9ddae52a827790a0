package network

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"
)

// LayerParams holds the parameters of a single layer. Weights are
// stored row-major with shape Rows x Cols, which for a linear layer is
// [out, in]. RunningMean and RunningVar are only set for batch
// normalization layers.
type LayerParams struct {
	Rows, Cols  int
	Weights     []float64
	Bias        []float64
	RunningMean []float64
	RunningVar  []float64
}

// Params maps layer names to their parameters
type Params map[string]LayerParams

// Names returns the layer names in sorted order
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkNames returns an error if p does not hold exactly the named
// layers
func (p Params) checkNames(names ...string) error {
	if len(p) != len(names) {
		return &Error{
			Op: "setparams",
			Err: fmt.Errorf("%w: want layers %v have %v", ErrParamsMismatch,
				names, p.Names()),
		}
	}
	for _, name := range names {
		if _, ok := p[name]; !ok {
			return &Error{
				Op:  "setparams",
				Err: fmt.Errorf("%w: missing layer %v", ErrParamsMismatch, name),
			}
		}
	}
	return nil
}

// Save gob encodes the parameters to a file
func (p Params) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(p); err != nil {
		return fmt.Errorf("save: could not encode parameters: %w", err)
	}
	return file.Sync()
}

// LoadParams loads parameters saved with Params.Save
func LoadParams(filename string) (Params, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadparams: could not open file: %w", err)
	}
	defer file.Close()

	var p Params
	if err := gob.NewDecoder(file).Decode(&p); err != nil {
		return nil, fmt.Errorf("loadparams: could not decode parameters: %w",
			err)
	}
	return p, nil
}
