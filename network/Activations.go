package network

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/ddpgnet/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// tanhBound is the largest float64 below 1. math.Tanh rounds to exactly
// ±1 for inputs of magnitude above roughly 19, so outputs are clipped
// to keep them in the open interval (-1, 1).
var tanhBound = math.Nextafter(1, 0)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
)

// Activation represents an element-wise activation function. Each
// Activation can be applied to a gonum matrix or added to a Gorgonia
// computational graph.
type Activation struct {
	activationType
	f func(x float64) float64
	g func(x *G.Node) (*G.Node, error)
}

// fwd applies the Activation in place to each element of x
func (a *Activation) fwd(x *mat.Dense) {
	if a.activationType == identity {
		return
	}
	x.Apply(func(_, _ int, v float64) float64 { return a.f(v) }, x)
}

// graph adds the Activation to the computational graph of x
func (a *Activation) graph(x *G.Node) (*G.Node, error) {
	return a.g(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.activationType), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	decoded := activationType(encoded)
	switch decoded {
	case relu:
		*a = *ReLU()
	case identity:
		*a = *Identity()
	case tanh:
		*a = *TanH()
	default:
		return fmt.Errorf("gobdecode: illegal Activation type %q", decoded)
	}
	return nil
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f:              func(x float64) float64 { return x },
		g: func(x *G.Node) (*G.Node, error) {
			return x, nil
		},
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f:              func(x float64) float64 { return math.Max(x, 0) },
		g:              G.Rectify,
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f: func(x float64) float64 {
			return floatutils.Clip(math.Tanh(x), -tanhBound, tanhBound)
		},
		g: G.Tanh,
	}
}
