package network

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Linear implements a fully connected layer of a feed forward neural
// network, computing act(x W^T + b).
//
// Weights are stored [out, in] so that row i holds the weights feeding
// output unit i. The dimensions of a Linear layer are fixed at
// construction; only the values of its weights and bias change.
type Linear struct {
	name    string
	weights *mat.Dense
	bias    *mat.VecDense
	act     *Activation
}

// newLinear returns a new Linear layer with in inputs and out outputs.
// Bias units are drawn from U(-1/sqrt(in), 1/sqrt(in)) using src. The
// weights are left at zero, the owning network initializes them.
func newLinear(name string, in, out int, act *Activation,
	src rand.Source) (*Linear, error) {
	if in <= 0 || out <= 0 {
		return nil, &Error{
			Op:  "newlinear",
			Err: fmt.Errorf("%w: layer %v (%d -> %d)", ErrInvalidSize, name, in, out),
		}
	}

	lim := 1 / math.Sqrt(float64(in))
	dist := distuv.Uniform{Min: -lim, Max: lim, Src: src}
	bias := make([]float64, out)
	for i := range bias {
		bias[i] = dist.Rand()
	}

	return &Linear{
		name:    name,
		weights: mat.NewDense(out, in, nil),
		bias:    mat.NewVecDense(out, bias),
		act:     act,
	}, nil
}

// In returns the number of input features of the layer
func (l *Linear) In() int {
	_, c := l.weights.Dims()
	return c
}

// Out returns the number of output features of the layer
func (l *Linear) Out() int {
	r, _ := l.weights.Dims()
	return r
}

// Weights returns the weights of the layer. Modifying the returned
// matrix modifies the layer.
func (l *Linear) Weights() *mat.Dense {
	return l.weights
}

// Bias returns the bias of the layer. Modifying the returned vector
// modifies the layer.
func (l *Linear) Bias() *mat.VecDense {
	return l.bias
}

// Activation returns the activation function applied by the layer
func (l *Linear) Activation() *Activation {
	return l.act
}

// fwd computes the forward pass of the layer on a batch of inputs,
// one sample per row
func (l *Linear) fwd(x mat.Matrix) (*mat.Dense, error) {
	batch, features := x.Dims()
	if batch == 0 {
		return nil, &Error{
			Op:  "fwd",
			Err: fmt.Errorf("%w: layer %v: empty batch", ErrShapeMismatch, l.name),
		}
	}
	if features != l.In() {
		return nil, &Error{
			Op: "fwd",
			Err: fmt.Errorf("%w: layer %v\n\twant(%v)\n\thave(%v)",
				ErrShapeMismatch, l.name, l.In(), features),
		}
	}

	out := mat.NewDense(batch, l.Out(), nil)
	out.Mul(x, l.weights.T())

	// Broadcast the bias to all samples along the batch dimension
	bias := l.bias.RawVector().Data
	for i := 0; i < batch; i++ {
		row := out.RawRowView(i)
		for j := range row {
			row[j] += bias[j]
		}
	}

	if l.act != nil {
		l.act.fwd(out)
	}
	return out, nil
}

// graph adds the layer to a Gorgonia computational graph, using x as
// input. Weights are transposed to the [in, out] layout so that the
// forward pass is x·W. The returned nodes are the weights and bias.
func (l *Linear) graph(g *G.ExprGraph, x *G.Node, prefix string) (*G.Node,
	G.Nodes, error) {
	in, out := l.In(), l.Out()

	weightsT := mat.DenseCopyOf(l.weights.T())
	weights := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(in, out),
		G.WithName(prefix+l.name+".weight"),
		G.WithValue(tensor.New(
			tensor.WithShape(in, out),
			tensor.WithBacking(weightsT.RawMatrix().Data),
		)),
	)

	biasData := make([]float64, out)
	copy(biasData, l.bias.RawVector().Data)
	bias := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(1, out),
		G.WithName(prefix+l.name+".bias"),
		G.WithValue(tensor.New(
			tensor.WithShape(1, out),
			tensor.WithBacking(biasData),
		)),
	)

	pred, err := G.Mul(x, weights)
	if err != nil {
		return nil, nil, fmt.Errorf("graph: layer %v: %w", l.name, err)
	}
	// Broadcast the bias to all samples along the batch dimension
	pred, err = G.BroadcastAdd(pred, bias, nil, []byte{0})
	if err != nil {
		return nil, nil, fmt.Errorf("graph: layer %v: %w", l.name, err)
	}

	if l.act != nil {
		if pred, err = l.act.graph(pred); err != nil {
			return nil, nil, fmt.Errorf("graph: layer %v: %w", l.name, err)
		}
	}
	return pred, G.Nodes{weights, bias}, nil
}

// params returns a copy of the layer's parameters
func (l *Linear) params() LayerParams {
	r, c := l.weights.Dims()
	weights := make([]float64, r*c)
	for i := 0; i < r; i++ {
		copy(weights[i*c:(i+1)*c], l.weights.RawRowView(i))
	}

	bias := make([]float64, r)
	copy(bias, l.bias.RawVector().Data)

	return LayerParams{Rows: r, Cols: c, Weights: weights, Bias: bias}
}

// checkParams returns an error if p cannot be loaded into the layer
func (l *Linear) checkParams(p LayerParams) error {
	r, c := l.weights.Dims()
	if p.Rows != r || p.Cols != c || len(p.Weights) != r*c ||
		len(p.Bias) != r {
		return &Error{
			Op: "setparams",
			Err: fmt.Errorf("%w: layer %v\n\twant(%dx%d)\n\thave(%dx%d)",
				ErrParamsMismatch, l.name, r, c, p.Rows, p.Cols),
		}
	}
	return nil
}

// setParams overwrites the layer's parameters with p
func (l *Linear) setParams(p LayerParams) error {
	if err := l.checkParams(p); err != nil {
		return err
	}

	r, c := l.weights.Dims()
	l.weights.Copy(mat.NewDense(r, c, p.Weights))
	l.bias.CopyVec(mat.NewVecDense(r, p.Bias))
	return nil
}
