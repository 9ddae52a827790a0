package network

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const (
	// DefaultMomentum is the weight given to the newest batch statistics
	// when updating the running statistics of a BatchNorm layer
	DefaultMomentum = 0.1

	// DefaultEps is added to the variance before normalizing
	DefaultEps = 1e-5
)

// BatchNorm normalizes each feature of its input across the batch
// dimension and then applies a learned per-feature scale (gamma) and
// shift (beta).
//
// In training mode, inputs are normalized with the mean and biased
// variance of the batch, and the running statistics are moved towards
// the batch mean and unbiased batch variance:
//
//	running = (1 - Momentum) * running + Momentum * batch
//
// In evaluation mode, inputs are normalized with the frozen running
// statistics. Running statistics are only ever written by training mode
// forward passes, which are serialized by the layer.
type BatchNorm struct {
	name     string
	features int

	Momentum float64
	Eps      float64

	gamma, beta []float64

	mu          sync.Mutex
	runningMean []float64
	runningVar  []float64
	training    bool
}

// NewBatchNorm returns a new BatchNorm layer over the given number of
// features. The layer starts in training mode with gamma = 1, beta = 0,
// a running mean of 0, and a running variance of 1.
func NewBatchNorm(name string, features int) (*BatchNorm, error) {
	if features <= 0 {
		return nil, &Error{
			Op:  "newbatchnorm",
			Err: fmt.Errorf("%w: %v features", ErrInvalidSize, features),
		}
	}

	gamma := make([]float64, features)
	runningVar := make([]float64, features)
	for i := range gamma {
		gamma[i] = 1
		runningVar[i] = 1
	}

	return &BatchNorm{
		name:        name,
		features:    features,
		Momentum:    DefaultMomentum,
		Eps:         DefaultEps,
		gamma:       gamma,
		beta:        make([]float64, features),
		runningMean: make([]float64, features),
		runningVar:  runningVar,
		training:    true,
	}, nil
}

// Train sets the layer to training mode
func (b *BatchNorm) Train() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.training = true
}

// Eval sets the layer to evaluation mode
func (b *BatchNorm) Eval() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.training = false
}

// IsEval returns whether the layer is in evaluation mode
func (b *BatchNorm) IsEval() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.training
}

// Features returns the number of features normalized by the layer
func (b *BatchNorm) Features() int {
	return b.features
}

// RunningMean returns a copy of the running mean
func (b *BatchNorm) RunningMean() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float64(nil), b.runningMean...)
}

// RunningVar returns a copy of the running variance
func (b *BatchNorm) RunningVar() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float64(nil), b.runningVar...)
}

// fwd normalizes x, one sample per row
func (b *BatchNorm) fwd(x *mat.Dense) (*mat.Dense, error) {
	batch, features := x.Dims()
	if features != b.features {
		return nil, &Error{
			Op: "fwd",
			Err: fmt.Errorf("%w: layer %v\n\twant(%v)\n\thave(%v)",
				ErrShapeMismatch, b.name, b.features, features),
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	mean := make([]float64, features)
	variance := make([]float64, features)
	if b.training {
		if batch < 2 {
			return nil, &Error{Op: "fwd", Err: ErrBatchTooSmall}
		}

		col := make([]float64, batch)
		n := float64(batch)
		for j := 0; j < features; j++ {
			mat.Col(col, j, x)
			m, unbiased := stat.MeanVariance(col, nil)
			mean[j] = m
			variance[j] = unbiased * (n - 1) / n

			b.runningMean[j] = (1-b.Momentum)*b.runningMean[j] +
				b.Momentum*m
			b.runningVar[j] = (1-b.Momentum)*b.runningVar[j] +
				b.Momentum*unbiased
		}
	} else {
		copy(mean, b.runningMean)
		copy(variance, b.runningVar)
	}

	out := mat.NewDense(batch, features, nil)
	for j := 0; j < features; j++ {
		scale := b.gamma[j] / math.Sqrt(variance[j]+b.Eps)
		for i := 0; i < batch; i++ {
			out.Set(i, j, (x.At(i, j)-mean[j])*scale+b.beta[j])
		}
	}
	return out, nil
}

// graph adds the layer to a Gorgonia computational graph using the
// current running statistics, i.e. the evaluation mode computation.
// The returned nodes are gamma and beta.
func (b *BatchNorm) graph(g *G.ExprGraph, x *G.Node, prefix string) (*G.Node,
	G.Nodes, error) {
	b.mu.Lock()
	mean := append([]float64(nil), b.runningMean...)
	invStd := make([]float64, b.features)
	for j := range invStd {
		invStd[j] = 1 / math.Sqrt(b.runningVar[j]+b.Eps)
	}
	b.mu.Unlock()

	// Per-feature values are 1 x features rows which are broadcast
	// along the batch dimension
	vec := func(name string, data []float64) *G.Node {
		return G.NewMatrix(
			g,
			tensor.Float64,
			G.WithShape(1, b.features),
			G.WithName(prefix+b.name+"."+name),
			G.WithValue(tensor.New(
				tensor.WithShape(1, b.features),
				tensor.WithBacking(append([]float64(nil), data...)),
			)),
		)
	}
	meanNode := vec("running_mean", mean)
	invStdNode := vec("inv_std", invStd)
	gamma := vec("weight", b.gamma)
	beta := vec("bias", b.beta)

	pred, err := G.BroadcastSub(x, meanNode, nil, []byte{0})
	if err != nil {
		return nil, nil, fmt.Errorf("graph: layer %v: %w", b.name, err)
	}
	if pred, err = G.BroadcastHadamardProd(pred, invStdNode, nil,
		[]byte{0}); err != nil {
		return nil, nil, fmt.Errorf("graph: layer %v: %w", b.name, err)
	}
	if pred, err = G.BroadcastHadamardProd(pred, gamma, nil,
		[]byte{0}); err != nil {
		return nil, nil, fmt.Errorf("graph: layer %v: %w", b.name, err)
	}
	if pred, err = G.BroadcastAdd(pred, beta, nil, []byte{0}); err != nil {
		return nil, nil, fmt.Errorf("graph: layer %v: %w", b.name, err)
	}

	return pred, G.Nodes{gamma, beta}, nil
}

// params returns a copy of the layer's parameters. Gamma is stored as a
// 1 x features weight matrix and beta as the bias.
func (b *BatchNorm) params() LayerParams {
	b.mu.Lock()
	defer b.mu.Unlock()

	return LayerParams{
		Rows:        1,
		Cols:        b.features,
		Weights:     append([]float64(nil), b.gamma...),
		Bias:        append([]float64(nil), b.beta...),
		RunningMean: append([]float64(nil), b.runningMean...),
		RunningVar:  append([]float64(nil), b.runningVar...),
	}
}

// checkParams returns an error if p cannot be loaded into the layer
func (b *BatchNorm) checkParams(p LayerParams) error {
	n := b.features
	if p.Rows != 1 || p.Cols != n || len(p.Weights) != n ||
		len(p.Bias) != n || len(p.RunningMean) != n ||
		len(p.RunningVar) != n {
		return &Error{
			Op: "setparams",
			Err: fmt.Errorf("%w: layer %v\n\twant(1x%d)\n\thave(%dx%d)",
				ErrParamsMismatch, b.name, n, p.Rows, p.Cols),
		}
	}
	return nil
}

// setParams overwrites the layer's parameters and running statistics
func (b *BatchNorm) setParams(p LayerParams) error {
	if err := b.checkParams(p); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.gamma, p.Weights)
	copy(b.beta, p.Bias)
	copy(b.runningMean, p.RunningMean)
	copy(b.runningVar, p.RunningVar)
	return nil
}
