package network

import (
	"fmt"

	"github.com/samuelfneumann/ddpgnet/initwfn"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// Critic implements an action value network which maps state-action
// pairs to scalar values:
//
//	xs = relu(bn1(fcs1(state)))
//	x  = relu(fc2([xs | action]))
//	Q  = fc3(x)
//
// The action enters the network after the first hidden layer. The
// output is unbounded.
//
// bn1 is the only stateful layer: in training mode each forward pass
// normalizes with batch statistics and updates the running statistics,
// while in evaluation mode the running statistics are used as is. A
// Critic starts in training mode.
type Critic struct {
	config Config
	src    rand.Source

	fcs1     *Linear
	bn1      *BatchNorm
	fc2, fc3 *Linear
}

// NewCritic returns a new Critic for states with stateSize features
// and actions with actionSize dimensions. By default the hidden layers
// have DefaultHidden1 and DefaultHidden2 units.
func NewCritic(stateSize, actionSize int, seed uint64,
	opts ...Option) (*Critic, error) {
	return newConfig(stateSize, actionSize, seed, opts).Critic()
}

// newCritic constructs a Critic from a validated Config
func newCritic(c Config) (*Critic, error) {
	src := rand.NewSource(c.Seed)

	fcs1, err := newLinear("fcs1", c.StateSize, c.Hidden1, Identity(), src)
	if err != nil {
		return nil, fmt.Errorf("newcritic: %w", err)
	}
	bn1, err := NewBatchNorm("bn1", c.Hidden1)
	if err != nil {
		return nil, fmt.Errorf("newcritic: %w", err)
	}
	fc2, err := newLinear("fc2", c.Hidden1+c.ActionSize, c.Hidden2, ReLU(),
		src)
	if err != nil {
		return nil, fmt.Errorf("newcritic: %w", err)
	}
	fc3, err := newLinear("fc3", c.Hidden2, 1, Identity(), src)
	if err != nil {
		return nil, fmt.Errorf("newcritic: %w", err)
	}

	critic := &Critic{
		config: c,
		src:    src,
		fcs1:   fcs1,
		bn1:    bn1,
		fc2:    fc2,
		fc3:    fc3,
	}
	critic.ResetParameters()

	return critic, nil
}

// ResetParameters reinitializes the weights of the Critic's linear
// layers. fcs1 and fc2 are drawn uniformly within the bounds given by
// initwfn.HiddenInit and fc3 using the configured final initializer.
// Biases and bn1 are left unchanged.
func (c *Critic) ResetParameters() {
	hidden := initwfn.HiddenUniformConfig{FanIn: c.config.FanIn}.Create(c.src)
	hidden.Initialize(c.fcs1.weights)
	hidden.Initialize(c.fc2.weights)
	c.config.FinalInit.Initializer(c.src).Initialize(c.fc3.weights)
}

// Train sets the Critic to training mode
func (c *Critic) Train() {
	c.bn1.Train()
}

// Eval sets the Critic to evaluation mode
func (c *Critic) Eval() {
	c.bn1.Eval()
}

// IsEval returns whether the Critic is in evaluation mode
func (c *Critic) IsEval() bool {
	return c.bn1.IsEval()
}

// Forward computes the action values of a batch of state-action pairs,
// one pair per row. The returned matrix is batch x 1.
//
// In training mode Forward updates the running statistics of bn1 and
// requires at least two samples.
func (c *Critic) Forward(state, action mat.Matrix) (*mat.Dense, error) {
	if state == nil || action == nil {
		return nil, &Error{Op: "forward", Err: fmt.Errorf("%w: nil input",
			ErrShapeMismatch)}
	}

	stateBatch, stateFeatures := state.Dims()
	actionBatch, actionFeatures := action.Dims()
	if stateBatch != actionBatch {
		return nil, &Error{
			Op: "forward",
			Err: fmt.Errorf("%w: state batch size %v != action batch "+
				"size %v", ErrShapeMismatch, stateBatch, actionBatch),
		}
	}
	if stateFeatures != c.config.StateSize {
		return nil, &Error{
			Op: "forward",
			Err: fmt.Errorf("%w: state\n\twant(%v)\n\thave(%v)",
				ErrShapeMismatch, c.config.StateSize, stateFeatures),
		}
	}
	if actionFeatures != c.config.ActionSize {
		return nil, &Error{
			Op: "forward",
			Err: fmt.Errorf("%w: action\n\twant(%v)\n\thave(%v)",
				ErrShapeMismatch, c.config.ActionSize, actionFeatures),
		}
	}

	xs, err := c.fcs1.fwd(state)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	if xs, err = c.bn1.fwd(xs); err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	ReLU().fwd(xs)

	var concat mat.Dense
	concat.Augment(xs, action)

	x, err := c.fc2.fwd(&concat)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	if x, err = c.fc3.fwd(x); err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	return x, nil
}

// StateSize returns the number of state features the Critic takes as
// input
func (c *Critic) StateSize() int {
	return c.config.StateSize
}

// ActionSize returns the number of action dimensions the Critic takes
// as input
func (c *Critic) ActionSize() int {
	return c.config.ActionSize
}

// BatchNorm returns the batch normalization layer of the Critic
func (c *Critic) BatchNorm() *BatchNorm {
	return c.bn1
}

// Layers returns the linear layers of the Critic in forward order
func (c *Critic) Layers() []*Linear {
	return []*Linear{c.fcs1, c.fc2, c.fc3}
}

// Config returns the configuration of the Critic
func (c *Critic) Config() Config {
	return c.config
}

// Params returns a copy of the parameters of the Critic, keyed by
// layer name. The running statistics of bn1 are included.
func (c *Critic) Params() Params {
	p := make(Params, 4)
	for _, l := range c.Layers() {
		p[l.name] = l.params()
	}
	p[c.bn1.name] = c.bn1.params()
	return p
}

// SetParams overwrites the parameters of the Critic. If p does not
// match the Critic, an error is returned and the Critic is left
// unchanged.
func (c *Critic) SetParams(p Params) error {
	if err := p.checkNames("fcs1", "bn1", "fc2", "fc3"); err != nil {
		return err
	}

	for _, l := range c.Layers() {
		if err := l.checkParams(p[l.name]); err != nil {
			return err
		}
	}
	if err := c.bn1.checkParams(p[c.bn1.name]); err != nil {
		return err
	}

	for _, l := range c.Layers() {
		if err := l.setParams(p[l.name]); err != nil {
			return err
		}
	}
	return c.bn1.setParams(p[c.bn1.name])
}

// Clone returns a deep copy of the Critic, including its mode. The
// clone owns a new random source seeded with the Critic's seed.
func (c *Critic) Clone() (*Critic, error) {
	clone, err := newCritic(c.config)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if err := clone.SetParams(c.Params()); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if c.IsEval() {
		clone.Eval()
	}
	return clone, nil
}

// Graph adds the Critic to the computational graph g with the given
// state and action nodes as input, which must be batch x StateSize and
// batch x ActionSize matrix nodes. bn1 is added with its current
// running statistics, which corresponds to an evaluation mode forward
// pass. The output node and the learnable nodes, initialized to the
// Critic's current parameters, are returned.
func (c *Critic) Graph(g *G.ExprGraph, state, action *G.Node) (*G.Node,
	G.Nodes, error) {
	if !state.IsMatrix() || state.Shape()[1] != c.config.StateSize {
		return nil, nil, &Error{
			Op: "graph",
			Err: fmt.Errorf("%w: state node of shape %v", ErrShapeMismatch,
				state.Shape()),
		}
	}
	if !action.IsMatrix() || action.Shape()[1] != c.config.ActionSize ||
		action.Shape()[0] != state.Shape()[0] {
		return nil, nil, &Error{
			Op: "graph",
			Err: fmt.Errorf("%w: action node of shape %v", ErrShapeMismatch,
				action.Shape()),
		}
	}

	const prefix = "critic/"
	var learnables G.Nodes

	xs, nodes, err := c.fcs1.graph(g, state, prefix)
	if err != nil {
		return nil, nil, err
	}
	learnables = append(learnables, nodes...)

	if xs, nodes, err = c.bn1.graph(g, xs, prefix); err != nil {
		return nil, nil, err
	}
	learnables = append(learnables, nodes...)
	if xs, err = ReLU().graph(xs); err != nil {
		return nil, nil, fmt.Errorf("graph: %w", err)
	}

	x, err := G.Concat(1, xs, action)
	if err != nil {
		return nil, nil, fmt.Errorf("graph: could not concatenate action: %w",
			err)
	}

	for _, l := range []*Linear{c.fc2, c.fc3} {
		if x, nodes, err = l.graph(g, x, prefix); err != nil {
			return nil, nil, err
		}
		learnables = append(learnables, nodes...)
	}
	return x, learnables, nil
}

// GobEncode implements the gob.GobEncoder interface. The mode of the
// Critic is not encoded; decoded Critics start in training mode.
func (c *Critic) GobEncode() ([]byte, error) {
	return gobEncode(c.config, c.Params())
}

// GobDecode implements the gob.GobDecoder interface
func (c *Critic) GobDecode(in []byte) error {
	config, p, err := gobDecode(in)
	if err != nil {
		return err
	}

	critic, err := config.Critic()
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct critic: %v", err)
	}
	if err := critic.SetParams(p); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	*c = *critic
	return nil
}
