package network

import (
	"fmt"

	"github.com/samuelfneumann/ddpgnet/initwfn"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// Actor implements a deterministic policy network which maps states to
// actions:
//
//	action = tanh(fc3(relu(fc2(relu(fc1(state))))))
//
// Actions are bounded element-wise in (-1, 1).
type Actor struct {
	config Config
	src    rand.Source

	fc1, fc2, fc3 *Linear
}

// NewActor returns a new Actor for states with stateSize features and
// actions with actionSize dimensions. By default the hidden layers have
// DefaultHidden1 and DefaultHidden2 units.
func NewActor(stateSize, actionSize int, seed uint64,
	opts ...Option) (*Actor, error) {
	return newConfig(stateSize, actionSize, seed, opts).Actor()
}

// newActor constructs an Actor from a validated Config
func newActor(c Config) (*Actor, error) {
	src := rand.NewSource(c.Seed)

	fc1, err := newLinear("fc1", c.StateSize, c.Hidden1, ReLU(), src)
	if err != nil {
		return nil, fmt.Errorf("newactor: %w", err)
	}
	fc2, err := newLinear("fc2", c.Hidden1, c.Hidden2, ReLU(), src)
	if err != nil {
		return nil, fmt.Errorf("newactor: %w", err)
	}
	fc3, err := newLinear("fc3", c.Hidden2, c.ActionSize, TanH(), src)
	if err != nil {
		return nil, fmt.Errorf("newactor: %w", err)
	}

	a := &Actor{
		config: c,
		src:    src,
		fc1:    fc1,
		fc2:    fc2,
		fc3:    fc3,
	}
	a.ResetParameters()

	return a, nil
}

// ResetParameters reinitializes the weights of the Actor. The hidden
// layers are drawn uniformly within the bounds given by
// initwfn.HiddenInit and the output layer using the configured final
// initializer. Biases are left unchanged.
//
// Random numbers continue from the Actor's own source, so calling
// ResetParameters twice gives different weights.
func (a *Actor) ResetParameters() {
	hidden := initwfn.HiddenUniformConfig{FanIn: a.config.FanIn}.Create(a.src)
	hidden.Initialize(a.fc1.weights)
	hidden.Initialize(a.fc2.weights)
	a.config.FinalInit.Initializer(a.src).Initialize(a.fc3.weights)
}

// Forward computes the actions for a batch of states, one state per
// row.
func (a *Actor) Forward(state mat.Matrix) (*mat.Dense, error) {
	if state == nil {
		return nil, &Error{Op: "forward", Err: fmt.Errorf("%w: nil state",
			ErrShapeMismatch)}
	}

	x, err := a.fc1.fwd(state)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	if x, err = a.fc2.fwd(x); err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	if x, err = a.fc3.fwd(x); err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	return x, nil
}

// Act returns the action for a single state
func (a *Actor) Act(state []float64) ([]float64, error) {
	if len(state) != a.config.StateSize {
		return nil, &Error{
			Op: "act",
			Err: fmt.Errorf("%w: state\n\twant(%v)\n\thave(%v)",
				ErrShapeMismatch, a.config.StateSize, len(state)),
		}
	}

	action, err := a.Forward(mat.NewDense(1, len(state), state))
	if err != nil {
		return nil, err
	}
	return action.RawRowView(0), nil
}

// StateSize returns the number of state features the Actor takes as
// input
func (a *Actor) StateSize() int {
	return a.config.StateSize
}

// ActionSize returns the number of action dimensions the Actor outputs
func (a *Actor) ActionSize() int {
	return a.config.ActionSize
}

// Layers returns the linear layers of the Actor in forward order
func (a *Actor) Layers() []*Linear {
	return []*Linear{a.fc1, a.fc2, a.fc3}
}

// Config returns the configuration of the Actor
func (a *Actor) Config() Config {
	return a.config
}

// Params returns a copy of the parameters of the Actor, keyed by layer
// name
func (a *Actor) Params() Params {
	p := make(Params, 3)
	for _, l := range a.Layers() {
		p[l.name] = l.params()
	}
	return p
}

// SetParams overwrites the parameters of the Actor. If p does not match
// the Actor, an error is returned and the Actor is left unchanged.
func (a *Actor) SetParams(p Params) error {
	if err := p.checkNames("fc1", "fc2", "fc3"); err != nil {
		return err
	}

	// Validate all layers before writing any
	for _, l := range a.Layers() {
		if err := l.checkParams(p[l.name]); err != nil {
			return err
		}
	}
	for _, l := range a.Layers() {
		if err := l.setParams(p[l.name]); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the Actor. The clone owns a new random
// source seeded with the Actor's seed.
func (a *Actor) Clone() (*Actor, error) {
	clone, err := newActor(a.config)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if err := clone.SetParams(a.Params()); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return clone, nil
}

// Graph adds the Actor to the computational graph g with state as
// input, which must be a batch x StateSize matrix node. The output
// node and the learnable nodes, initialized to the Actor's current
// parameters, are returned.
func (a *Actor) Graph(g *G.ExprGraph, state *G.Node) (*G.Node, G.Nodes,
	error) {
	if !state.IsMatrix() || state.Shape()[1] != a.config.StateSize {
		return nil, nil, &Error{
			Op: "graph",
			Err: fmt.Errorf("%w: state node of shape %v", ErrShapeMismatch,
				state.Shape()),
		}
	}

	var learnables G.Nodes
	pred := state
	for _, l := range a.Layers() {
		var nodes G.Nodes
		var err error
		if pred, nodes, err = l.graph(g, pred, "actor/"); err != nil {
			return nil, nil, err
		}
		learnables = append(learnables, nodes...)
	}
	return pred, learnables, nil
}

// GobEncode implements the gob.GobEncoder interface
func (a *Actor) GobEncode() ([]byte, error) {
	return gobEncode(a.config, a.Params())
}

// GobDecode implements the gob.GobDecoder interface
func (a *Actor) GobDecode(in []byte) error {
	config, p, err := gobDecode(in)
	if err != nil {
		return err
	}

	actor, err := config.Actor()
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct actor: %v", err)
	}
	if err := actor.SetParams(p); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	*a = *actor
	return nil
}
