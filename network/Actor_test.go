package network

import (
	"errors"
	"math"
	"testing"

	"github.com/samuelfneumann/ddpgnet/initwfn"
	"github.com/samuelfneumann/ddpgnet/utils/matutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// randomBatch returns a rows x cols matrix with elements drawn from
// U(min, max)
func randomBatch(rows, cols int, min, max float64, seed uint64) *mat.Dense {
	return matutils.Uniform(rows, cols, min, max, rand.NewSource(seed))
}

func TestActorReproducible(t *testing.T) {
	sizes := []struct{ state, action int }{{33, 4}, {3, 1}, {8, 2}}

	for _, size := range sizes {
		for _, seed := range []uint64{0, 2, 192382} {
			a1, err := NewActor(size.state, size.action, seed)
			if err != nil {
				t.Fatal(err)
			}
			a2, err := NewActor(size.state, size.action, seed)
			if err != nil {
				t.Fatal(err)
			}

			p1, p2 := a1.Params(), a2.Params()
			for _, name := range p1.Names() {
				if !equalFloats(p1[name].Weights, p2[name].Weights) ||
					!equalFloats(p1[name].Bias, p2[name].Bias) {
					t.Errorf("sizes %v seed %v: layer %v differs", size, seed,
						name)
				}
			}
		}
	}
}

func TestActorDifferentSeeds(t *testing.T) {
	a1, _ := NewActor(33, 4, 1)
	a2, _ := NewActor(33, 4, 2)
	if mat.Equal(a1.fc1.weights, a2.fc1.weights) {
		t.Error("different seeds produced identical weights")
	}
}

func TestActorScenario(t *testing.T) {
	actor, err := NewActor(33, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	state := randomBatch(5, 33, -1, 1, 7)
	action, err := actor.Forward(state)
	if err != nil {
		t.Fatal(err)
	}

	r, c := action.Dims()
	if r != 5 || c != 4 {
		t.Fatalf("invalid output shape \n\twant(5, 4) \n\thave(%v, %v)", r, c)
	}
	for _, v := range action.RawMatrix().Data {
		if !(v > -1 && v < 1) {
			t.Errorf("action %v outside (-1, 1)", v)
		}
	}
}

func TestActorBoundedForLargeInputs(t *testing.T) {
	actor, err := NewActor(4, 3, 5, WithFinalInit(mustUniform(-10, 10)))
	if err != nil {
		t.Fatal(err)
	}

	for _, scale := range []float64{1, 1e3, 1e8, 1e100} {
		state := randomBatch(16, 4, -scale, scale, 3)
		action, err := actor.Forward(state)
		if err != nil {
			t.Fatal(err)
		}
		for _, v := range action.RawMatrix().Data {
			if !(v > -1 && v < 1) {
				t.Errorf("scale %v: action %v outside (-1, 1)", scale, v)
			}
		}
	}
}

func TestActorRowsIndependent(t *testing.T) {
	actor, _ := NewActor(6, 2, 11)
	state := randomBatch(4, 6, -1, 1, 1)

	batch, err := actor.Forward(state)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 4; i++ {
		single, err := actor.Act(state.RawRowView(i))
		if err != nil {
			t.Fatal(err)
		}
		if !floats.EqualApprox(single, batch.RawRowView(i), 1e-12) {
			t.Errorf("row %v: batched %v != single %v", i, batch.RawRowView(i),
				single)
		}
	}
}

func TestActorInitialization(t *testing.T) {
	actor, err := NewActor(33, 4, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Hidden layers use the number of rows as fan-in by default
	for _, l := range []*Linear{actor.fc1, actor.fc2} {
		lim := 1 / math.Sqrt(float64(l.Out()))
		checkBounds(t, l.name, l.weights.RawMatrix().Data, lim)
	}
	checkBounds(t, "fc3", actor.fc3.weights.RawMatrix().Data, FinalBound)

	// Biases use the library default bound from the number of inputs
	for _, l := range actor.Layers() {
		lim := 1 / math.Sqrt(float64(l.In()))
		checkBounds(t, l.name+" bias", l.bias.RawVector().Data, lim)
	}

	cols, err := NewActor(33, 4, 2, WithFanIn(initwfn.FanInCols))
	if err != nil {
		t.Fatal(err)
	}
	lim := 1 / math.Sqrt(33)
	checkBounds(t, "fc1 cols", cols.fc1.weights.RawMatrix().Data, lim)
}

func TestActorResetParameters(t *testing.T) {
	actor, _ := NewActor(5, 2, 3)
	before := actor.Params()

	actor.ResetParameters()
	after := actor.Params()

	for _, name := range before.Names() {
		if !equalFloats(before[name].Bias, after[name].Bias) {
			t.Errorf("layer %v: bias changed on reset", name)
		}
		if equalFloats(before[name].Weights, after[name].Weights) {
			t.Errorf("layer %v: weights unchanged on reset", name)
		}
	}
}

func TestActorErrors(t *testing.T) {
	invalid := []struct{ state, action int }{{0, 4}, {33, 0}, {-1, 2}}
	for _, size := range invalid {
		if _, err := NewActor(size.state, size.action, 0); !errors.Is(err,
			ErrInvalidSize) {
			t.Errorf("sizes %v: want ErrInvalidSize have %v", size, err)
		}
	}

	if _, err := NewActor(3, 2, 0, WithHidden(0, 4)); !errors.Is(err,
		ErrInvalidSize) {
		t.Errorf("hidden 0: want ErrInvalidSize have %v", err)
	}

	actor, _ := NewActor(3, 2, 0)
	if _, err := actor.Forward(randomBatch(2, 4, -1, 1, 0)); !IsShapeMismatch(
		err) {
		t.Errorf("want shape mismatch have %v", err)
	}
	if _, err := actor.Act([]float64{1}); !IsShapeMismatch(err) {
		t.Errorf("want shape mismatch have %v", err)
	}
}

func TestActorClone(t *testing.T) {
	actor, _ := NewActor(7, 3, 9)
	clone, err := actor.Clone()
	if err != nil {
		t.Fatal(err)
	}

	state := randomBatch(3, 7, -1, 1, 2)
	want, _ := actor.Forward(state)
	have, _ := clone.Forward(state)
	if !mat.Equal(want, have) {
		t.Error("clone computes a different forward pass")
	}

	// Modifying the clone must not modify the original
	clone.fc1.weights.Set(0, 0, 100)
	if actor.fc1.weights.At(0, 0) == 100 {
		t.Error("clone shares weights with the original")
	}
}

func checkBounds(t *testing.T, name string, values []float64, lim float64) {
	t.Helper()
	for _, v := range values {
		if v < -lim || v > lim {
			t.Errorf("%v: value %v outside [%v, %v]", name, v, -lim, lim)
			return
		}
	}
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func mustUniform(low, high float64) *initwfn.InitWFn {
	init, err := initwfn.NewUniform(low, high)
	if err != nil {
		panic(err)
	}
	return init
}
