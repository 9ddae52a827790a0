package network

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/ddpgnet/initwfn"
	"gonum.org/v1/gonum/mat"
)

func TestActorGobRoundTrip(t *testing.T) {
	actor, _ := NewActor(33, 4, 2, WithFanIn(initwfn.FanInCols))
	state := randomBatch(5, 33, -1, 1, 1)
	want, _ := actor.Forward(state)

	data, err := actor.GobEncode()
	if err != nil {
		t.Fatal(err)
	}

	var decoded Actor
	if err := decoded.GobDecode(data); err != nil {
		t.Fatal(err)
	}

	have, err := decoded.Forward(state)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(want, have) {
		t.Error("decoded actor computes a different forward pass")
	}
	if decoded.Config().FanIn != initwfn.FanInCols {
		t.Errorf("fan-in: want(%v) have(%v)", initwfn.FanInCols,
			decoded.Config().FanIn)
	}
}

func TestCriticSaveLoad(t *testing.T) {
	critic, _ := NewCritic(33, 4, 2)
	state := randomBatch(5, 33, -1, 1, 1)
	action := randomBatch(5, 4, -1, 1, 2)

	// Update the running statistics so they are part of the round trip
	if _, err := critic.Forward(state, action); err != nil {
		t.Fatal(err)
	}
	critic.Eval()
	want, _ := critic.Forward(state, action)

	filename := filepath.Join(t.TempDir(), "critic.bin")
	if err := Save(critic, filename); err != nil {
		t.Fatal(err)
	}

	var loaded Critic
	if err := Load(&loaded, filename); err != nil {
		t.Fatal(err)
	}
	loaded.Eval()

	have, err := loaded.Forward(state, action)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(want, have) {
		t.Error("loaded critic computes a different forward pass")
	}
}

func TestParamsSaveLoad(t *testing.T) {
	actor, _ := NewActor(8, 2, 4)
	state := randomBatch(3, 8, -1, 1, 1)
	want, _ := actor.Forward(state)

	filename := filepath.Join(t.TempDir(), "params.bin")
	if err := actor.Params().Save(filename); err != nil {
		t.Fatal(err)
	}
	params, err := LoadParams(filename)
	if err != nil {
		t.Fatal(err)
	}

	// Parameters trained elsewhere can be loaded into a fresh network
	other, _ := NewActor(8, 2, 99)
	if err := other.SetParams(params); err != nil {
		t.Fatal(err)
	}
	have, _ := other.Forward(state)
	if !mat.Equal(want, have) {
		t.Error("network with loaded parameters computes a different " +
			"forward pass")
	}
}

func TestSetParamsMismatch(t *testing.T) {
	actor, _ := NewActor(8, 2, 4)
	before := actor.Params()

	other, _ := NewActor(8, 2, 5)
	params := other.Params()

	// fc1 and fc2 would load, so a failure must not leave them written
	fc3 := params["fc3"]
	fc3.Rows++
	params["fc3"] = fc3

	if err := actor.SetParams(params); !errors.Is(err, ErrParamsMismatch) {
		t.Errorf("want ErrParamsMismatch have %v", err)
	}
	after := actor.Params()
	for _, name := range before.Names() {
		if !equalFloats(before[name].Weights, after[name].Weights) {
			t.Errorf("layer %v modified by failed SetParams", name)
		}
	}

	delete(params, "fc3")
	if err := actor.SetParams(params); !errors.Is(err, ErrParamsMismatch) {
		t.Errorf("missing layer: want ErrParamsMismatch have %v", err)
	}

	critic, _ := NewCritic(8, 2, 4)
	if err := critic.SetParams(actor.Params()); !errors.Is(err,
		ErrParamsMismatch) {
		t.Errorf("actor params in critic: want ErrParamsMismatch have %v", err)
	}
}

func TestActivationGob(t *testing.T) {
	for _, act := range []*Activation{ReLU(), TanH(), Identity()} {
		data, err := act.GobEncode()
		if err != nil {
			t.Fatal(err)
		}

		var decoded Activation
		if err := decoded.GobDecode(data); err != nil {
			t.Fatal(err)
		}
		if decoded.String() != act.String() {
			t.Errorf("want(%v) have(%v)", act, &decoded)
		}
		if decoded.f(-2) != act.f(-2) {
			t.Errorf("%v: decoded activation computes a different value", act)
		}
	}

	var decoded Activation
	if err := decoded.GobDecode([]byte("sigmoid")); err == nil {
		t.Error("expected error for unknown activation")
	}
}
