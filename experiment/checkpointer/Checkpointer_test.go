package checkpointer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/ddpgnet/network"
	"github.com/samuelfneumann/ddpgnet/storage"
	"gonum.org/v1/gonum/mat"
)

func TestNStepFiles(t *testing.T) {
	actor, err := network.NewActor(4, 2, 1, network.WithHidden(8, 8))
	if err != nil {
		t.Fatal(err)
	}

	base := filepath.Join(t.TempDir(), "actor")
	c, err := NewNStep(5, actor, NewFileSaver(FilenameEnumerator(0, base,
		".bin")))
	if err != nil {
		t.Fatal(err)
	}

	for step := 0; step < 12; step++ {
		if err := c.Checkpoint(step); err != nil {
			t.Fatal(err)
		}
	}

	// Steps 0, 5, and 10
	for i := 1; i <= 3; i++ {
		if _, err := os.Stat(fmt.Sprintf("%v%v.bin", base, i)); err != nil {
			t.Errorf("checkpoint %v: %v", i, err)
		}
	}
	if _, err := os.Stat(base + "4.bin"); !os.IsNotExist(err) {
		t.Error("unexpected fourth checkpoint")
	}

	var loaded network.Actor
	if err := network.Load(&loaded, base+"3.bin"); err != nil {
		t.Fatal(err)
	}
	state := mat.NewDense(1, 4, []float64{0.1, -0.2, 0.3, -0.4})
	want, _ := actor.Forward(state)
	have, _ := loaded.Forward(state)
	if !mat.Equal(want, have) {
		t.Error("loaded checkpoint computes a different forward pass")
	}
}

func TestNStepStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}

	critic, err := network.NewCritic(4, 2, 1, network.WithHidden(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewNStep(3, critic, NewStoreSaver(ctx, store, "critic"))
	if err != nil {
		t.Fatal(err)
	}

	for step := 1; step <= 10; step++ {
		if err := c.Checkpoint(step); err != nil {
			t.Fatal(err)
		}
	}

	list, err := store.ListCheckpoints(ctx, "critic")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].Step != 3 || list[2].Step != 9 {
		t.Fatalf("unexpected checkpoints %+v", list)
	}

	restored, _ := network.NewCritic(4, 2, 2, network.WithHidden(8, 8))
	if err := restored.SetParams(list[2].Params); err != nil {
		t.Fatal(err)
	}
}

func TestNewNStepInvalid(t *testing.T) {
	actor, _ := network.NewActor(4, 2, 1, network.WithHidden(8, 8))
	if _, err := NewNStep(0, actor, NewFileSaver(FileTimer("a", ".bin"))); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := NewNStep(1, actor, nil); err == nil {
		t.Error("expected error for nil save function")
	}
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(4, "dir/actor", ".bin")
	for _, want := range []string{"dir/actor5.bin", "dir/actor6.bin"} {
		if have := next(); have != want {
			t.Errorf("want(%v) have(%v)", want, have)
		}
	}
}
