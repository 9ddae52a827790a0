// Package storage persists network parameter checkpoints so that
// networks trained by an external harness can be restored later.
//
// Two backends are available: an in-memory store and a SQLite store.
// The SQLite backend is only compiled with the sqlite build tag.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samuelfneumann/ddpgnet/network"
)

// ErrNotInitialized is returned by stores used before Init
var ErrNotInitialized = errors.New("store is not initialized")

// Checkpoint is a snapshot of the parameters of a network. Network
// names the network the parameters belong to, e.g. "actor" or
// "target-critic", and Step is the training step the snapshot was
// taken at.
type Checkpoint struct {
	ID      string
	Network string
	Step    int
	Created time.Time
	Params  network.Params
}

// Store defines persistence operations for checkpoints
type Store interface {
	Init(ctx context.Context) error

	// SaveCheckpoint stores a checkpoint, overwriting any checkpoint with
	// the same ID. If the checkpoint has no ID one is generated, and if
	// it has no creation time the current time is used. The stored
	// checkpoint is returned.
	SaveCheckpoint(ctx context.Context, c Checkpoint) (Checkpoint, error)

	GetCheckpoint(ctx context.Context, id string) (Checkpoint, bool, error)

	// LatestCheckpoint returns the checkpoint of a network with the
	// highest step
	LatestCheckpoint(ctx context.Context, net string) (Checkpoint, bool,
		error)

	// ListCheckpoints returns the checkpoints of a network ordered by
	// step
	ListCheckpoints(ctx context.Context, net string) ([]Checkpoint, error)
}

// prepare fills in the ID and creation time of a checkpoint
func prepare(c Checkpoint) Checkpoint {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Created.IsZero() {
		c.Created = time.Now().UTC()
	}
	return c
}
