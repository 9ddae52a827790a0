// Package checkpointer implements functionality for periodically
// saving the parameters of networks during training.
package checkpointer

import (
	"context"
	"fmt"
	"time"

	"github.com/samuelfneumann/ddpgnet/network"
	"github.com/samuelfneumann/ddpgnet/storage"
)

// Checkpointer checkpoints/saves networks based on the current
// training step
type Checkpointer interface {
	Checkpoint(step int) error
}

// SaveFunc saves a network at some training step
type SaveFunc func(step int, net network.Network) error

// NewFileSaver returns a SaveFunc which gob encodes networks to files.
// The filename function is called once per save.
//
// If each serialized network should be saved in a separate file with
// each file having an incremented number as a suffix (e.g.
// actor1.bin, actor2.bin, ..., actorK.bin), then use FilenameEnumerator.
// If the filename does not matter, use FileTimer. To overwrite the same
// file on each save, use a function which returns a constant.
func NewFileSaver(filename func() string) SaveFunc {
	return func(_ int, net network.Network) error {
		return network.Save(net, filename())
	}
}

// NewStoreSaver returns a SaveFunc which stores the parameters of
// networks in store under the given network name
func NewStoreSaver(ctx context.Context, store storage.Store,
	name string) SaveFunc {
	return func(step int, net network.Network) error {
		_, err := store.SaveCheckpoint(ctx, storage.Checkpoint{
			Network: name,
			Step:    step,
			Params:  net.Params(),
		})
		if err != nil {
			return fmt.Errorf("checkpoint %v at step %v: %w", name, step, err)
		}
		return nil
	}
}

// fileEnumerator enumerates filenames
type fileEnumerator struct {
	i         int
	name      string
	extension string
}

// filename returns the name of the next consecutive enumerated file
func (f *fileEnumerator) filename() string {
	f.i++
	return fmt.Sprintf("%v%v%v", f.name, f.i, f.extension)
}

// FilenameEnumerator returns a function which will return filenames
// with a counter integer suffix. Each time the returned function is
// called, the filename counter suffix will be one higher than on the
// previous call, the first call returning start + 1.
func FilenameEnumerator(start int, filename, extension string) func() string {
	enum := fileEnumerator{i: start, name: filename, extension: extension}

	return enum.filename
}

// FileTimer returns a function which will append to a filename the
// number of nanoseconds since January 1, 1970.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}
