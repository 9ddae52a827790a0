package checkpointer

import (
	"fmt"

	"github.com/samuelfneumann/ddpgnet/network"
)

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	net      network.Network
	save     SaveFunc
}

// NewNStep returns a checkpointer that checkpoints net every n steps,
// including step 0.
func NewNStep(n int, net network.Network,
	save SaveFunc) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newnstep: interval must be positive, "+
			"have %v", n)
	}
	if net == nil || save == nil {
		return nil, fmt.Errorf("newnstep: nil network or save function")
	}

	return &nStep{
		interval: n,
		net:      net,
		save:     save,
	}, nil
}

// Checkpoint saves the tracked network if step is a multiple of the
// checkpointing interval
func (n *nStep) Checkpoint(step int) error {
	if step%n.interval == 0 {
		return n.save(step, n.net)
	}
	return nil
}
