package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/samuelfneumann/ddpgnet/experiment/checkpointer"
	"github.com/samuelfneumann/ddpgnet/network"
	"github.com/samuelfneumann/ddpgnet/storage"
	"github.com/samuelfneumann/ddpgnet/utils/floatutils"
	"github.com/samuelfneumann/ddpgnet/utils/matutils"
	"golang.org/x/exp/rand"
)

func main() {
	configFile := flag.String("config", "", "JSON network config file")
	batch := flag.Int("batch", 5, "number of random states to evaluate")
	storeKind := flag.String("store", "memory", "checkpoint store: memory "+
		"or sqlite")
	dbPath := flag.String("db", "checkpoints.db", "sqlite database path")
	outDir := flag.String("out", "", "directory to save gob encoded "+
		"networks in")
	flag.Parse()

	// Reacher-like defaults: 33 state features, 4 action dimensions
	config := network.DefaultConfig(33, 4, 2)
	if *configFile != "" {
		var err error
		if config, err = network.LoadConfig(*configFile); err != nil {
			log.Fatalf("could not load config: %v", err)
		}
	}

	actor, err := config.Actor()
	if err != nil {
		log.Fatalf("could not create actor: %v", err)
	}
	critic, err := config.Critic()
	if err != nil {
		log.Fatalf("could not create critic: %v", err)
	}

	// Evaluate the networks on a batch of random states
	states := matutils.Uniform(*batch, config.StateSize, -1, 1,
		rand.NewSource(config.Seed+1))
	actions, err := actor.Forward(states)
	if err != nil {
		log.Fatalf("actor forward pass: %v", err)
	}

	if *batch < 2 {
		critic.Eval()
	}
	values, err := critic.Forward(states, actions)
	if err != nil {
		log.Fatalf("critic forward pass: %v", err)
	}
	if !floatutils.AllFinite(values.RawMatrix().Data) {
		log.Printf("critic produced non-finite values")
	}

	fmt.Printf("Actions:\n%v\n\n", matutils.Format(actions))
	fmt.Printf("Values:\n%v\n\n", matutils.Format(values))

	// Checkpoint both networks
	ctx := context.Background()
	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		log.Fatalf("could not create store: %v", err)
	}
	if err := store.Init(ctx); err != nil {
		log.Fatalf("could not initialize store: %v", err)
	}
	defer storage.CloseIfSupported(store)

	nets := map[string]network.Network{"actor": actor, "critic": critic}
	for name, net := range nets {
		saves := []checkpointer.SaveFunc{
			checkpointer.NewStoreSaver(ctx, store, name),
		}
		if *outDir != "" {
			filename := filepath.Join(*outDir, name+".bin")
			saves = append(saves, checkpointer.NewFileSaver(
				func() string { return filename },
			))
		}

		for _, save := range saves {
			c, err := checkpointer.NewNStep(1, net, save)
			if err != nil {
				log.Fatalf("could not create checkpointer: %v", err)
			}
			if err := c.Checkpoint(0); err != nil {
				log.Fatalf("could not checkpoint %v: %v", name, err)
			}
		}

		latest, _, err := store.LatestCheckpoint(ctx, name)
		if err != nil {
			log.Fatalf("could not read checkpoint: %v", err)
		}
		log.Printf("saved %v checkpoint %v with layers %v", name, latest.ID,
			latest.Params.Names())
	}
}
