package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/ddpgnet/initwfn"
)

func TestLoadConfig(t *testing.T) {
	data := []byte(`{
		"StateSize": 33,
		"ActionSize": 4,
		"Seed": 2,
		"Hidden1": 400,
		"FanIn": "cols",
		"FinalInit": {"Type": "Uniform", "Config": {"Low": -0.01, "High": 0.01}}
	}`)
	filename := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}

	if config.Hidden1 != 400 || config.Hidden2 != DefaultHidden2 {
		t.Errorf("hidden sizes: have(%v, %v)", config.Hidden1, config.Hidden2)
	}
	if config.FanIn != initwfn.FanInCols {
		t.Errorf("fan-in: have(%v)", config.FanIn)
	}
	want := initwfn.UniformConfig{Low: -0.01, High: 0.01}
	if config.FinalInit.Config != want {
		t.Errorf("final init: want(%v) have(%v)", want, config.FinalInit)
	}

	actor, err := config.Actor()
	if err != nil {
		t.Fatal(err)
	}
	checkBounds(t, "fc3", actor.fc3.weights.RawMatrix().Data, 0.01)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"state size", func(c *Config) { c.StateSize = 0 }},
		{"action size", func(c *Config) { c.ActionSize = -3 }},
		{"hidden 2", func(c *Config) { c.Hidden2 = 0 }},
		{"fan-in", func(c *Config) { c.FanIn = "diagonal" }},
		{"final init", func(c *Config) { c.FinalInit = nil }},
	}

	for _, test := range tests {
		config := DefaultConfig(3, 2, 0)
		test.modify(&config)
		if err := config.Validate(); err == nil {
			t.Errorf("%v: expected validation error", test.name)
		}
		if _, err := config.Critic(); err == nil {
			t.Errorf("%v: expected construction error", test.name)
		}
	}

	if err := DefaultConfig(3, 2, 0).Validate(); err != nil {
		t.Errorf("default config: %v", err)
	}
}
