package app

import (
	"errors"
	"fmt"
	"strings"
)

// Observation pins a node of the demo network to one of its states.
type Observation struct {
	Node  string
	State string
}

// String renders the observation as Node=State.
func (o Observation) String() string {
	return o.Node + "=" + o.State
}

// ParseObservation parses "Node=State".
func ParseObservation(s string) (Observation, error) {
	node, state, ok := strings.Cut(s, "=")
	node, state = strings.TrimSpace(node), strings.TrimSpace(state)
	if !ok || node == "" || state == "" {
		return Observation{}, fmt.Errorf("invalid observation %q: expected Node=State", s)
	}
	return Observation{Node: node, State: state}, nil
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SettingsPaths []string // hcl files or directories, later ones win

	LogFormat string
	LogLevel  string
	Workers   int

	// Observations apply to the posterior scenario. When empty the demo
	// observes WetGrass=wet.
	Observations []Observation
}

func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	switch cfg.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", cfg.Workers))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
