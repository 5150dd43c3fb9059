package config

import "context"

// Loader is the interface for a format-specific settings loader.
type Loader interface {
	// Load reads settings from the given paths, applying them on top of
	// Default() in order. Later paths override earlier ones.
	Load(ctx context.Context, paths ...string) (*Inference, error)
}
