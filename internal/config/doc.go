// Package config defines the format-agnostic inference settings model and the
// Loader interface for reading it from external sources.
//
// The `config.Inference` value is what the belief network's Run consumes.
// Concrete loaders, such as the HCL one, live in separate packages.
package config
