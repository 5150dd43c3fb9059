// Package hcl provides the concrete HCL implementation of the config.Loader
// interface. It parses `inference` blocks from .hcl files, evaluates each
// attribute with go-cty, and binds the results onto config.Inference.
//
// A settings file looks like:
//
//	inference {
//	  iterations        = 200
//	  damping           = defaults.damping / 2
//	  temperature       = 1
//	  evidence_strength = 1000
//	}
//
// Attributes that are omitted keep their current value. The `defaults`
// variable exposes config.Default() to expressions.
package hcl
