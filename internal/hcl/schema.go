package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top-level structure of a settings file.
type fileRoot struct {
	Inference []*inferenceBlock `hcl:"inference,block"`
}

// inferenceBlock keeps every attribute as a raw expression so that omitted
// attributes can be told apart from explicit ones before conversion.
type inferenceBlock struct {
	Iterations           hcl.Expression `hcl:"iterations,optional"`
	Damping              hcl.Expression `hcl:"damping,optional"`
	Temperature          hcl.Expression `hcl:"temperature,optional"`
	EvidenceStrength     hcl.Expression `hcl:"evidence_strength,optional"`
	Decimals             hcl.Expression `hcl:"decimals,optional"`
	SumTolerance         hcl.Expression `hcl:"sum_tolerance,optional"`
	ConvergenceTolerance hcl.Expression `hcl:"convergence_tolerance,optional"`
}

// defaultsObject mirrors config.Inference with cty tags, for the `defaults`
// variable in the evaluation context.
type defaultsObject struct {
	Iterations           int     `cty:"iterations"`
	Damping              float64 `cty:"damping"`
	Temperature          float64 `cty:"temperature"`
	EvidenceStrength     float64 `cty:"evidence_strength"`
	Decimals             int     `cty:"decimals"`
	SumTolerance         float64 `cty:"sum_tolerance"`
	ConvergenceTolerance float64 `cty:"convergence_tolerance"`
}
