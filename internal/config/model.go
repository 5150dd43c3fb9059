package config

import (
	"errors"
	"fmt"
	"math"
)

// Defaults for inference settings.
const (
	DefaultIterations       = 100
	DefaultDamping          = 0.5
	DefaultTemperature      = 1.0
	DefaultEvidenceStrength = 1000.0
	DefaultDecimals         = 3
	DefaultSumTolerance     = 0.01
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid inference settings")

// Inference holds the knobs for one inference pass.
type Inference struct {
	// Iterations is the fixed number of message-passing sweeps.
	Iterations int
	// Damping is the weight of the previous message, in [0, 1).
	Damping float64
	// Temperature is 1 for sum-product and 0 for max-product.
	Temperature float64
	// EvidenceStrength is the log-space bonus given to an observed state.
	EvidenceStrength float64
	// Decimals is the number of decimal places marginals are rounded to.
	Decimals int
	// SumTolerance bounds how far a marginal's sum may drift from 1.
	SumTolerance float64
	// ConvergenceTolerance, when positive, makes a run fail if the final
	// message residual exceeds it. Zero disables the check.
	ConvergenceTolerance float64
}

// Default returns the standard settings.
func Default() Inference {
	return Inference{
		Iterations:       DefaultIterations,
		Damping:          DefaultDamping,
		Temperature:      DefaultTemperature,
		EvidenceStrength: DefaultEvidenceStrength,
		Decimals:         DefaultDecimals,
		SumTolerance:     DefaultSumTolerance,
	}
}

// Validate checks every field's range.
func (c Inference) Validate() error {
	var errs []error
	if c.Iterations < 1 {
		errs = append(errs, fmt.Errorf("iterations must be at least 1, got %d", c.Iterations))
	}
	if !finite(c.Damping) || c.Damping < 0 || c.Damping >= 1 {
		errs = append(errs, fmt.Errorf("damping must be in [0, 1), got %v", c.Damping))
	}
	if !finite(c.Temperature) || c.Temperature < 0 {
		errs = append(errs, fmt.Errorf("temperature must be >= 0, got %v", c.Temperature))
	}
	if !finite(c.EvidenceStrength) || c.EvidenceStrength <= 0 {
		errs = append(errs, fmt.Errorf("evidence_strength must be > 0, got %v", c.EvidenceStrength))
	}
	if c.Decimals < 0 || c.Decimals > 15 {
		errs = append(errs, fmt.Errorf("decimals must be in [0, 15], got %d", c.Decimals))
	}
	if !finite(c.SumTolerance) || c.SumTolerance <= 0 {
		errs = append(errs, fmt.Errorf("sum_tolerance must be > 0, got %v", c.SumTolerance))
	}
	if !finite(c.ConvergenceTolerance) || c.ConvergenceTolerance < 0 {
		errs = append(errs, fmt.Errorf("convergence_tolerance must be >= 0, got %v", c.ConvergenceTolerance))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
