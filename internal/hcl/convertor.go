package hcl

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/mhpishahang/bbn/internal/config"
	"github.com/mhpishahang/bbn/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with non-nil,
// zero-width expression objects, so a simple nil check is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	logger := ctxlog.FromContext(ctx)

	if expr == nil {
		return false
	}

	// A real attribute occupies bytes in the file, while a placeholder for an
	// omitted optional attribute has a zero-width range.
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	logger.Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// evalInto evaluates expr and, if it was written and is not null, stores the
// converted value in target.
func evalInto(ctx context.Context, expr hcl.Expression, attrName string, evalCtx *hcl.EvalContext, target any) error {
	if !isExprDefined(ctx, expr, attrName) {
		return nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return diags
	}
	if val.IsNull() {
		return nil
	}
	if err := decode(ctx, val, target); err != nil {
		return fmt.Errorf("%s: invalid value for %q: %w", expr.Range().String(), attrName, err)
	}
	return nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	if !val.Type().Equals(convertedVal.Type()) {
		logger.Debug("Implicitly converted value type.",
			"from", val.Type().FriendlyName(),
			"to", convertedVal.Type().FriendlyName(),
		)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}

// evalContext exposes the default settings to expressions as `defaults`.
func evalContext() (*hcl.EvalContext, error) {
	d := config.Default()
	obj := defaultsObject{
		Iterations:           d.Iterations,
		Damping:              d.Damping,
		Temperature:          d.Temperature,
		EvidenceStrength:     d.EvidenceStrength,
		Decimals:             d.Decimals,
		SumTolerance:         d.SumTolerance,
		ConvergenceTolerance: d.ConvergenceTolerance,
	}
	ty, err := gocty.ImpliedType(obj)
	if err != nil {
		return nil, fmt.Errorf("unable to infer cty.Type for defaults: %w", err)
	}
	val, err := gocty.ToCtyValue(obj, ty)
	if err != nil {
		return nil, fmt.Errorf("unable to convert defaults: %w", err)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"defaults": val},
	}, nil
}

// applyBlock overlays every attribute written in b onto cfg.
func applyBlock(ctx context.Context, b *inferenceBlock, evalCtx *hcl.EvalContext, cfg *config.Inference) error {
	fields := []struct {
		name   string
		expr   hcl.Expression
		target any
	}{
		{"iterations", b.Iterations, &cfg.Iterations},
		{"damping", b.Damping, &cfg.Damping},
		{"temperature", b.Temperature, &cfg.Temperature},
		{"evidence_strength", b.EvidenceStrength, &cfg.EvidenceStrength},
		{"decimals", b.Decimals, &cfg.Decimals},
		{"sum_tolerance", b.SumTolerance, &cfg.SumTolerance},
		{"convergence_tolerance", b.ConvergenceTolerance, &cfg.ConvergenceTolerance},
	}
	for _, f := range fields {
		if err := evalInto(ctx, f.expr, f.name, evalCtx, f.target); err != nil {
			return err
		}
	}
	return nil
}
