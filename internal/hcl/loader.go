package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mhpishahang/bbn/internal/config"
	"github.com/mhpishahang/bbn/internal/ctxlog"
	"github.com/mhpishahang/bbn/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load reads every .hcl file reachable from paths (files or directories) and
// overlays their `inference` blocks onto config.Default(), in path order.
// Paths that do not exist are skipped. The merged result is validated.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Inference, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	cfg := config.Default()
	parser := hclparse.NewParser()
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		if err := l.apply(ctx, hclFile.Body, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("HCL loading complete.", "settings", cfg)
	return &cfg, nil
}

// Parse decodes a single in-memory settings document onto config.Default().
// filename is used only in diagnostics.
func (l *Loader) Parse(ctx context.Context, src []byte, filename string) (*config.Inference, error) {
	hclFile, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}

	cfg := config.Default()
	if err := l.apply(ctx, hclFile.Body, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode HCL %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// apply decodes one file body onto cfg. At most one inference block is
// allowed per file.
func (l *Loader) apply(ctx context.Context, body hcl.Body, cfg *config.Inference) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return diags
	}
	if len(root.Inference) > 1 {
		return fmt.Errorf("expected at most one inference block, found %d", len(root.Inference))
	}
	if len(root.Inference) == 0 {
		return nil
	}

	evalCtx, err := evalContext()
	if err != nil {
		return err
	}
	return applyBlock(ctx, root.Inference[0], evalCtx, cfg)
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			found, err := fsutil.FindFilesByExtension(path, ".hcl")
			if err != nil {
				return nil, fmt.Errorf("error walking %s: %w", path, err)
			}
			for _, p := range found {
				if _, wasSeen := seen[p]; !wasSeen {
					allFiles = append(allFiles, p)
					seen[p] = struct{}{}
				}
			}
		} else if filepath.Ext(path) == ".hcl" {
			if _, wasSeen := seen[path]; !wasSeen {
				allFiles = append(allFiles, path)
				seen[path] = struct{}{}
			}
		}
	}
	return allFiles, nil
}
