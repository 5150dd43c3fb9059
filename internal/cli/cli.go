package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/mhpishahang/bbn/internal/app"
)

// Environment variables that provide flag defaults. A .env file in the
// working directory is loaded into the environment before parsing.
const (
	EnvConfig    = "BBN_CONFIG"
	EnvLogFormat = "BBN_LOG_FORMAT"
	EnvLogLevel  = "BBN_LOG_LEVEL"
	EnvWorkers   = "BBN_WORKERS"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// observationList collects repeated --observe flags.
type observationList []app.Observation

func (l *observationList) String() string {
	parts := make([]string, len(*l))
	for i, o := range *l {
		parts[i] = o.String()
	}
	return strings.Join(parts, ",")
}

func (l *observationList) Set(s string) error {
	o, err := app.ParseObservation(s)
	if err != nil {
		return err
	}
	*l = append(*l, o)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flag defaults come from the BBN_* environment variables when set.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("bbn", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
bbn - Bayesian belief network inference with loopy belief propagation.

Runs the cloudy/sprinkler/rain/wet-grass network once without evidence and
once with the given observations, and prints every node's marginal.

Usage:
  bbn [options] [SETTINGS_PATH...]

Arguments:
  SETTINGS_PATH
    Path to a .hcl file or a directory of .hcl files with an inference block.

Options:
`)
		flagSet.PrintDefaults()
	}

	workersDefault, err := envInt(EnvWorkers, 2)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	configFlag := flagSet.String("config", os.Getenv(EnvConfig), "Path to a settings file or directory.")
	cFlag := flagSet.String("c", "", "Path to a settings file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", envOr(EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envOr(EnvLogLevel, "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", workersDefault, "Number of scenarios run concurrently. 0 is unlimited.")
	var observations observationList
	flagSet.Var(&observations, "observe", "Observe a node, as Node=State. May be repeated.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *configFlag != "" {
		paths = append(paths, *configFlag)
	}
	if *cFlag != "" {
		paths = append(paths, *cFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Settings paths determined.", "paths", paths)

	config, err := app.NewConfig(app.Config{
		SettingsPaths: paths,
		LogFormat:     strings.ToLower(*logFormatFlag),
		LogLevel:      strings.ToLower(*logLevelFlag),
		Workers:       *workersFlag,
		Observations:  observations,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
