package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlovans/formwright/internal/config"
	"github.com/dlovans/formwright/internal/logging"
	"github.com/dlovans/formwright/internal/metrics"
	"github.com/dlovans/formwright/pkg/derive"
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/lint"
	"github.com/dlovans/formwright/pkg/storage"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	output     string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "formctl",
		Short:         "Build, preview and store forms with derived fields",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (YAML or JSON)")
	root.PersistentFlags().StringVar(&a.output, "output", "table", "output format (table|json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level")

	root.AddCommand(newLintCmd(a))
	root.AddCommand(newDeriveCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newVerifyCmd(a))
	root.AddCommand(newSaveCmd(a))
	root.AddCommand(newListCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newPreviewCmd(a))
	root.AddCommand(newRouteCmd(a))
	root.AddCommand(newEditCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = strings.ToLower(a.logLevel)
	}
	if a.output != "table" && a.output != "json" {
		return fmt.Errorf("--output must be table or json, got %q", a.output)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) jsonOutput() bool { return a.output == "json" }

func (a *app) engine() *derive.Engine {
	return derive.New(
		derive.WithLogger(a.logger.Named("derive")),
		derive.WithObserver(metrics.Recorder{}),
	)
}

// gateway opens the configured backend. The caller closes the returned KV.
func (a *app) gateway() (*storage.Gateway, storage.KV, error) {
	logger := a.logger.Named("storage")
	kv, err := storage.Open(a.cfg.Storage, logger)
	if err != nil {
		return nil, nil, err
	}
	g := storage.NewGateway(kv,
		storage.WithKey(a.cfg.Storage.Key),
		storage.WithLogger(logger),
		storage.WithObserver(metrics.Recorder{}),
	)
	return g, kv, nil
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(filepath.Clean(path))
}

func readSchema(cmd *cobra.Command, path string) (form.Schema, error) {
	b, err := readInput(cmd, path)
	if err != nil {
		return form.Schema{}, fmt.Errorf("read schema: %w", err)
	}
	return lint.Parse(b)
}

// readValues builds a value map from an optional JSON file and --set pairs,
// later pairs winning.
func readValues(path string, sets []string) (form.Values, error) {
	values := form.Values{}
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		if err := json.Unmarshal(b, &values); err != nil {
			return nil, fmt.Errorf("parse values: %w", err)
		}
	}
	for _, kv := range sets {
		id, v, ok := strings.Cut(kv, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("--set %q: want id=value", kv)
		}
		values[id] = v
	}
	return values, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var errCheckFailed = errors.New("check failed")

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
