package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlovans/formwright/internal/metrics"
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/preview"
	"github.com/dlovans/formwright/pkg/render"
	"github.com/dlovans/formwright/pkg/store"
)

type previewOptions struct {
	file        string
	id          string
	sets        []string
	toggles     []string
	submit      bool
	watch       bool
	metricsAddr string
}

func newPreviewCmd(a *app) *cobra.Command {
	o := &previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run a live preview of a schema file or saved form",
		Long: `Opens a preview session, applies --set and --toggle input in order and
prints every field's value and validation messages. With --submit the form is
submitted and the first violation, if any, fails the command. With --watch
the schema file is reloaded and re-previewed whenever it changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.file == "" && o.id == "" {
				return errors.New("one of --file or --id is required")
			}
			if o.watch && o.file == "" {
				return errors.New("--watch needs --file")
			}
			return runPreview(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "schema file")
	cmd.Flags().StringVar(&o.id, "id", "", "saved form id")
	cmd.Flags().StringArrayVar(&o.sets, "set", nil, "id=value, repeatable")
	cmd.Flags().StringArrayVar(&o.toggles, "toggle", nil, "id=option flips a checkbox option, repeatable")
	cmd.Flags().BoolVar(&o.submit, "submit", false, "submit after applying input")
	cmd.Flags().BoolVar(&o.watch, "watch", false, "reload when the schema file changes")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics while watching (overrides config)")
	return cmd
}

func runPreview(cmd *cobra.Command, a *app, o *previewOptions) error {
	st := store.New()
	session := preview.New(st,
		preview.WithEngine(a.engine()),
		preview.WithLogger(a.logger.Named("preview")),
		preview.WithMaxPasses(a.cfg.Preview.MaxPasses),
		preview.WithObserver(metrics.Recorder{}),
	)
	defer session.Close()

	if !o.watch {
		return previewOnce(cmd, a, o, session)
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := o.metricsAddr
	if addr == "" {
		addr = a.cfg.Metrics.Addr
	}
	if addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, a.logger); err != nil {
				a.logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	if err := previewOnce(cmd, a, o, session); err != nil && !errors.Is(err, errCheckFailed) {
		return err
	}
	return watchSchema(ctx, o.file, a.logger, func() {
		fmt.Fprintln(cmd.OutOrStdout(), "--- reloaded", time.Now().Format(time.TimeOnly))
		if err := previewOnce(cmd, a, o, session); err != nil && !errors.Is(err, errCheckFailed) {
			a.logger.Error("preview reload failed", zap.Error(err))
		}
	})
}

func previewOnce(cmd *cobra.Command, a *app, o *previewOptions, session *preview.Session) error {
	if o.id != "" {
		g, kv, err := a.gateway()
		if err != nil {
			return err
		}
		found, err := session.OpenSaved(contextOf(cmd), g, o.id)
		kv.Close()
		if err != nil {
			return err
		}
		if !found {
			fmt.Fprintf(cmd.ErrOrStderr(), "no saved form with id %q; showing an empty form\n", o.id)
		}
	} else {
		s, err := readSchema(cmd, o.file)
		if err != nil {
			return err
		}
		session.Open(s.Fields)
	}

	if err := applyInput(session, o.sets, o.toggles); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fields := session.Fields()
	values := session.Values()

	if o.submit {
		res := session.Submit()
		if a.jsonOutput() {
			if err := writeJSON(out, res); err != nil {
				return err
			}
		} else if res.Accepted {
			render.Values(out, fields, values, nil)
			fmt.Fprintln(out, "✓ Form submitted")
		} else {
			render.Values(out, fields, values, session.Errors())
			fmt.Fprintf(out, "✗ %s\n", res.Violation.Message)
		}
		if !res.Accepted {
			return fmt.Errorf("submit: %w", errCheckFailed)
		}
		return nil
	}

	if a.jsonOutput() {
		return writeJSON(out, struct {
			Values form.Values         `json:"values"`
			Errors map[string][]string `json:"errors"`
		}{values, session.Errors()})
	}
	render.Values(out, fields, values, session.Errors())
	return nil
}

func applyInput(session *preview.Session, sets, toggles []string) error {
	for _, kv := range sets {
		id, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: want id=value", kv)
		}
		if err := session.Set(id, v); err != nil {
			return err
		}
	}
	for _, kv := range toggles {
		id, opt, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--toggle %q: want id=option", kv)
		}
		if err := session.Set(id, render.ToggleOption(session.Values()[id], opt)); err != nil {
			return err
		}
	}
	return nil
}

// watchSchema calls reload after each write to path until ctx is done. The
// parent directory is watched so editors that save by replacing the file
// (remove then create, or rename over) keep being followed.
func watchSchema(ctx context.Context, path string, logger *zap.Logger, reload func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer w.Close()
	path = filepath.Clean(path)
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Info("watching schema", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			// Editors often write in several steps.
			time.Sleep(200 * time.Millisecond)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			reload()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", zap.Error(err))
		}
	}
}
