package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dlovans/formwright/internal/metrics"
	"github.com/dlovans/formwright/pkg/builder"
	"github.com/dlovans/formwright/pkg/form"
	"github.com/dlovans/formwright/pkg/preview"
	"github.com/dlovans/formwright/pkg/render"
	"github.com/dlovans/formwright/pkg/store"
)

type editOptions struct {
	file    string
	ops     []string
	write   string
	inPlace bool
	preview bool
	save    bool
}

func newEditCmd(a *app) *cobra.Command {
	o := &editOptions{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply builder edits to a schema",
		Long: `Loads a schema into the builder (or starts empty without --file), applies
each --op in order and prints the result as YAML. Every field is checked
before it is accepted; the first rejected op fails the command.

Ops:
  name=<text>         rename the form
  add=<field>         append a field (YAML or JSON); a new id is assigned
  update=<field>      replace the field with the same id
  delete=<id>         remove a field
  move=<from>:<to>    move a field between zero-based positions
  reset               clear the builder`,
		Example: `  formctl edit -f room.yaml --op 'add={label: Depth, type: number}' --op move=2:0 -i`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.inPlace {
				if o.file == "" {
					return errors.New("--in-place needs --file")
				}
				o.write = o.file
			}
			return runEdit(cmd, a, o)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "schema file to start from")
	cmd.Flags().StringArrayVar(&o.ops, "op", nil, "edit to apply, repeatable")
	cmd.Flags().StringVarP(&o.write, "write", "w", "", "write the resulting schema to this file")
	cmd.Flags().BoolVarP(&o.inPlace, "in-place", "i", false, "write the result back to --file")
	cmd.Flags().BoolVar(&o.preview, "preview", false, "preview the result instead of printing it")
	cmd.Flags().BoolVar(&o.save, "save", false, "append the result to the saved-form list")
	return cmd
}

func runEdit(cmd *cobra.Command, a *app, o *editOptions) error {
	st := store.New()
	ed := builder.New(st)

	if o.file != "" {
		s, err := readSchema(cmd, o.file)
		if err != nil {
			return err
		}
		if err := ed.Load(s); err != nil {
			return err
		}
	}
	for _, op := range o.ops {
		if err := applyEdit(ed, op); err != nil {
			return fmt.Errorf("--op %q: %w", op, err)
		}
	}
	schema := ed.Schema()

	if o.write != "" {
		b, err := yaml.Marshal(schema)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Clean(o.write), b, 0o600); err != nil {
			return fmt.Errorf("write schema: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if o.save {
		ready, err := ed.Ready()
		if err != nil {
			return err
		}
		g, kv, err := a.gateway()
		if err != nil {
			return err
		}
		defer kv.Close()
		rec, err := g.Save(contextOf(cmd), ready.Name, ready.Fields)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved %s\n", rec.ID)
	}

	if o.preview {
		session := preview.New(st,
			preview.WithEngine(a.engine()),
			preview.WithLogger(a.logger.Named("preview")),
			preview.WithMaxPasses(a.cfg.Preview.MaxPasses),
			preview.WithObserver(metrics.Recorder{}),
		)
		defer session.Close()
		session.OpenBuilder()
		if a.jsonOutput() {
			return writeJSON(out, session.Values())
		}
		render.Values(out, session.Fields(), session.Values(), session.Errors())
		return nil
	}

	if a.jsonOutput() {
		return writeJSON(out, schema)
	}
	if o.write != "" {
		return nil
	}
	return yaml.NewEncoder(out).Encode(schema)
}

// applyEdit runs one op=value edit against ed.
func applyEdit(ed *builder.Editor, op string) error {
	verb, arg, _ := strings.Cut(op, "=")
	switch strings.TrimSpace(verb) {
	case "name":
		ed.Rename(arg)
		return nil
	case "add":
		f, err := parseField(arg)
		if err != nil {
			return err
		}
		_, err = ed.Add(f)
		return err
	case "update":
		f, err := parseField(arg)
		if err != nil {
			return err
		}
		if f.ID == "" {
			return errors.New("update needs the field id")
		}
		return ed.Update(f)
	case "delete":
		return ed.Delete(arg)
	case "move":
		from, to, ok := strings.Cut(arg, ":")
		if !ok {
			return errors.New("want move=<from>:<to>")
		}
		i, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return fmt.Errorf("from: %w", err)
		}
		j, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}
		return ed.Move(i, j)
	case "reset":
		ed.Reset()
		return nil
	}
	return fmt.Errorf("unknown op %q", verb)
}

// parseField reads a field in YAML flow or block form; JSON is valid YAML.
func parseField(s string) (form.Field, error) {
	var f form.Field
	if err := yaml.Unmarshal([]byte(s), &f); err != nil {
		return form.Field{}, fmt.Errorf("parse field: %w", err)
	}
	return f, nil
}
