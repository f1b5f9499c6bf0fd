package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andreeacobzaru/cisc327-library-management-a2-3548/internal/core/service"
)

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func parseBookID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}

// withEngine opens the configured engine for the duration of fn.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, eng *engine) error) error {
	ctx := cmd.Context()
	eng, err := openEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	if cfg.Storage.Driver == "memory" {
		warn("storage driver is memory; changes are lost when the command exits")
	}
	return fn(ctx, eng)
}

// report prints the outcome of a lending operation. A rejected operation is
// printed with its caller-facing message and returned as the command error.
func report(msg string, err error) error {
	if err != nil {
		failed("%s", service.Message(err))
		return err
	}
	ok("%s", msg)
	return nil
}
