// Package cli implements the tracker's operator subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/model"
)

// Opener builds the application for one command run.
type Opener func(ctx context.Context) (*app.App, error)

// env is shared by every command.
type env struct {
	open Opener
	out  io.Writer
}

// Register adds the subcommands to c. Output goes to out, os.Stdout when nil.
func Register(c *subcommands.Commander, open Opener, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	e := &env{open: open, out: out}

	c.Register(&accountsCmd{env: e}, "accounts")
	c.Register(&importCmd{env: e}, "accounts")

	c.Register(&refreshCmd{env: e}, "history")
	c.Register(&historyCmd{env: e}, "history")
	c.Register(&invalidateCmd{env: e}, "history")

	c.Register(&bondsCmd{env: e}, "providers")
	c.Register(&fxCmd{env: e}, "providers")
}

// run opens the application, calls fn and maps its error to an exit status.
func (e *env) run(ctx context.Context, fn func(a *app.App) error) subcommands.ExitStatus {
	a, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// formatPLN renders an amount in the base currency.
func formatPLN(v float64) string {
	cur := money.GetCurrency(model.BaseCurrency)
	minor := decimal.NewFromFloat(v).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, model.BaseCurrency).Display()
}

// formatAmount renders an optional amount, "-" when unknown.
func formatAmount(a model.Amount) string {
	if !a.Valid {
		return "-"
	}
	return formatPLN(a.Value)
}

// parseDateFlag parses an optional YYYY-MM-DD flag value.
func parseDateFlag(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("-%s: %w", name, err)
	}
	return d, nil
}
