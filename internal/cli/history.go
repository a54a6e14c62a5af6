package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/model"
)

type refreshCmd struct {
	*env
	account string
}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "bring account history up to today" }
func (*refreshCmd) Usage() string {
	return `tracker refresh [-account <id>]

  Syncs provider data, values the missing days and merges them into the stored
  history. Refreshes every account when -account is omitted.
`
}

func (c *refreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id to refresh (default all).")
}

func (c *refreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.run(ctx, func(a *app.App) error {
		if c.account != "" {
			report, err := a.Refresh.Refresh(ctx, c.account)
			if err != nil {
				return err
			}
			c.printReport(report)
			return nil
		}

		reports, err := a.Refresh.RefreshAll(ctx)
		for _, r := range reports {
			c.printReport(r)
		}
		return err
	})
}

func (c *refreshCmd) printReport(r model.RefreshReport) {
	if r.RowsWritten == 0 {
		fmt.Fprintf(c.out, "%s: %s, nothing to do\n", r.AccountID, describeState(r.PreviousState))
		return
	}
	fmt.Fprintf(c.out, "%s: %s, wrote %d rows %s..%s, %d tickers ok, %d failed\n",
		r.AccountID, describeState(r.PreviousState), r.RowsWritten,
		r.From.Format(model.DateLayout), r.To.Format(model.DateLayout),
		r.Succeeded(), r.Failed())
	for _, t := range r.Tickers {
		if t.Err != nil {
			fmt.Fprintf(c.out, "  %s (%s): %v\n", t.Ticker, t.Kind, t.Err)
		}
	}
}

type historyCmd struct {
	*env
	account string
	start   string
	end     string
	tickers bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the stored daily history of an account" }
func (*historyCmd) Usage() string {
	return `tracker history -account <id> [-s <start>] [-e <end>] [-tickers]

  Prints balance and cumulative cost per day. Incomplete rows are marked with *.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id.")
	f.StringVar(&c.start, "s", "", "First date (YYYY-MM-DD, default first stored row).")
	f.StringVar(&c.end, "e", "", "Last date (YYYY-MM-DD, default today).")
	f.BoolVar(&c.tickers, "tickers", false, "Also print the per-ticker values.")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.account == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	start, err := parseDateFlag("s", c.start, time.Time{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	end, err := parseDateFlag("e", c.end, model.Day(time.Now()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	return c.run(ctx, func(a *app.App) error {
		series, err := a.Accounts.History(ctx, c.account, start, end)
		if err != nil {
			return err
		}
		tickers := series.Tickers()

		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', tabwriter.AlignRight)
		header := []string{"DATE", "BALANCE", "COST", ""}
		if c.tickers {
			header = append(header, tickers...)
		}
		fmt.Fprintln(w, strings.Join(header, "\t")+"\t")
		for _, row := range series.Rows {
			mark := ""
			if row.Incomplete {
				mark = "*"
			}
			cols := []string{row.Date.Format(model.DateLayout), formatAmount(row.AccountBalance), formatAmount(row.TotalCost), mark}
			if c.tickers {
				for _, t := range tickers {
					cols = append(cols, formatAmount(row.Tickers[t].Value))
				}
			}
			fmt.Fprintln(w, strings.Join(cols, "\t")+"\t")
		}
		return w.Flush()
	})
}

type invalidateCmd struct {
	*env
	account string
	from    string
}

func (*invalidateCmd) Name() string     { return "invalidate" }
func (*invalidateCmd) Synopsis() string { return "delete stored history from a date on" }
func (*invalidateCmd) Usage() string {
	return `tracker invalidate -account <id> -from <YYYY-MM-DD>

  Removes every stored history row dated on or after -from. The next refresh
  recomputes them.
`
}

func (c *invalidateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id.")
	f.StringVar(&c.from, "from", "", "First date to remove (YYYY-MM-DD).")
}

func (c *invalidateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.account == "" || c.from == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	from, err := parseDateFlag("from", c.from, time.Time{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	return c.run(ctx, func(a *app.App) error {
		removed, err := a.Refresh.Invalidate(ctx, c.account, from)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "removed %d rows from %s\n", removed, from.Format(model.DateLayout))
		return nil
	})
}
