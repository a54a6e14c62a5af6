package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/model"
)

type bondsCmd struct {
	*env
	load string
}

func (*bondsCmd) Name() string     { return "bonds" }
func (*bondsCmd) Synopsis() string { return "list or load treasury bond coupon schedules" }
func (*bondsCmd) Usage() string {
	return `tracker bonds [-load <file.yaml>]

  Without flags, prints the stored coupon schedule of every series.
  With -load, replaces the schedules of the series listed in the file.
`
}

func (c *bondsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.load, "load", "", "YAML schedule file to load.")
}

func (c *bondsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.run(ctx, func(a *app.App) error {
		if c.load != "" {
			series, err := a.Bonds.LoadFile(ctx, c.load)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "loaded %d series\n", len(series))
			return nil
		}

		series, err := a.Bonds.GetSeries(ctx)
		if err != nil {
			return err
		}
		for _, s := range series {
			rates := make([]string, len(s.Rates))
			for i, r := range s.Rates {
				rates[i] = fmt.Sprintf("%.2f%%", r*100)
			}
			fmt.Fprintf(c.out, "%s\t%s\n", s.Series, strings.Join(rates, " "))
		}
		return nil
	})
}

type fxCmd struct {
	*env
	date  string
	since string
}

func (*fxCmd) Name() string     { return "fx" }
func (*fxCmd) Synopsis() string { return "look up or sync exchange rates to PLN" }
func (*fxCmd) Usage() string {
	return `tracker fx [-d <date>] <CODE>
tracker fx -since <date> <CODE>

  Prints the mid rate of CODE in force on -d (default today), fetching it when
  nothing recent is stored. With -since, stores every rate published since that date.
`
}

func (c *fxCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", "", "Date of the rate (YYYY-MM-DD, default today).")
	f.StringVar(&c.since, "since", "", "Sync rates published since this date (YYYY-MM-DD).")
}

func (c *fxCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	code := strings.ToUpper(f.Arg(0))

	date, err := parseDateFlag("d", c.date, model.Day(time.Now()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	since, err := parseDateFlag("since", c.since, time.Time{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	return c.run(ctx, func(a *app.App) error {
		if !since.IsZero() {
			n, err := a.Fx.AppendSince(ctx, code, since)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "stored %d %s rates\n", n, code)
			return nil
		}

		rate, err := a.Fx.Rate(ctx, code, date)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s %s %.4f\n", code, date.Format(model.DateLayout), rate)
		return nil
	})
}
