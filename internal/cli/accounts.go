package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/model"
)

type accountsCmd struct {
	*env
	create string
	owner  string
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts or create one" }
func (*accountsCmd) Usage() string {
	return `tracker accounts [-create <name> [-owner <owner>]]

  Without flags, lists every account with its refresh state.
  With -create, stores a new account and prints its id.
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.create, "create", "", "Name of the account to create.")
	f.StringVar(&c.owner, "owner", "", "Owner of the account to create.")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	return c.run(ctx, func(a *app.App) error {
		if c.create != "" {
			account, err := a.Accounts.CreateAccount(ctx, c.create, c.owner)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, account.ID)
			return nil
		}

		accounts, err := a.Accounts.GetAccounts(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOWNER\tSTATE")
		for _, account := range accounts {
			state, err := a.Refresh.State(ctx, account.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", account.ID, account.Name, account.Owner, describeState(state))
		}
		return w.Flush()
	})
}

func describeState(s model.AccountState) string {
	if s.State == model.StateStale {
		return fmt.Sprintf("%s from %s", s.State, s.StaleFrom.Format(model.DateLayout))
	}
	return s.State.String()
}

type importCmd struct {
	*env
	account string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a ';' separated ledger CSV into an account" }
func (*importCmd) Usage() string {
	return `tracker import -account <id> <file.csv>

  Validates every row, resolves exchange rates on the purchase dates and stores
  the transactions. Any invalid row rejects the whole file. History from the
  earliest imported date is invalidated.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account id the transactions belong to.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.account == "" || f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return c.run(ctx, func(a *app.App) error {
		file, err := os.Open(f.Arg(0))
		if err != nil {
			return err
		}
		defer file.Close()

		imported, err := a.Ledger.ImportCSV(ctx, c.account, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "imported %d transactions into %s\n", len(imported), c.account)
		return nil
	})
}
