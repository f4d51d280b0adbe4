package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sellbook/sellbook/internal/backoffice"
	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
)

func (a *App) portalsCommand() *Command {
	return &Command{
		Name:    "portals",
		Summary: "Manage booking portals",
		Subcommands: []*Command{
			a.portalsListCommand(),
			a.portalsCreateCommand(),
			a.portalsRenameCommand(),
			a.portalsDeleteCommand(),
		},
	}
}

func (a *App) portalsListCommand() *Command {
	var search string

	return &Command{
		Name:    "list",
		Summary: "List portals",
		Flags: func() *pflag.FlagSet {
			fs := a.flags("portals list")
			fs.StringVarP(&search, "search", "s", "", "name contains")
			return fs
		},
		Run: func(args []string) error {
			e, err := a.connect()
			if err != nil {
				return err
			}

			if err := e.office.Portals.Search(a.ctx, search); err != nil {
				return err
			}

			rows := e.office.Portals.Rows()
			a.printTable([]string{"ID", "Name", "Created"}, portalRows(rows))
			fmt.Fprintf(a.stdout, "%d portals\n", len(rows))
			return nil
		},
	}
}

func (a *App) portalsCreateCommand() *Command {
	const usage = "sellbook portals create <name> [flags]"

	return &Command{
		Name:    "create",
		Summary: "Add a portal",
		Usage:   usage,
		Examples: []Example{
			{Command: "sellbook portals create \"Sabre GDS\""},
		},
		Flags: func() *pflag.FlagSet { return a.flags("portals create") },
		Run: func(args []string) error {
			if len(args) == 0 {
				return usageError(usage, "portal name is required")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}
			e.quiet()

			p, err := e.office.PortalEditor().Create(a.ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.printTable([]string{"ID", "Name", "Created"}, portalRows([]domain.Portal{p}))
			return nil
		},
	}
}

func (a *App) portalsRenameCommand() *Command {
	const usage = "sellbook portals rename <id> <name> [flags]"

	return &Command{
		Name:    "rename",
		Summary: "Rename a portal",
		Usage:   usage,
		Flags:   func() *pflag.FlagSet { return a.flags("portals rename") },
		Run: func(args []string) error {
			if len(args) < 2 {
				return usageError(usage, "portal id and new name are required")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}
			e.quiet()

			p, err := e.office.PortalEditor().Rename(a.ctx, args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			a.printTable([]string{"ID", "Name", "Created"}, portalRows([]domain.Portal{p}))
			return nil
		},
	}
}

func (a *App) portalsDeleteCommand() *Command {
	const usage = "sellbook portals delete <id> [flags]"
	var yes bool

	return &Command{
		Name:        "delete",
		Summary:     "Delete a portal",
		Description: "Delete a portal. The server refuses while selling records still use it.",
		Usage:       usage,
		Flags: func() *pflag.FlagSet {
			fs := a.flags("portals delete")
			fs.BoolVarP(&yes, "yes", "y", false, "delete without asking")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError(usage, "portal id is required")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}
			e.quiet()

			resp, err := e.api.GetPortal(a.ctx, args[0])
			if err != nil {
				e.notify.Error("Failed to delete portal: " + client.Notice(err, "Unknown error"))
				return err
			}

			return a.runConfirmation(e.office.DeletePortal(resp.Data), yes)
		},
	}
}

// runConfirmation asks before running c unless yes is set. Declining
// cancels c and is not an error.
func (a *App) runConfirmation(c *backoffice.Confirmation, yes bool) error {
	if !yes {
		ok, err := a.confirm(c.Prompt)
		if err != nil {
			c.Cancel()
			return err
		}
		if !ok {
			c.Cancel()
			fmt.Fprintln(a.stdout, "Cancelled")
			return nil
		}
	}

	return c.Confirm(a.ctx)
}
