package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/sellbook/sellbook/internal/client"
)

const loginFailure = "Login failed. Please check your credentials."

func (a *App) loginCommand() *Command {
	const usage = "sellbook login <email> [flags]"

	return &Command{
		Name:    "login",
		Summary: "Sign in and keep the session token",
		Description: `Sign in to the back office and store the token in the token file.

The password is prompted for on a terminal and read from the first line
of standard input otherwise. Only super admin accounts are let in.`,
		Usage: usage,
		Examples: []Example{
			{Description: "Sign in interactively", Command: "sellbook login admin@example.com"},
			{Description: "Sign in from a script", Command: "echo \"$PASSWORD\" | sellbook login admin@example.com"},
		},
		Flags: func() *pflag.FlagSet { return a.flags("login") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError(usage, "email is required")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}

			password, err := a.readPassword()
			if err != nil {
				return err
			}

			res, err := e.api.Login(a.ctx, args[0], password)
			if err != nil {
				e.notify.Error(client.Notice(err, loginFailure))
				return err
			}

			d, err := e.session.Establish(res.Token)
			if err != nil {
				e.notify.Error(client.Notice(err, loginFailure))
				return err
			}

			msg := res.Message
			if msg == "" {
				msg = "Login successful!"
			}
			e.notify.Success(msg)
			fmt.Fprintf(a.stdout, "Signed in as %s (%s)\n", d.Claims.Email, d.Claims.Role)
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored session token",
		Flags:   func() *pflag.FlagSet { return a.flags("logout") },
		Run: func(args []string) error {
			e, err := a.connect()
			if err != nil {
				return err
			}
			if err := e.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, "Signed out")
			return nil
		},
	}
}

func (a *App) whoamiCommand() *Command {
	return &Command{
		Name:    "whoami",
		Summary: "Show the signed-in user",
		Description: `Check the stored token the way every protected screen does and show
who it belongs to. A missing, unreadable, expired or non-admin token is
cleared and reported.`,
		Flags: func() *pflag.FlagSet { return a.flags("whoami") },
		Run: func(args []string) error {
			e, err := a.connect()
			if err != nil {
				return err
			}

			d := e.session.Init()
			if !d.Allowed() {
				e.notify.Error(d.Notice)
				return d.Err()
			}

			expires := "never"
			if d.Claims.ExpiresAt != nil {
				exp := d.Claims.ExpiresAt.Time
				expires = fmt.Sprintf("%s (in %s)", exp.Local().Format(time.RFC3339),
					exp.Sub(a.clock.Now()).Round(time.Minute))
			}

			a.printTable([]string{"Field", "Value"}, [][]string{
				{"Email", d.Claims.Email},
				{"Role", d.Claims.Role},
				{"Expires", expires},
			})
			return nil
		},
	}
}
