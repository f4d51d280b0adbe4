package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sellbook/sellbook/internal/statistics"
)

func (a *App) statsCommand() *Command {
	var window string

	tokens := make([]string, 0, len(statistics.Windows))
	for _, w := range statistics.Windows {
		tokens = append(tokens, string(w))
	}

	return &Command{
		Name:    "stats",
		Summary: "Show sales totals for a time window",
		Description: `Show total profit, tickets sold, revenue and outstanding due for a
time window. Money totals are in AED.`,
		Examples: []Example{
			{Description: "This week so far", Command: "sellbook stats --window this-week"},
		},
		Flags: func() *pflag.FlagSet {
			fs := a.flags("stats")
			fs.StringVarP(&window, "window", "w", string(statistics.All), strings.Join(tokens, ", "))
			return fs
		},
		Run: func(args []string) error {
			w, err := statistics.ParseWindow(window)
			if err != nil {
				return err
			}

			e, err := a.connect()
			if err != nil {
				return err
			}

			fetchErr := e.office.Statistics.Select(a.ctx, w)

			d := e.office.Statistics.Display()
			fmt.Fprintln(a.stdout, d.Window.Label())
			a.printTable([]string{"Total", "Value"}, statisticsRows(d))
			return fetchErr
		},
	}
}
