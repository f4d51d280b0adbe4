package cli

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/ticket"
)

func (a *App) ticketsCommand() *Command {
	return &Command{
		Name:    "tickets",
		Summary: "List, inspect and edit selling records",
		Subcommands: []*Command{
			a.ticketsListCommand(),
			a.ticketsShowCommand(),
			a.ticketsCreateCommand(),
			a.ticketsEditCommand(),
			a.ticketsDeleteCommand(),
			a.ticketsSlipCommand(),
		},
	}
}

type listOptions struct {
	dateFrom, dateTo   string
	pnr, airline       string
	trip               string
	departure, arrival string
	priceSort          string
	due                string
	payment            string
	bankName, bankRef  string
	passenger, phone   string
	portal, search     string
	page               int
}

func (o *listOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.dateFrom, "from", "", "earliest travel date (YYYY-MM-DD)")
	fs.StringVar(&o.dateTo, "to", "", "latest travel date (YYYY-MM-DD)")
	fs.StringVar(&o.pnr, "pnr", "", "PNR contains")
	fs.StringVar(&o.airline, "airline", "", "airline contains")
	fs.StringVar(&o.trip, "trip", filter.All, "all, single or round")
	fs.StringVar(&o.departure, "departure", "", "departure contains")
	fs.StringVar(&o.arrival, "arrival", "", "arrival contains")
	fs.StringVar(&o.priceSort, "sort-price", filter.None, "none, low-to-high or high-to-low")
	fs.StringVar(&o.due, "due", filter.All, "all, due-only or no-due")
	fs.StringVar(&o.payment, "payment", filter.All, "all, cash or deposit")
	fs.StringVar(&o.bankName, "bank-name", "", "bank name contains")
	fs.StringVar(&o.bankRef, "bank-reference", "", "bank reference contains")
	fs.StringVar(&o.passenger, "passenger", "", "passenger name contains")
	fs.StringVar(&o.phone, "phone", "", "phone number contains")
	fs.StringVar(&o.portal, "portal", "", "portal name contains")
	fs.StringVarP(&o.search, "search", "s", "", "search across PNR, airline, route, passenger and portal")
	fs.IntVar(&o.page, "page", 1, "page to show")
}

func (o *listOptions) state() filter.State {
	return filter.Default().
		With(filter.KeyDateFrom, o.dateFrom).
		With(filter.KeyDateTo, o.dateTo).
		With(filter.KeyPNR, o.pnr).
		With(filter.KeyAirline, o.airline).
		With(filter.KeyTrip, o.trip).
		With(filter.KeyDeparture, o.departure).
		With(filter.KeyArrival, o.arrival).
		With(filter.KeyPriceSort, o.priceSort).
		With(filter.KeyDueFilter, o.due).
		With(filter.KeyPaymentMethod, o.payment).
		With(filter.KeyBankName, o.bankName).
		With(filter.KeyBankReference, o.bankRef).
		With(filter.KeyPassengerName, o.passenger).
		With(filter.KeyPhoneNumber, o.phone).
		With(filter.KeyPortalName, o.portal).
		With(filter.KeySearchTerm, o.search)
}

func (a *App) ticketsListCommand() *Command {
	var opts listOptions

	return &Command{
		Name:    "list",
		Summary: "List selling records",
		Description: `List selling records ten to a page, newest first unless a price sort
is chosen. Text filters match anywhere in the field, ignoring case.`,
		Examples: []Example{
			{Description: "Unpaid deposits for one airline", Command: "sellbook tickets list --airline emirates --payment deposit --due due-only"},
			{Description: "Second page of a search", Command: "sellbook tickets list -s DXB --page 2"},
		},
		Flags: func() *pflag.FlagSet {
			fs := a.flags("tickets list")
			opts.bind(fs)
			return fs
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}

			e, err := a.connect()
			if err != nil {
				return err
			}

			view := e.office.Selling
			if err := view.ApplyAt(a.ctx, opts.state(), opts.page); err != nil {
				e.notify.Error(client.Notice(err, "Failed to load selling records"))
				return err
			}

			snap := view.Snapshot()
			a.printTable(ticketHeaders, ticketRows(snap.Rows))

			footer := pageFooter(snap.Meta)
			if n := filter.Active(snap.State); n > 0 {
				footer += fmt.Sprintf(", %d filters active", n)
			}
			fmt.Fprintln(a.stdout, footer)
			return nil
		},
	}
}

func (a *App) ticketsShowCommand() *Command {
	const usage = "sellbook tickets show <id> [flags]"

	return &Command{
		Name:    "show",
		Summary: "Show one selling record",
		Usage:   usage,
		Flags:   func() *pflag.FlagSet { return a.flags("tickets show") },
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError(usage, "record id is required")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}

			resp, err := e.api.GetTicket(a.ctx, args[0])
			if err != nil {
				e.notify.Error(client.Notice(err, genericFailure))
				return err
			}

			a.printTable([]string{"Field", "Value"}, ticketDetail(resp.Data))
			return nil
		},
	}
}

const genericFailure = "Something went wrong!"

// fieldAliases are shorter names accepted for record fields.
var fieldAliases = map[string]string{
	"airline":   ticket.FieldAirline,
	"passenger": ticket.FieldPassengerName,
	"phone":     ticket.FieldPhoneNumber,
}

type formOptions struct {
	sets   []string
	file   string
	dryRun bool
}

func (o *formOptions) bind(fs *pflag.FlagSet) {
	fs.StringArrayVar(&o.sets, "set", nil, "field=value, repeatable (fields use the record's JSON names)")
	fs.StringVarP(&o.file, "file", "f", "", "YAML or JSON file mapping fields to values")
	fs.BoolVar(&o.dryRun, "dry-run", false, "show the record with derived fields and any errors, then stop")
}

type fieldValue struct {
	field string
	value string
}

// values returns the file entries in key order followed by --set entries,
// so flags win over the file.
func (o *formOptions) values() ([]fieldValue, error) {
	var out []fieldValue

	if o.file != "" {
		b, err := os.ReadFile(o.file)
		if err != nil {
			return nil, err
		}
		var m map[string]string
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("parse %s: %w", o.file, err)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, fieldValue{field: k, value: m[k]})
		}
	}

	for _, s := range o.sets {
		field, value, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return nil, fmt.Errorf("--set %q: want field=value", s)
		}
		out = append(out, fieldValue{field: strings.TrimSpace(field), value: value})
	}

	return out, nil
}

// fill applies values to form. A portal given by name is looked up.
func (a *App) fill(e *env, form *ticket.Form, values []fieldValue) error {
	for _, fv := range values {
		field := fv.field
		if alias, ok := fieldAliases[field]; ok {
			field = alias
		}

		value := fv.value
		if field == ticket.FieldPortal {
			id, err := a.resolvePortal(e, value)
			if err != nil {
				return err
			}
			value = id
		}

		if err := form.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

// resolvePortal accepts a portal id or an exact portal name.
func (a *App) resolvePortal(e *env, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}

	if err := e.office.Portals.Search(a.ctx, ref); err != nil {
		return "", err
	}
	for _, p := range e.office.Portals.Rows() {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p.ID, nil
		}
	}
	return ref, nil
}

// submit saves form through save, or previews it on a dry run.
func (a *App) submit(e *env, form *ticket.Form, save func() error, dryRun bool) error {
	var err error
	if dryRun {
		_, err = form.Submit()
		a.printTable([]string{"Field", "Value"}, ticketDetail(form.Preview()))
	} else {
		err = save()
	}

	var ve *ticket.ValidationError
	if errors.As(err, &ve) {
		e.notify.Error(client.Notice(err, genericFailure))
		a.printTable([]string{"Field", "Problem"}, violationRows(ve.Violations))
	}
	return err
}

func (a *App) ticketsCreateCommand() *Command {
	var opts formOptions

	return &Command{
		Name:    "create",
		Summary: "Add a selling record",
		Description: `Add a selling record. Profit and due status are computed from the
prices and cannot be set. Trip defaults to single and payment to cash.
The record is checked locally and nothing is sent while it is invalid.`,
		Examples: []Example{
			{
				Description: "Cash sale",
				Command: "sellbook tickets create --set date=2025-03-01 --set pnr=AB12CD --set airline=Emirates \\\n" +
					"    --set departure=DXB --set arrival=DAC --set passenger='Jane Doe' --set phone=971500000000 \\\n" +
					"    --set buyingPriceAED=900 --set sellingPriceAED=1000 --set portal=Sabre",
			},
			{Description: "From a file", Command: "sellbook tickets create -f sale.yaml"},
		},
		Flags: func() *pflag.FlagSet {
			fs := a.flags("tickets create")
			opts.bind(fs)
			return fs
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}

			values, err := opts.values()
			if err != nil {
				return err
			}

			e, err := a.connect()
			if err != nil {
				return err
			}
			e.quiet()

			editor := e.office.NewTicket()
			form := editor.OpenCreate()
			if err := a.fill(e, form, values); err != nil {
				return err
			}

			return a.submit(e, form, func() error {
				t, err := editor.Save(a.ctx)
				if err != nil {
					return err
				}
				a.printTable([]string{"Field", "Value"}, ticketDetail(t))
				return nil
			}, opts.dryRun)
		},
	}
}

func (a *App) ticketsEditCommand() *Command {
	const usage = "sellbook tickets edit <id> [flags]"
	var opts formOptions

	return &Command{
		Name:    "edit",
		Summary: "Change a selling record",
		Usage:   usage,
		Examples: []Example{
			{Description: "Record a payment", Command: "sellbook tickets edit 6650c1 --set duePriceAED=0 --set duePriceBDT=0"},
		},
		Flags: func() *pflag.FlagSet {
			fs := a.flags("tickets edit")
			opts.bind(fs)
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError(usage, "record id is required")
			}

			values, err := opts.values()
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return usageError(usage, "nothing to change; pass --set or --file")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}
			e.quiet()

			editor := e.office.NewTicket()
			form, err := editor.OpenEdit(a.ctx, args[0])
			if err != nil {
				return err
			}
			if err := a.fill(e, form, values); err != nil {
				return err
			}

			return a.submit(e, form, func() error {
				t, err := editor.Save(a.ctx)
				if err != nil {
					return err
				}
				a.printTable([]string{"Field", "Value"}, ticketDetail(t))
				return nil
			}, opts.dryRun)
		},
	}
}

func (a *App) ticketsDeleteCommand() *Command {
	const usage = "sellbook tickets delete <id> [flags]"
	var yes bool

	return &Command{
		Name:    "delete",
		Summary: "Delete a selling record",
		Usage:   usage,
		Flags: func() *pflag.FlagSet {
			fs := a.flags("tickets delete")
			fs.BoolVarP(&yes, "yes", "y", false, "delete without asking")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError(usage, "record id is required")
			}

			e, err := a.connect()
			if err != nil {
				return err
			}
			e.quiet()

			resp, err := e.api.GetTicket(a.ctx, args[0])
			if err != nil {
				e.notify.Error(client.Notice(err, "Failed to delete record"))
				return err
			}

			c := e.office.DeleteTicket(resp.Data)
			return a.runConfirmation(c, yes)
		},
	}
}

func (a *App) ticketsSlipCommand() *Command {
	const usage = "sellbook tickets slip <id> [flags]"
	var out string

	return &Command{
		Name:    "slip",
		Summary: "Download the payment slip PDF",
		Usage:   usage,
		Flags: func() *pflag.FlagSet {
			fs := a.flags("tickets slip")
			fs.StringVarP(&out, "output", "o", "", "file to write (default slip-<id>.pdf, - for stdout)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return usageError(usage, "record id is required")
			}
			id := args[0]

			e, err := a.connect()
			if err != nil {
				return err
			}

			pdf, err := e.api.Slip(a.ctx, id)
			if err != nil {
				e.notify.Error(client.Notice(err, genericFailure))
				return err
			}

			if out == "-" {
				_, err := a.stdout.Write(pdf)
				return err
			}
			path := out
			if path == "" {
				path = "slip-" + id + ".pdf"
			}
			if err := os.WriteFile(path, pdf, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s (%d bytes)\n", path, len(pdf))
			return nil
		},
	}
}
