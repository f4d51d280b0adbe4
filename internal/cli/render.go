package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/statistics"
	"github.com/sellbook/sellbook/internal/ticket"
)

// theme holds styles bound to one output. A writer that is not a
// terminal gets plain text.
type theme struct {
	header  lipgloss.Style
	cell    lipgloss.Style
	border  lipgloss.Style
	muted   lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

func newTheme(w io.Writer) theme {
	r := lipgloss.NewRenderer(w)

	return theme{
		header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		border:  r.NewStyle().Foreground(lipgloss.Color("8")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

func (th theme) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(th.border).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.header
			}
			return th.cell
		}).
		String()
}

// notifier prints back office notices to the error stream.
type notifier struct {
	w  io.Writer
	th theme
}

func newNotifier(w io.Writer) *notifier {
	return &notifier{w: w, th: newTheme(w)}
}

func (n *notifier) Success(msg string) {
	fmt.Fprintln(n.w, n.th.success.Render("✓ "+msg))
}

func (n *notifier) Error(msg string) {
	fmt.Fprintln(n.w, n.th.failure.Render("✗ "+msg))
}

var ticketHeaders = []string{
	"ID", "Date", "PNR", "Airline", "Route", "Passenger", "Portal",
	"Selling AED", "Profit AED", "Due AED", "Payment",
}

func ticketRows(ts []domain.Ticket) [][]string {
	rows := make([][]string, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, []string{
			t.ID,
			t.Date.String(),
			t.PNR,
			t.AirlinesName,
			route(t),
			t.PassengerName,
			t.Portal.Name,
			t.SellingPriceAED.StringFixed(2),
			t.ProfitPriceAED.StringFixed(2),
			t.DuePriceAED.StringFixed(2),
			string(t.PaymentMethod),
		})
	}
	return rows
}

func route(t domain.Ticket) string {
	arrow := " → "
	if t.Trip == domain.TripRound {
		arrow = " ⇄ "
	}
	return t.Departure + arrow + t.Arrival
}

func ticketDetail(t domain.Ticket) [][]string {
	portal := t.Portal.Name
	if portal == "" {
		portal = t.Portal.ID
	}

	rows := [][]string{
		{"ID", t.ID},
		{"Date", t.Date.String()},
		{"PNR", t.PNR},
		{"Airline", t.AirlinesName},
		{"Trip", string(t.Trip)},
		{"Route", route(t)},
		{"Passenger", t.PassengerName},
		{"Phone", fmt.Sprintf("%d", t.PhoneNumber)},
		{"Buying (AED / BDT)", t.BuyingPriceAED.StringFixed(2) + " / " + t.BuyingPriceBDT.StringFixed(2)},
		{"Selling (AED / BDT)", t.SellingPriceAED.StringFixed(2) + " / " + t.SellingPriceBDT.StringFixed(2)},
		{"Profit (AED / BDT)", t.ProfitPriceAED.StringFixed(2) + " / " + t.ProfitPriceBDT.StringFixed(2)},
		{"Due (AED / BDT)", t.DuePriceAED.StringFixed(2) + " / " + t.DuePriceBDT.StringFixed(2)},
		{"Due", yesNo(t.DueStatus)},
		{"Payment", string(t.PaymentMethod)},
	}
	if t.PaymentMethod == domain.PaymentDeposit {
		rows = append(rows,
			[]string{"Bank", t.BankName},
			[]string{"Bank reference", t.BankReference},
		)
	}
	rows = append(rows, []string{"Portal", portal})
	if t.Remarks != "" {
		rows = append(rows, []string{"Remarks", t.Remarks})
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func violationRows(vs ticket.Violations) [][]string {
	rows := make([][]string, 0, len(vs))
	for _, v := range vs {
		rows = append(rows, []string{v.Field, v.Message})
	}
	return rows
}

func portalRows(ps []domain.Portal) [][]string {
	rows := make([][]string, 0, len(ps))
	for _, p := range ps {
		created := ""
		if !p.CreatedAt.IsZero() {
			created = p.CreatedAt.Format(domain.DateLayout)
		}
		rows = append(rows, []string{p.ID, p.Name, created})
	}
	return rows
}

func statisticsRows(d statistics.Display) [][]string {
	out := make([][]string, 0, 4)
	for _, r := range d.Rows() {
		out = append(out, []string{r.Label, r.Value})
	}
	return out
}

func pageFooter(m domain.Meta) string {
	if m.TotalPage == 0 {
		return fmt.Sprintf("No records (page %d)", max(m.Page, 1))
	}
	return fmt.Sprintf("Page %d of %d, %d records", m.Page, m.TotalPage, m.Total)
}
