package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sellbook/sellbook/internal/domain"
)

const ticketColumns = `s.id, s.date, s.pnr, s.airlines_name, s.trip, s.departure, s.arrival,
	s.passenger_name, s.phone_number,
	s.buying_price_aed, s.selling_price_aed, s.profit_price_aed,
	s.buying_price_bdt, s.selling_price_bdt, s.profit_price_bdt,
	s.due_price_aed, s.due_price_bdt, s.due_status,
	s.payment_method, s.bank_name, s.bank_reference, s.remarks,
	p.id, p.name, s.created_at, s.updated_at`

const ticketFrom = `FROM sells s JOIN portals p ON p.id = s.portal_id`

// sortColumns maps the sort names accepted by the API to columns.
var sortColumns = map[string]string{
	"date":            "s.date",
	"createdAt":       "s.created_at",
	"buyingPriceAED":  "s.buying_price_aed",
	"sellingPriceAED": "s.selling_price_aed",
	"profitPriceAED":  "s.profit_price_aed",
	"duePriceAED":     "s.due_price_aed",
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *where) add(format string, v any) {
	w.conds = append(w.conds, fmt.Sprintf(format, w.arg(v)))
}

func (w *where) contains(column, term string) {
	if term == "" {
		return
	}
	w.add(column+" ILIKE %s", "%"+escapeLike(term)+"%")
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func ticketWhere(q domain.TicketQuery) *where {
	w := &where{}

	if q.StartDate != nil {
		w.add("s.date >= %s", *q.StartDate)
	}
	if q.EndDate != nil {
		w.add("s.date <= %s", *q.EndDate)
	}

	w.contains("s.pnr", q.PNR)
	w.contains("s.airlines_name", q.Airline)
	w.contains("s.departure", q.Departure)
	w.contains("s.arrival", q.Arrival)
	w.contains("s.passenger_name", q.PassengerName)
	w.contains("s.phone_number::text", q.PhoneNumber)
	w.contains("s.bank_name", q.BankName)
	w.contains("s.bank_reference", q.BankReference)
	w.contains("p.name", q.PortalName)

	if q.Trip != "" {
		w.add("s.trip = %s", string(q.Trip))
	}
	if q.PaymentMethod != "" {
		w.add("s.payment_method = %s", string(q.PaymentMethod))
	}
	if q.DueStatus != nil {
		w.add("s.due_status = %s", *q.DueStatus)
	}

	if q.SearchTerm != "" {
		p := w.arg("%" + escapeLike(q.SearchTerm) + "%")
		w.conds = append(w.conds, fmt.Sprintf(
			"(s.pnr ILIKE %[1]s OR s.airlines_name ILIKE %[1]s OR s.passenger_name ILIKE %[1]s"+
				" OR s.departure ILIKE %[1]s OR s.arrival ILIKE %[1]s OR p.name ILIKE %[1]s)",
			p,
		))
	}

	return w
}

func orderBy(q domain.TicketQuery) string {
	col, ok := sortColumns[q.SortField]
	if !ok {
		return " ORDER BY s.created_at DESC, s.id"
	}

	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, s.id", col, dir)
}

func page(w *where, p, limit int) string {
	if p < 1 {
		p = 1
	}
	return fmt.Sprintf(" LIMIT %s OFFSET %s", w.arg(limit), w.arg((p-1)*limit))
}

// ticketListSQL selects one page of tickets plus the unpaged total.
func ticketListSQL(q domain.TicketQuery) (string, []any) {
	w := ticketWhere(q)
	sql := "SELECT " + ticketColumns + ", COUNT(*) OVER() " + ticketFrom +
		w.String() + orderBy(q) + page(w, q.Page, q.Limit)
	return sql, w.args
}

func ticketCountSQL(q domain.TicketQuery) (string, []any) {
	w := ticketWhere(q)
	return "SELECT COUNT(*) " + ticketFrom + w.String(), w.args
}

func portalWhere(q domain.PortalQuery) *where {
	w := &where{}
	w.contains("name", q.SearchTerm)
	return w
}

func portalListSQL(q domain.PortalQuery) (string, []any) {
	w := portalWhere(q)
	sql := "SELECT id, name, created_at, updated_at, COUNT(*) OVER() FROM portals" +
		w.String() + " ORDER BY created_at DESC, id" + page(w, q.Page, q.Limit)
	return sql, w.args
}

func portalCountSQL(q domain.PortalQuery) (string, []any) {
	w := portalWhere(q)
	return "SELECT COUNT(*) FROM portals" + w.String(), w.args
}
