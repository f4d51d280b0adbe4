package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/repository"
)

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// scanTicket reads the ticketColumns of one row; extra receives any
// trailing columns.
func scanTicket(row pgx.Row, extra ...any) (domain.Ticket, error) {
	var (
		t    domain.Ticket
		date time.Time
	)

	dest := []any{
		&t.ID, &date, &t.PNR, &t.AirlinesName, &t.Trip, &t.Departure, &t.Arrival,
		&t.PassengerName, &t.PhoneNumber,
		&t.BuyingPriceAED, &t.SellingPriceAED, &t.ProfitPriceAED,
		&t.BuyingPriceBDT, &t.SellingPriceBDT, &t.ProfitPriceBDT,
		&t.DuePriceAED, &t.DuePriceBDT, &t.DueStatus,
		&t.PaymentMethod, &t.BankName, &t.BankReference, &t.Remarks,
		&t.Portal.ID, &t.Portal.Name, &t.CreatedAt, &t.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Ticket{}, err
	}

	t.Date = domain.NewDate(date.Year(), date.Month(), date.Day())

	return t, nil
}

// Get retrieves a ticket with its portal populated.
//
// Returns:
//   - error: repository.ErrNotFound if no ticket has the id.
func (r *TicketRepo) Get(ctx context.Context, id string) (domain.Ticket, error) {
	const op = "postgres.TicketRepo.Get"

	t, err := scanTicket(r.handle().QueryRow(ctx,
		"SELECT "+ticketColumns+" "+ticketFrom+" WHERE s.id = $1",
		id,
	))
	if err != nil {
		return domain.Ticket{}, wrapDBErr(op, err)
	}

	return t, nil
}

// List returns one page of tickets and the total matching q.
func (r *TicketRepo) List(ctx context.Context, q domain.TicketQuery) ([]domain.Ticket, int, error) {
	const op = "postgres.TicketRepo.List"

	db := r.handle()

	sql, args := ticketListSQL(q)
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Ticket, 0, q.Limit)
	total := 0
	for rows.Next() {
		t, err := scanTicket(rows, &total)
		if err != nil {
			return nil, 0, wrapDBErr(op, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapDBErr(op, err)
	}

	// A page past the end carries no window total.
	if len(out) == 0 && q.Page > 1 {
		sql, args := ticketCountSQL(q)
		if err := db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
			return nil, 0, wrapDBErr(op, err)
		}
	}

	return out, total, nil
}

// Create inserts t, whose ID is already assigned.
//
// Returns:
//   - error: repository.ErrReferenced if the portal does not exist.
//   - error: repository.ErrConflict if the id is taken.
func (r *TicketRepo) Create(ctx context.Context, t domain.Ticket) error {
	const op = "postgres.TicketRepo.Create"

	_, err := r.handle().Exec(ctx,
		`INSERT INTO sells (
			id, date, pnr, airlines_name, trip, departure, arrival,
			passenger_name, phone_number,
			buying_price_aed, selling_price_aed, profit_price_aed,
			buying_price_bdt, selling_price_bdt, profit_price_bdt,
			due_price_aed, due_price_bdt, due_status,
			payment_method, bank_name, bank_reference, remarks,
			portal_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $24
		)`,
		t.ID, t.Date.Time, t.PNR, t.AirlinesName, string(t.Trip), t.Departure, t.Arrival,
		t.PassengerName, t.PhoneNumber,
		t.BuyingPriceAED, t.SellingPriceAED, t.ProfitPriceAED,
		t.BuyingPriceBDT, t.SellingPriceBDT, t.ProfitPriceBDT,
		t.DuePriceAED, t.DuePriceBDT, t.DueStatus,
		string(t.PaymentMethod), t.BankName, t.BankReference, t.Remarks,
		t.Portal.ID, t.CreatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Update replaces every editable column of the ticket with t.ID.
//
// Returns:
//   - error: repository.ErrNotFound if no ticket has the id.
//   - error: repository.ErrReferenced if the portal does not exist.
func (r *TicketRepo) Update(ctx context.Context, t domain.Ticket) error {
	const op = "postgres.TicketRepo.Update"

	tag, err := r.handle().Exec(ctx,
		`UPDATE sells SET
			date = $2, pnr = $3, airlines_name = $4, trip = $5,
			departure = $6, arrival = $7, passenger_name = $8, phone_number = $9,
			buying_price_aed = $10, selling_price_aed = $11, profit_price_aed = $12,
			buying_price_bdt = $13, selling_price_bdt = $14, profit_price_bdt = $15,
			due_price_aed = $16, due_price_bdt = $17, due_status = $18,
			payment_method = $19, bank_name = $20, bank_reference = $21, remarks = $22,
			portal_id = $23, updated_at = $24
		WHERE id = $1`,
		t.ID, t.Date.Time, t.PNR, t.AirlinesName, string(t.Trip), t.Departure, t.Arrival,
		t.PassengerName, t.PhoneNumber,
		t.BuyingPriceAED, t.SellingPriceAED, t.ProfitPriceAED,
		t.BuyingPriceBDT, t.SellingPriceBDT, t.ProfitPriceBDT,
		t.DuePriceAED, t.DuePriceBDT, t.DueStatus,
		string(t.PaymentMethod), t.BankName, t.BankReference, t.Remarks,
		t.Portal.ID, t.UpdatedAt,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes the ticket with id.
//
// Returns:
//   - error: repository.ErrNotFound if no ticket has the id.
func (r *TicketRepo) Delete(ctx context.Context, id string) error {
	const op = "postgres.TicketRepo.Delete"

	tag, err := r.handle().Exec(ctx, `DELETE FROM sells WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
