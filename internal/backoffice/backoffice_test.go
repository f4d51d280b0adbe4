package backoffice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellbook/sellbook/internal/client"
	"github.com/sellbook/sellbook/internal/domain"
	"github.com/sellbook/sellbook/internal/events"
	"github.com/sellbook/sellbook/internal/filter"
	"github.com/sellbook/sellbook/internal/statistics"
	"github.com/sellbook/sellbook/internal/ticket"
)

func setup(t *testing.T) (*Backoffice, *fakeAPI, *notices) {
	t.Helper()
	api := newFakeAPI()
	n := &notices{}
	b := New(api, events.NewBus(), n)
	t.Cleanup(b.Close)
	return b, api, n
}

func fill(t *testing.T, f *ticket.Form) {
	t.Helper()
	for _, kv := range [][2]string{
		{ticket.FieldDate, "2024-03-14"},
		{ticket.FieldPNR, "ABC123"},
		{ticket.FieldAirline, "Emirates"},
		{ticket.FieldDeparture, "DXB"},
		{ticket.FieldArrival, "DAC"},
		{ticket.FieldPassengerName, "Rahim Uddin"},
		{ticket.FieldPhoneNumber, "971501234567"},
		{ticket.FieldSellingAED, "1200"},
		{ticket.FieldBuyingAED, "1000"},
		{ticket.FieldPortal, "p1"},
	} {
		require.NoError(t, f.Set(kv[0], kv[1]))
	}
}

func TestApplyResetsPageAndSetPageKeepsFilter(t *testing.T) {
	b, api, _ := setup(t)

	var seen []filter.Params
	api.listFn = func(_ context.Context, p filter.Params) (*client.Response[[]domain.Ticket], error) {
		seen = append(seen, p)
		return &client.Response[[]domain.Ticket]{}, nil
	}
	ctx := context.Background()

	require.NoError(t, b.Selling.Apply(ctx, filter.Default().With(filter.KeyPNR, "ABC")))
	require.NoError(t, b.Selling.SetPage(ctx, 3))
	require.NoError(t, b.Selling.Apply(ctx, filter.Default().With(filter.KeyPNR, "XYZ")))

	require.Len(t, seen, 3)
	assert.Equal(t, filter.Params{{Name: "page", Value: "3"}, {Name: "limit", Value: "10"}, {Name: "pnr", Value: "ABC"}}, seen[1])
	page, _ := seen[2].Get("page")
	assert.Equal(t, "1", page)
}

func TestApplyAtLoadsRequestedPageOnce(t *testing.T) {
	b, api, _ := setup(t)

	var seen []filter.Params
	api.listFn = func(_ context.Context, p filter.Params) (*client.Response[[]domain.Ticket], error) {
		seen = append(seen, p)
		return &client.Response[[]domain.Ticket]{Meta: domain.Meta{Page: 2, Limit: 10, Total: 11, TotalPage: 2}}, nil
	}

	require.NoError(t, b.Selling.ApplyAt(context.Background(), filter.Default().With(filter.KeyPNR, "ABC"), 2))

	require.Len(t, seen, 1)
	assert.Equal(t, filter.Params{{Name: "page", Value: "2"}, {Name: "limit", Value: "10"}, {Name: "pnr", Value: "ABC"}}, seen[0])
	snap := b.Selling.Snapshot()
	assert.Equal(t, 2, snap.Meta.Page)
	assert.Equal(t, "ABC", snap.State[filter.KeyPNR])
}

func TestStaleListResponseIsDiscarded(t *testing.T) {
	b, api, _ := setup(t)

	release := make(chan struct{})
	started := make(chan struct{})
	api.listFn = func(_ context.Context, p filter.Params) (*client.Response[[]domain.Ticket], error) {
		pnr, _ := p.Get("pnr")
		if pnr == "OLD" {
			close(started)
			<-release
		}
		return &client.Response[[]domain.Ticket]{Data: []domain.Ticket{{PNR: pnr}}}, nil
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	var oldErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		oldErr = b.Selling.Apply(ctx, filter.Default().With(filter.KeyPNR, "OLD"))
	}()
	<-started

	require.NoError(t, b.Selling.Apply(ctx, filter.Default().With(filter.KeyPNR, "NEW")))
	close(release)
	wg.Wait()

	assert.ErrorIs(t, oldErr, ErrSuperseded)
	snap := b.Selling.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "NEW", snap.Rows[0].PNR)
	assert.Equal(t, "NEW", snap.State[filter.KeyPNR])
}

func TestStatisticsFailureIsUnavailable(t *testing.T) {
	b, api, n := setup(t)
	api.statsFn = func(statistics.Window) (*client.Response[domain.Statistics], error) {
		return nil, &client.RequestError{Status: 500}
	}

	err := b.Statistics.Select(context.Background(), statistics.LastMonth)

	require.Error(t, err)
	d := b.Statistics.Display()
	assert.False(t, d.Available)
	assert.Equal(t, statistics.LastMonth, d.Window)
	assert.Equal(t, []string{"Failed to load statistics."}, n.errors)
}

func TestSaveInvalidFormMakesNoRequest(t *testing.T) {
	b, api, _ := setup(t)
	ed := b.NewTicket()
	ed.OpenCreate()

	_, err := ed.Save(context.Background())

	assert.True(t, ticket.IsValidationError(err))
	assert.Zero(t, api.count("CreateTicket"))
	assert.NotNil(t, ed.Form())
}

func TestSaveInvalidatesListAndStatistics(t *testing.T) {
	b, api, n := setup(t)
	ed := b.NewTicket()
	fill(t, ed.OpenCreate())

	got, err := ed.Save(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)
	assert.True(t, got.ProfitPriceAED.IsPositive())
	assert.Nil(t, ed.Form())
	assert.Equal(t, 1, api.count("ListTickets"))
	assert.Equal(t, 1, api.count("Statistics"))
	assert.Equal(t, []string{"Selling record created successfully!"}, n.success)
}

func TestFailedSaveKeepsForm(t *testing.T) {
	b, api, n := setup(t)
	api.saveErr = &client.RequestError{Status: 400, Message: "PNR already exists"}
	ed := b.NewTicket()
	form := ed.OpenCreate()
	fill(t, form)

	_, err := ed.Save(context.Background())

	require.Error(t, err)
	assert.Same(t, form, ed.Form())
	assert.Equal(t, "ABC123", form.Preview().PNR)
	assert.Equal(t, []string{"PNR already exists"}, n.errors)
	assert.Zero(t, api.count("ListTickets"))
}

func TestOpenEditMissingRecordRefreshesList(t *testing.T) {
	b, api, n := setup(t)

	_, err := b.NewTicket().OpenEdit(context.Background(), "gone")

	assert.True(t, client.IsNotFound(err))
	assert.Equal(t, 1, api.count("ListTickets"))
	assert.Equal(t, []string{"Ticket not found"}, n.errors)
}

func TestEditUpdatesByID(t *testing.T) {
	b, api, _ := setup(t)
	existing := ticket.Derive(domain.Ticket{
		ID: "t1", Date: domain.NewDate(2024, 3, 1), PNR: "P1", AirlinesName: "Qatar",
		Trip: domain.TripRound, Departure: "DOH", Arrival: "DAC", PassengerName: "Karim",
		PhoneNumber: 8801711, PaymentMethod: domain.PaymentCash, Portal: domain.PortalRef{ID: "p1", Name: "Sky Trip"},
	})
	api.tickets["t1"] = existing
	ed := b.NewTicket()

	form, err := ed.OpenEdit(context.Background(), "t1")
	require.NoError(t, err)
	require.NoError(t, form.Set(ticket.FieldRemarks, "changed"))

	got, err := ed.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, 1, api.count("UpdateTicket"))
}

func TestConfirmationIsOneShot(t *testing.T) {
	b, api, n := setup(t)
	c := b.DeleteTicket(domain.Ticket{ID: "t1", PNR: "ABC123", PassengerName: "Rahim"})

	assert.Contains(t, c.Prompt, "ABC123")
	assert.Zero(t, api.count("DeleteTicket"))

	require.NoError(t, c.Confirm(context.Background()))
	assert.ErrorIs(t, c.Confirm(context.Background()), ErrConfirmationSpent)
	assert.Equal(t, 1, api.count("DeleteTicket"))
	assert.Equal(t, 1, api.count("Statistics"))
	assert.Equal(t, []string{"Selling record deleted successfully!"}, n.success)
}

func TestCancelledConfirmationNeverRuns(t *testing.T) {
	b, api, _ := setup(t)
	c := b.DeletePortal(domain.Portal{ID: "p1", Name: "Sky Trip"})

	c.Cancel()

	assert.True(t, errors.Is(c.Confirm(context.Background()), ErrConfirmationSpent))
	assert.Zero(t, api.count("DeletePortal"))
}

func TestPortalEditor(t *testing.T) {
	b, api, n := setup(t)
	ed := b.PortalEditor()

	_, err := ed.Create(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPortalName)
	assert.Equal(t, []string{"Portal name cannot be empty."}, n.errors)
	assert.Zero(t, api.count("CreatePortal"))

	p, err := ed.Create(context.Background(), " Sky Trip ")
	require.NoError(t, err)
	assert.Equal(t, "Sky Trip", p.Name)
	assert.Equal(t, 1, api.count("ListPortals"))
	assert.Equal(t, 1, api.count("ListTickets"))

	_, err = ed.Rename(context.Background(), "p2", "Sky Trip Intl")
	require.NoError(t, err)
	assert.Equal(t, []string{"Portal created successfully!", "Portal updated successfully!"}, n.success)
}

func TestLoggedInRefreshesEverything(t *testing.T) {
	b, api, _ := setup(t)

	b.LoggedIn()

	assert.Equal(t, 1, api.count("ListTickets"))
	assert.Equal(t, 1, api.count("ListPortals"))
	assert.Equal(t, 1, api.count("Statistics"))
	assert.Len(t, b.Portals.Rows(), 1)
}
