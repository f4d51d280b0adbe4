package backoffice

import (
	"context"
	"sync"

	"github.com/sellbook/sellbook/internal/events"
	"github.com/sellbook/sellbook/internal/statistics"
)

const statisticsFailure = "Failed to load statistics."

// StatisticsView is the dashboard totals for the selected window.
type StatisticsView struct {
	api    API
	notify Notifier
	unsub  func()

	mu      sync.Mutex
	gen     uint64
	window  statistics.Window
	display statistics.Display
}

func NewStatisticsView(api API, bus *events.Bus, notify Notifier) *StatisticsView {
	v := &StatisticsView{
		api:     api,
		notify:  notify,
		window:  statistics.All,
		display: statistics.Unavailable(statistics.All),
	}
	v.unsub = bus.Subscribe(events.Statistics, func(events.Invalidation) {
		_ = v.Refresh(context.Background())
	})
	return v
}

func (v *StatisticsView) Close() { v.unsub() }

func (v *StatisticsView) Select(ctx context.Context, w statistics.Window) error {
	v.mu.Lock()
	v.window = w
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	return v.fetch(ctx, gen, w)
}

func (v *StatisticsView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	v.gen++
	gen, w := v.gen, v.window
	v.mu.Unlock()

	return v.fetch(ctx, gen, w)
}

func (v *StatisticsView) fetch(ctx context.Context, gen uint64, w statistics.Window) error {
	resp, err := v.api.Statistics(ctx, w)

	v.mu.Lock()
	defer v.mu.Unlock()

	if gen != v.gen {
		return ErrSuperseded
	}

	if err != nil {
		v.display = statistics.Unavailable(w)
		v.notify.Error(statisticsFailure)
		return err
	}

	v.display = statistics.Loaded(w, resp.Data)
	return nil
}

func (v *StatisticsView) Display() statistics.Display {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.display
}
