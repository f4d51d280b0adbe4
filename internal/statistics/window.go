// Package statistics defines the time windows the dashboard totals are
// computed over and how an unavailable result is presented.
package statistics

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sellbook/sellbook/internal/domain"
)

type Window string

const (
	All         Window = "all"
	Last7Days   Window = "last-7-days"
	ThisWeek    Window = "this-week"
	LastMonth   Window = "last-month"
	Last6Months Window = "last-6-months"
	LastYear    Window = "last-year"
)

// Param is the query parameter carrying the window token.
const Param = "timeFilter"

var Windows = []Window{All, Last7Days, ThisWeek, LastMonth, Last6Months, LastYear}

var labels = map[Window]string{
	All:         "All Time",
	Last7Days:   "Last 7 Days",
	ThisWeek:    "This Week",
	LastMonth:   "Last Month",
	Last6Months: "Last 6 Months",
	LastYear:    "Last Year",
}

// ParseWindow reads a window token. An empty token is All.
func ParseWindow(s string) (Window, error) {
	if s == "" {
		return All, nil
	}
	w := Window(s)
	if _, ok := labels[w]; !ok {
		return "", fmt.Errorf("unknown time window %q", s)
	}
	return w, nil
}

func (w Window) Label() string {
	if l, ok := labels[w]; ok {
		return l
	}
	return string(w)
}

// Params returns the query for w. All sends no parameter.
func (w Window) Params() url.Values {
	v := url.Values{}
	if w != All && w != "" {
		v.Set(Param, string(w))
	}
	return v
}

// Since returns the lower bound of w relative to now. Windows are
// rolling, except ThisWeek which starts on Monday at midnight in now's
// location. All has no bound.
func (w Window) Since(now time.Time) (time.Time, bool) {
	switch w {
	case Last7Days:
		return now.AddDate(0, 0, -7), true
	case ThisWeek:
		offset := (int(now.Weekday()) + 6) % 7
		y, m, d := now.AddDate(0, 0, -offset).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case LastMonth:
		return now.AddDate(0, -1, 0), true
	case Last6Months:
		return now.AddDate(0, -6, 0), true
	case LastYear:
		return now.AddDate(-1, 0, 0), true
	}
	return time.Time{}, false
}

// Display is what the dashboard shows for a window. A failed fetch is
// unavailable, which is not the same as all-zero totals.
type Display struct {
	Window    Window
	Available bool
	Stats     domain.Statistics
}

func Loaded(w Window, s domain.Statistics) Display {
	return Display{Window: w, Available: true, Stats: s}
}

func Unavailable(w Window) Display {
	return Display{Window: w}
}

type Row struct {
	Label string
	Value string
}

const unavailableText = "unavailable"

// Rows renders the four totals. Every value reads "unavailable" when the
// totals could not be loaded.
func (d Display) Rows() []Row {
	if !d.Available {
		return []Row{
			{"Total Profit (AED)", unavailableText},
			{"Total Sold", unavailableText},
			{"Total Revenue (AED)", unavailableText},
			{"Total Due (AED)", unavailableText},
		}
	}
	return []Row{
		{"Total Profit (AED)", d.Stats.TotalProfitAED.StringFixed(2)},
		{"Total Sold", fmt.Sprintf("%d", d.Stats.TotalSelling)},
		{"Total Revenue (AED)", d.Stats.TotalRevenue.StringFixed(2)},
		{"Total Due (AED)", d.Stats.TotalDue.StringFixed(2)},
	}
}
