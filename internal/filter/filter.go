// Package filter turns the ticket list filter state into the ordered query
// parameters the API expects, and reads them back on the server side.
package filter

import (
	"net/url"
	"strconv"
	"strings"
)

type Key string

const (
	KeyDateFrom      Key = "dateFrom"
	KeyDateTo        Key = "dateTo"
	KeyPNR           Key = "pnr"
	KeyAirline       Key = "airline"
	KeyTrip          Key = "trip"
	KeyDeparture     Key = "departure"
	KeyArrival       Key = "arrival"
	KeyPriceSort     Key = "priceSort"
	KeyDueFilter     Key = "dueFilter"
	KeyPaymentMethod Key = "paymentMethod"
	KeyBankName      Key = "bankName"
	KeyBankReference Key = "bankReference"
	KeyPassengerName Key = "passengerName"
	KeyPhoneNumber   Key = "phoneNumber"
	KeyPortalName    Key = "portalName"
	KeySearchTerm    Key = "searchTerm"
)

// Sentinel and enumerated filter values.
const (
	All       = "all"
	None      = "none"
	LowToHigh = "low-to-high"
	HighToLow = "high-to-low"
	DueOnly   = "due-only"
	NoDue     = "no-due"
)

const (
	ParamPage  = "page"
	ParamLimit = "limit"
	ParamSort  = "sort"

	DefaultLimit = 10
)

// State is the filter panel's current selection. Missing keys read as
// their unset value.
type State map[Key]string

// Default returns the state with every filter unset.
func Default() State {
	return State{
		KeyDateFrom:      "",
		KeyDateTo:        "",
		KeyPNR:           "",
		KeyAirline:       "",
		KeyTrip:          All,
		KeyDeparture:     "",
		KeyArrival:       "",
		KeyPriceSort:     None,
		KeyDueFilter:     All,
		KeyPaymentMethod: All,
		KeyBankName:      "",
		KeyBankReference: "",
		KeyPassengerName: "",
		KeyPhoneNumber:   "",
		KeyPortalName:    "",
		KeySearchTerm:    "",
	}
}

func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// With returns a copy of s with k set to v.
func (s State) With(k Key, v string) State {
	out := s.Clone()
	out[k] = v
	return out
}

type Param struct {
	Name  string
	Value string
}

// Params is an ordered parameter list.
type Params []Param

func (p Params) Get(name string) (string, bool) {
	for _, x := range p {
		if x.Name == name {
			return x.Value, true
		}
	}
	return "", false
}

func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, x := range p {
		v.Add(x.Name, x.Value)
	}
	return v
}

// Encode renders the parameters as a query string in list order.
func (p Params) Encode() string {
	var b strings.Builder
	for i, x := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(x.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(x.Value))
	}
	return b.String()
}

// WithPage returns a copy with only the page entry replaced.
func (p Params) WithPage(n int) Params {
	out := make(Params, 0, len(p)+1)
	replaced := false
	for _, x := range p {
		if x.Name == ParamPage {
			x.Value = strconv.Itoa(n)
			replaced = true
		}
		out = append(out, x)
	}
	if !replaced {
		out = append(Params{{Name: ParamPage, Value: strconv.Itoa(n)}}, out...)
	}
	return out
}

type rule struct {
	key   Key
	param string
	// emit maps the raw filter value to a parameter value; false omits it.
	emit func(string) (string, bool)
}

var rules = []rule{
	{KeyDateFrom, "startDate", text},
	{KeyDateTo, "endDate", text},
	{KeyPNR, "pnr", text},
	{KeyAirline, "airline", text},
	{KeyTrip, "trip", choice},
	{KeyDeparture, "departure", text},
	{KeyArrival, "arrival", text},
	{KeyPriceSort, ParamSort, priceSort},
	{KeyDueFilter, "dueStatus", dueFilter},
	{KeyPaymentMethod, "paymentMethod", choice},
	{KeyBankName, "bankName", text},
	{KeyBankReference, "bankReference", text},
	{KeyPassengerName, "passengerName", text},
	{KeyPhoneNumber, "phoneNumber", text},
	{KeyPortalName, "portalName", text},
	{KeySearchTerm, "searchTerm", text},
}

func text(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != ""
}

func choice(v string) (string, bool) {
	v = strings.TrimSpace(v)
	return v, v != "" && v != All
}

func priceSort(v string) (string, bool) {
	switch v {
	case LowToHigh:
		return "sellingPriceAED", true
	case HighToLow:
		return "-sellingPriceAED", true
	}
	return "", false
}

func dueFilter(v string) (string, bool) {
	switch v {
	case DueOnly:
		return "true", true
	case NoDue:
		return "false", true
	}
	return "", false
}

// Translate maps s to query parameters: page=1 and limit=10 first, then
// every active filter in fixed rule order. Unset filters are omitted.
func Translate(s State) Params {
	out := Params{
		{Name: ParamPage, Value: "1"},
		{Name: ParamLimit, Value: strconv.Itoa(DefaultLimit)},
	}

	for _, r := range rules {
		if v, ok := r.emit(s[r.key]); ok {
			out = append(out, Param{Name: r.param, Value: v})
		}
	}

	return out
}

// Active counts the filters in s that produce a parameter.
func Active(s State) int {
	n := 0
	for _, r := range rules {
		if _, ok := r.emit(s[r.key]); ok {
			n++
		}
	}
	return n
}
