package suburbs

import (
	"context"
	"strconv"
	"strings"
)

const (
	msgInvalidPostcode = "invalid postcode format"
	msgNotFound        = "postcode not found"
	msgSuburbNotFound  = "suburb not found"
	msgUnavailable     = "suburb data unavailable"

	defaultSearchLimit = 10
)

// Info describes the suburb a resolution matched.
type Info struct {
	Suburb   string  `json:"suburb"`
	Postcode int     `json:"postcode"`
	Income   float64 `json:"income"`
	State    string  `json:"state"`
}

// Resolution is the outcome of a multiplier lookup. Multiplier is always
// usable: 1.0 whenever Found is false.
type Resolution struct {
	Multiplier float64 `json:"multiplier"`
	Found      bool    `json:"found"`
	Message    string  `json:"message,omitempty"`
	Info       *Info   `json:"info,omitempty"`
}

// Resolver maps a postcode to a multiplier. Implementations never fail; an
// unusable postcode resolves to 1.0 with Found=false.
type Resolver interface {
	ResolveMultiplier(ctx context.Context, postcode string) Resolution
}

// MultiplierForIncome applies the median-income brackets.
func MultiplierForIncome(income float64) float64 {
	switch {
	case income > 80000:
		return 1.25
	case income > 60000:
		return 1.15
	case income > 40000:
		return 1.05
	default:
		return 1.0
	}
}

// Lookup answers postcode and suburb queries against a Dataset.
type Lookup struct {
	data *Dataset
}

func NewLookup(data *Dataset) *Lookup {
	if data == nil {
		data = Empty()
	}
	return &Lookup{data: data}
}

// ResolveMultiplier matches postcode exactly after reading its leading digits,
// so "2000" and " 2000 NSW" both resolve.
func (l *Lookup) ResolveMultiplier(_ context.Context, postcode string) Resolution {
	code, ok := parsePostcode(postcode)
	if !ok {
		return notFound(msgInvalidPostcode)
	}
	if !l.data.Loaded() {
		return notFound(msgUnavailable)
	}
	s, ok := l.data.postcode(code)
	if !ok {
		return notFound(msgNotFound)
	}
	return found(s)
}

// BySuburb resolves a suburb by case-insensitive name.
func (l *Lookup) BySuburb(name string) Resolution {
	if !l.data.Loaded() {
		return notFound(msgUnavailable)
	}
	s, ok := l.data.name(name)
	if !ok {
		return notFound(msgSuburbNotFound)
	}
	return found(s)
}

// Search returns suburbs whose name contains query, in dataset order.
func (l *Lookup) Search(query string, limit int) []Suburb {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Suburb, 0, limit)
	if q == "" {
		return out
	}
	for _, s := range l.data.suburbs {
		if strings.Contains(strings.ToLower(s.Name), q) {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func found(s Suburb) Resolution {
	return Resolution{
		Multiplier: MultiplierForIncome(s.MedianIncome),
		Found:      true,
		Info: &Info{
			Suburb:   s.Name,
			Postcode: s.Postcode,
			Income:   s.MedianIncome,
			State:    s.State,
		},
	}
}

func notFound(msg string) Resolution {
	return Resolution{Multiplier: 1.0, Message: msg}
}

func parsePostcode(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	code, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return code, true
}
