package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Filter selects which side of an address's history a listing returns.
type Filter int

const (
	FilterAll      Filter = 0
	FilterIncoming Filter = 1
	FilterOutgoing Filter = 2
)

// FilterScopeTransactions is the filter scope used by the transaction view.
const FilterScopeTransactions = "transactions"

// String returns the short textual form used by the API.
func (f Filter) String() string {
	switch f {
	case FilterIncoming:
		return "in"
	case FilterOutgoing:
		return "out"
	case FilterAll:
		return "all"
	default:
		return strconv.Itoa(int(f))
	}
}

// ParseFilter accepts either the textual or the numeric form.
func ParseFilter(raw string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all", "0":
		return FilterAll, nil
	case "in", "incoming", "1":
		return FilterIncoming, nil
	case "out", "outgoing", "2":
		return FilterOutgoing, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q", raw)
	}
}

// MarshalJSON emits the textual form.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts numbers and strings.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64:
		parsed, err := ParseFilter(strconv.Itoa(int(v)))
		if err != nil {
			return err
		}
		*f = parsed
	case string:
		parsed, err := ParseFilter(v)
		if err != nil {
			return err
		}
		*f = parsed
	case nil:
		*f = FilterAll
	default:
		return fmt.Errorf("unsupported filter value %v", raw)
	}
	return nil
}
