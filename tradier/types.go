package tradier

import (
	"bytes"

	"github.com/xhhuango/json"
)

// QuoteHistory is the /v1/markets/history response body.
type QuoteHistory struct {
	History *History `json:"history"`
}

// History holds the bars of a history response. Tradier sends "day" as an object instead of
// an array when a single bar matches, and "history": "null" when none do.
type History struct {
	Day []Day `json:"day"`
}

type Day struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (h *History) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte(`"null"`)) {
		return nil
	}
	var raw struct {
		Day json.RawMessage `json:"day"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	body := bytes.TrimSpace(raw.Day)
	switch {
	case len(body) == 0 || bytes.Equal(body, []byte("null")):
		h.Day = nil
	case body[0] == '{':
		var d Day
		if err := json.Unmarshal(body, &d); err != nil {
			return err
		}
		h.Day = []Day{d}
	default:
		return json.Unmarshal(body, &h.Day)
	}
	return nil
}
