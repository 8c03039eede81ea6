// Package tradier fetches daily, weekly or monthly close history from the Tradier brokerage API.
package tradier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bcdannyboy/gbmc/models"
	"github.com/xhhuango/json"
)

const (
	DefaultBaseURL = "https://api.tradier.com"
	dateLayout     = "2006-01-02"
)

// Client implements analysis.MarketData over the Tradier REST API.
type Client struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
	// Now is the clock used to resolve periods. Defaults to time.Now.
	Now func() time.Time
}

func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch returns the closes of ticker over period (5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, max)
// sampled at interval (daily, weekly, monthly, or 1d, 1wk, 1mo), oldest first.
func (c *Client) Fetch(ctx context.Context, ticker, period, interval string) ([]models.PricePoint, error) {
	if strings.TrimSpace(ticker) == "" {
		return nil, fmt.Errorf("%w: empty ticker", models.ErrInvalidParameter)
	}
	iv, err := ParseInterval(interval)
	if err != nil {
		return nil, err
	}
	end := c.now()
	start, err := PeriodStart(period, end)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("symbol", strings.ToUpper(ticker))
	q.Set("interval", iv)
	if !start.IsZero() {
		q.Set("start", start.Format(dateLayout))
	}
	q.Set("end", end.Format(dateLayout))
	q.Set("session_filter", "all")

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	apiURL := strings.TrimRight(base, "/") + "/v1/markets/history?" + q.Encode()

	r, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	r.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	r.Header.Add("Accept", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("requesting %s history: %w", ticker, err)
	}
	defer resp.Body.Close()

	responseData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response data: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tradier history for %s: status %d: %s", ticker, resp.StatusCode, strings.TrimSpace(string(responseData)))
	}

	quoteHistory := &QuoteHistory{}
	if err := json.Unmarshal(responseData, quoteHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	if quoteHistory.History == nil || len(quoteHistory.History.Day) == 0 {
		return nil, fmt.Errorf("%w: no history for %s over %s", models.ErrEmptyInput, ticker, period)
	}

	points := make([]models.PricePoint, 0, len(quoteHistory.History.Day))
	for _, d := range quoteHistory.History.Day {
		t, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history date %q: %w", d.Date, err)
		}
		points = append(points, models.PricePoint{Time: t, Close: d.Close})
	}
	return points, nil
}

// ParseInterval maps an interval name or alias to Tradier's interval parameter.
func ParseInterval(s string) (string, error) {
	switch strings.ToLower(s) {
	case "daily", "1d", "":
		return "daily", nil
	case "weekly", "1wk":
		return "weekly", nil
	case "monthly", "1mo":
		return "monthly", nil
	}
	return "", fmt.Errorf("%w: unknown interval %q", models.ErrInvalidParameter, s)
}

// PeriodStart returns the first date covered by period ending at end. "max" returns the zero
// time, meaning no lower bound.
func PeriodStart(period string, end time.Time) (time.Time, error) {
	switch strings.ToLower(period) {
	case "5d":
		return end.AddDate(0, 0, -5), nil
	case "1mo":
		return end.AddDate(0, -1, 0), nil
	case "3mo":
		return end.AddDate(0, -3, 0), nil
	case "6mo":
		return end.AddDate(0, -6, 0), nil
	case "1y", "":
		return end.AddDate(-1, 0, 0), nil
	case "2y":
		return end.AddDate(-2, 0, 0), nil
	case "5y":
		return end.AddDate(-5, 0, 0), nil
	case "10y":
		return end.AddDate(-10, 0, 0), nil
	case "max":
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: unknown period %q", models.ErrInvalidParameter, period)
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
