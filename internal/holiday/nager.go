package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultNagerURL = "https://date.nager.at"

// NagerProvider fetches public holidays from a Nager.Date compatible API
// (GET /api/v3/PublicHolidays/{year}/{countryCode}).
type NagerProvider struct {
	baseURL string
	client  *http.Client
}

// NagerOption configures a NagerProvider.
type NagerOption func(*NagerProvider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) NagerOption {
	return func(p *NagerProvider) {
		p.client = client
	}
}

// NewNagerProvider creates a new holiday API client.
func NewNagerProvider(baseURL string, opts ...NagerOption) *NagerProvider {
	if baseURL == "" {
		baseURL = defaultNagerURL
	}
	p := &NagerProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type nagerHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

func (p *NagerProvider) Holidays(ctx context.Context, country string, start, end time.Time) ([]Holiday, error) {
	var all []Holiday
	for year := start.Year(); year <= end.Year(); year++ {
		hs, err := p.year(ctx, country, year)
		if err != nil {
			return nil, err
		}
		all = append(all, hs...)
	}
	return filter(all, start, end), nil
}

// year fetches every holiday of one calendar year.
func (p *NagerProvider) year(ctx context.Context, country string, year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", p.baseURL, year, strings.ToUpper(country))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// The API answers 204 for unsupported countries.
	if resp.StatusCode == http.StatusNoContent {
		slog.Debug("no holiday data for country", "country", country, "year", year)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday api error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw []nagerHoliday
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	out := make([]Holiday, 0, len(raw))
	for _, h := range raw {
		d, err := time.Parse(DateLayout, h.Date)
		if err != nil {
			slog.Warn("skipping holiday with bad date", "date", h.Date, "name", h.Name)
			continue
		}
		out = append(out, Holiday{Date: d, Name: h.Name, LocalName: h.LocalName})
	}
	return out, nil
}
