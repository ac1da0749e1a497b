// Package strategy is the client for the external strategy signal service.
package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Strategy names understood by the signal service
const (
	RSI            = "rsi"
	BollingerBands = "bollinger_bands"
	MACross        = "ma_cross"
	MACD           = "macd"
)

// DefaultTimeout for signal requests
const DefaultTimeout = 30 * time.Second

// ErrNotConfigured is returned when no service URL is set
var ErrNotConfigured = errors.New("strategy service URL is not configured")

// All lists the strategies run for every fund, in run order
var All = []string{RSI, BollingerBands, MACross, MACD}

// NeedsHoldingStatus reports whether a strategy takes the is_holding parameter
func NeedsHoldingStatus(name string) bool {
	switch name {
	case BollingerBands, MACross, MACD:
		return true
	}
	return false
}

// Signal is one strategy verdict for a fund
type Signal struct {
	FundCode     string           `json:"fund_code"`
	StrategyName string           `json:"strategy_name"`
	Signal       string           `json:"signal"`
	Reason       string           `json:"reason"`
	LatestDate   string           `json:"latest_date"`
	LatestClose  *decimal.Decimal `json:"latest_close"`
	Metrics      json.RawMessage  `json:"metrics"`
}

// Fetcher computes a strategy signal for a fund. isHolding is sent only when
// non-nil.
type Fetcher interface {
	FetchSignal(ctx context.Context, name, code string, isHolding *bool) (*Signal, error)
}

// Client calls GET {base}/strategies/{name}/{code}
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new strategy service client. An empty baseURL yields a
// client whose every call fails with ErrNotConfigured.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "strategy").Logger(),
	}
}

// Configured reports whether a service URL is set
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// FetchSignal requests one strategy verdict
func (c *Client) FetchSignal(ctx context.Context, name, code string, isHolding *bool) (*Signal, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	endpoint := fmt.Sprintf("%s/strategies/%s/%s", c.baseURL, url.PathEscape(name), url.PathEscape(code))
	if isHolding != nil {
		endpoint += "?" + url.Values{"is_holding": {strconv.FormatBool(*isHolding)}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("strategy", name).Str("code", code).Msg("Requesting strategy signal")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strategy request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strategy %s for %s returned status %d: %s", name, code, resp.StatusCode, errorDetail(body))
	}

	var signal Signal
	if err := json.Unmarshal(body, &signal); err != nil {
		return nil, fmt.Errorf("failed to parse strategy response: %w", err)
	}
	if signal.Signal == "" {
		return nil, fmt.Errorf("strategy %s for %s returned no signal", name, code)
	}
	if signal.FundCode == "" {
		signal.FundCode = code
	}
	if signal.StrategyName == "" {
		signal.StrategyName = name
	}

	return &signal, nil
}

// errorDetail extracts {"detail": "..."} from an error body, falling back to
// the raw text
func errorDetail(body []byte) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		if b, err := json.Marshal(payload.Detail); err == nil {
			return string(b)
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
