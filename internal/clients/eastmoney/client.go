// Package eastmoney fetches realtime estimates and confirmed NAV history for mutual funds
// from the eastmoney public endpoints.
package eastmoney

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

	"github.com/aristath/fundwatch/internal/clientdata"
	"github.com/aristath/fundwatch/internal/domain"
	"github.com/aristath/fundwatch/internal/money"
	"github.com/rs/zerolog"
)

const (
	DefaultRealtimeBaseURL = "http://fundgz.1234567.com.cn"
	DefaultHistoryBaseURL  = "http://api.fund.eastmoney.com"
	DefaultTimeout         = 10 * time.Second

	realtimeReferer = "http://fund.eastmoney.com/"
	historyReferer  = "http://fundf10.eastmoney.com/jjjz_%s.html"
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

	// maxBodyBytes caps how much of a response is read
	maxBodyBytes = 4 << 20
)

// estimate timestamps are Beijing wall-clock time
var chinaTZ = time.FixedZone("CST", 8*60*60)

// Config holds client settings. Zero values fall back to defaults.
type Config struct {
	RealtimeBaseURL string
	HistoryBaseURL  string
	Timeout         time.Duration
	Policy          PagePolicy
	EstimateTTL     time.Duration
}

// Client talks to the realtime estimate and NAV history endpoints.
type Client struct {
	realtimeBaseURL string
	historyBaseURL  string
	client          *http.Client
	policy          PagePolicy
	estimateTTL     time.Duration
	cacheRepo       *clientdata.Repository
	log             zerolog.Logger
}

// NewClient creates a new eastmoney client.
// cacheRepo is optional - if nil, estimate caching is disabled.
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if cfg.RealtimeBaseURL == "" {
		cfg.RealtimeBaseURL = DefaultRealtimeBaseURL
	}
	if cfg.HistoryBaseURL == "" {
		cfg.HistoryBaseURL = DefaultHistoryBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.EstimateTTL <= 0 {
		cfg.EstimateTTL = clientdata.TTLFundEstimate
	}

	return &Client{
		realtimeBaseURL: strings.TrimRight(cfg.RealtimeBaseURL, "/"),
		historyBaseURL:  strings.TrimRight(cfg.HistoryBaseURL, "/"),
		client:          &http.Client{Timeout: cfg.Timeout},
		policy:          cfg.Policy.normalize(),
		estimateTTL:     cfg.EstimateTTL,
		cacheRepo:       cacheRepo,
		log:             log.With().Str("client", "eastmoney").Logger(),
	}
}

// Policy returns the effective paging policy.
func (c *Client) Policy() PagePolicy {
	return c.policy
}

// FetchRealtimeEstimate returns the current estimate for code.
// Only a cache entry within its TTL is served; expired entries are never
// returned. A failed request is logged and reported as absent (nil, nil).
// An empty jsonpgz() answer means nothing is published for the fund today
// and yields NoEstimate(code). The only error returned is ctx's.
func (c *Client) FetchRealtimeEstimate(ctx context.Context, code string) (*RealtimeEstimate, error) {
	if c.cacheRepo != nil {
		var cached realtimePayload
		found, err := c.cacheRepo.GetIfFresh(clientdata.TableFundEstimates, code, &cached)
		if err != nil {
			c.log.Warn().Err(err).Str("code", code).Msg("Failed to read estimate cache")
		} else if found {
			if est, err := cached.toEstimate(code); err == nil {
				c.log.Debug().Str("code", code).Msg("Cache hit")
				return est, nil
			}
		}
	}

	payload, err := c.fetchRealtime(ctx, code)
	if err == nil {
		var est *RealtimeEstimate
		if est, err = payload.toEstimate(code); err == nil {
			if c.cacheRepo != nil {
				if err := c.cacheRepo.Store(clientdata.TableFundEstimates, code, payload, c.estimateTTL); err != nil {
					c.log.Warn().Err(err).Str("code", code).Msg("Failed to cache estimate")
				}
			}
			return est, nil
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	if errors.Is(err, ErrEmptyJSONP) {
		c.log.Debug().Str("code", code).Msg("No realtime estimate published")
		return NoEstimate(code), nil
	}

	c.log.Warn().Err(err).Str("code", code).Msg("Realtime estimate unavailable")
	return nil, nil
}

func (c *Client) fetchRealtime(ctx context.Context, code string) (*realtimePayload, error) {
	endpoint := fmt.Sprintf("%s/js/%s.js", c.realtimeBaseURL, url.PathEscape(code))

	body, err := c.get(ctx, endpoint, realtimeReferer)
	if err != nil {
		return nil, err
	}

	raw, err := ParseJSONP(body, RealtimeCallback)
	if err != nil {
		return nil, err
	}

	var payload realtimePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSONP, err)
	}
	return &payload, nil
}

// toEstimate validates the payload. Code and confirmed NAV are required;
// a missing, unparsable or non-positive estimate NAV leaves the overlay empty.
func (p *realtimePayload) toEstimate(code string) (*RealtimeEstimate, error) {
	if strings.TrimSpace(p.FundCode) == "" {
		return nil, fmt.Errorf("%w: missing fundcode", ErrMalformedJSONP)
	}
	if p.FundCode != code {
		return nil, fmt.Errorf("%w: fundcode %q does not match %q", ErrMalformedJSONP, p.FundCode, code)
	}

	confirmed, err := money.Parse(p.ConfirmedNav)
	if err != nil {
		return nil, fmt.Errorf("%w: dwjz: %v", ErrMalformedJSONP, err)
	}

	est := &RealtimeEstimate{
		Code:         p.FundCode,
		Name:         p.Name,
		NavDate:      p.NavDate,
		ConfirmedNav: confirmed,
	}

	nav, err := money.ParseOptional(p.EstimateNav)
	if err != nil || nav == nil || !nav.IsPositive() {
		return est, nil
	}
	est.EstimateNav = nav

	if pct, err := money.ParseOptional(p.EstimatePercent); err == nil {
		est.EstimatePercent = pct
	}
	if ts, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(p.EstimateTime), chinaTZ); err == nil {
		est.EstimateTime = &ts
	}

	return est, nil
}

// FetchHistory pages through confirmed NAVs for code between startDate and
// endDate (YYYY-MM-DD, empty = unbounded). Paging stops on an empty page or
// once the upstream total is reached. A failed page ends the loop and the
// pages already fetched are returned with Complete=false.
func (c *Client) FetchHistory(ctx context.Context, code, startDate, endDate string) (*HistoryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &HistoryResult{}
	for pageIndex := 1; ; pageIndex++ {
		if pageIndex > c.policy.MaxPages {
			result.Err = domain.NewError(domain.KindUpstreamPartialFailure, code,
				fmt.Sprintf("stopped after %d pages", c.policy.MaxPages))
			break
		}
		if pageIndex > 1 {
			if err := c.policy.Wait(ctx); err != nil {
				result.Err = domain.WrapError(domain.KindUpstreamPartialFailure, code, "history paging interrupted", err)
				break
			}
		}

		var page *historyPage
		err := c.policy.Retry(ctx, func() error {
			p, err := c.fetchHistoryPage(ctx, code, pageIndex, startDate, endDate)
			if err != nil {
				c.log.Debug().Err(err).Str("code", code).Int("page", pageIndex).Msg("History page request failed")
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			c.log.Warn().
				Err(err).
				Str("code", code).
				Int("page", pageIndex).
				Int("fetched", len(result.Records)).
				Msg("History paging stopped early")
			result.Err = domain.WrapError(domain.KindUpstreamPartialFailure, code,
				fmt.Sprintf("page %d failed", pageIndex), err)
			break
		}

		result.Pages++
		if len(page.records) == 0 {
			result.Complete = true
			break
		}

		result.Records = append(result.Records, page.records...)
		if len(result.Records) >= page.totalCount {
			result.Complete = true
			break
		}
	}

	c.log.Debug().
		Str("code", code).
		Int("records", len(result.Records)).
		Int("pages", result.Pages).
		Bool("complete", result.Complete).
		Msg("Fetched NAV history")

	return result, nil
}

func (c *Client) fetchHistoryPage(ctx context.Context, code string, pageIndex int, startDate, endDate string) (*historyPage, error) {
	params := url.Values{}
	params.Set("fundCode", code)
	params.Set("pageIndex", strconv.Itoa(pageIndex))
	params.Set("pageSize", strconv.Itoa(c.policy.PageSize))
	params.Set("startDate", startDate)
	params.Set("endDate", endDate)
	params.Set("_", strconv.FormatInt(time.Now().UnixMilli(), 10))

	endpoint := c.historyBaseURL + "/f10/lsjz?" + params.Encode()

	body, err := c.get(ctx, endpoint, fmt.Sprintf(historyReferer, code))
	if err != nil {
		return nil, err
	}

	var resp historyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, permanent(fmt.Errorf("failed to parse history response: %w", err))
	}
	if resp.ErrCode != 0 {
		return nil, fmt.Errorf("upstream error %d: %s", resp.ErrCode, resp.ErrMsg)
	}

	page := &historyPage{totalCount: resp.TotalCount}
	if resp.Data == nil {
		return page, nil
	}

	page.records = make([]HistoryRecord, 0, len(resp.Data.Rows))
	for _, row := range resp.Data.Rows {
		page.records = append(page.records, HistoryRecord{
			Date:          strings.TrimSpace(row.Date),
			Nav:           strings.TrimSpace(row.Nav),
			GrowthPercent: strings.TrimSpace(row.GrowthPercent),
		})
	}
	return page, nil
}

// get performs a GET with the headers the upstream requires.
// 4xx responses are marked permanent so the retry policy gives up at once.
func (c *Client) get(ctx context.Context, endpoint, referer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("upstream returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, permanent(err)
		}
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
