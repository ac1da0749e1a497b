package testing

import (
	"context"
	"sync"

	"github.com/aristath/fundwatch/internal/clients/eastmoney"
	"github.com/aristath/fundwatch/internal/clients/strategy"
)

// MockEstimator is a mock implementation of eastmoney.Estimator for testing.
// Codes without a configured estimate report absent (nil, nil).
type MockEstimator struct {
	mu        sync.Mutex
	estimates map[string]*eastmoney.RealtimeEstimate
	errors    map[string]error
	calls     map[string]int
}

// NewMockEstimator creates a new mock estimator
func NewMockEstimator() *MockEstimator {
	return &MockEstimator{
		estimates: make(map[string]*eastmoney.RealtimeEstimate),
		errors:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// SetEstimate sets the estimate returned for code (nil = absent)
func (m *MockEstimator) SetEstimate(code string, est *eastmoney.RealtimeEstimate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.estimates[code] = est
}

// SetError makes every fetch for code fail with err
func (m *MockEstimator) SetError(code string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[code] = err
}

// Calls returns how many times code was fetched
func (m *MockEstimator) Calls(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[code]
}

// FetchRealtimeEstimate returns a copy of the configured estimate
func (m *MockEstimator) FetchRealtimeEstimate(ctx context.Context, code string) (*eastmoney.RealtimeEstimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[code]++

	if err := m.errors[code]; err != nil {
		return nil, err
	}
	est := m.estimates[code]
	if est == nil {
		return nil, nil
	}
	cp := *est
	return &cp, nil
}

// HistoryRequest records one FetchHistory call
type HistoryRequest struct {
	Code      string
	StartDate string
	EndDate   string
}

// MockHistoryFetcher is a mock implementation of eastmoney.HistoryFetcher for testing
type MockHistoryFetcher struct {
	mu       sync.Mutex
	results  map[string]*eastmoney.HistoryResult
	err      error
	requests []HistoryRequest
}

// NewMockHistoryFetcher creates a new mock history fetcher
func NewMockHistoryFetcher() *MockHistoryFetcher {
	return &MockHistoryFetcher{
		results: make(map[string]*eastmoney.HistoryResult),
	}
}

// SetResult sets the result returned for code
func (m *MockHistoryFetcher) SetResult(code string, result *eastmoney.HistoryResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[code] = result
}

// SetRecords sets a complete result holding records for code
func (m *MockHistoryFetcher) SetRecords(code string, records []eastmoney.HistoryRecord) {
	m.SetResult(code, &eastmoney.HistoryResult{Records: records, Complete: true, Pages: 1})
}

// SetError makes every fetch fail with err
func (m *MockHistoryFetcher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns the recorded calls
func (m *MockHistoryFetcher) Requests() []HistoryRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]HistoryRequest(nil), m.requests...)
}

// FetchHistory returns the configured result, or an empty complete result
func (m *MockHistoryFetcher) FetchHistory(ctx context.Context, code, startDate, endDate string) (*eastmoney.HistoryResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, HistoryRequest{Code: code, StartDate: startDate, EndDate: endDate})

	if m.err != nil {
		return nil, m.err
	}
	if result, ok := m.results[code]; ok {
		return result, nil
	}
	return &eastmoney.HistoryResult{Complete: true}, nil
}

// SignalRequest records one FetchSignal call
type SignalRequest struct {
	Strategy  string
	Code      string
	IsHolding *bool
}

// MockStrategyFetcher is a mock implementation of strategy.Fetcher for testing.
// Unconfigured (strategy, code) pairs answer with a HOLD signal.
type MockStrategyFetcher struct {
	mu       sync.Mutex
	signals  map[string]*strategy.Signal
	errors   map[string]error
	requests []SignalRequest
}

// NewMockStrategyFetcher creates a new mock strategy fetcher
func NewMockStrategyFetcher() *MockStrategyFetcher {
	return &MockStrategyFetcher{
		signals: make(map[string]*strategy.Signal),
		errors:  make(map[string]error),
	}
}

func signalKey(name, code string) string { return name + "/" + code }

// SetSignal sets the signal returned for (name, code)
func (m *MockStrategyFetcher) SetSignal(name, code string, signal *strategy.Signal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[signalKey(name, code)] = signal
}

// SetError makes (name, code) fail with err
func (m *MockStrategyFetcher) SetError(name, code string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[signalKey(name, code)] = err
}

// Requests returns the recorded calls
func (m *MockStrategyFetcher) Requests() []SignalRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SignalRequest(nil), m.requests...)
}

// FetchSignal returns the configured signal
func (m *MockStrategyFetcher) FetchSignal(ctx context.Context, name, code string, isHolding *bool) (*strategy.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var holding *bool
	if isHolding != nil {
		v := *isHolding
		holding = &v
	}
	m.requests = append(m.requests, SignalRequest{Strategy: name, Code: code, IsHolding: holding})

	key := signalKey(name, code)
	if err := m.errors[key]; err != nil {
		return nil, err
	}
	if signal := m.signals[key]; signal != nil {
		cp := *signal
		return &cp, nil
	}
	return &strategy.Signal{
		FundCode:     code,
		StrategyName: name,
		Signal:       "HOLD",
		Reason:       "mock",
		LatestDate:   "2024-01-05",
	}, nil
}
