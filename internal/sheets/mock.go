package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/runway/internal/rollup"
	"github.com/Veraticus/runway/internal/variance"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, title string) error
	Budgets        []*rollup.Report
	Variances      []*variance.Report
	WriteCalls     []WriteCall
	WriteCallCount int
	mu             sync.Mutex
}

// WriteCall represents a single export call.
type WriteCall struct {
	Error error
	Title string
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		WriteCalls: make([]WriteCall, 0),
	}
}

// WriteBudget implements the ReportWriter interface.
func (m *MockWriter) WriteBudget(ctx context.Context, report *rollup.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Budgets = append(m.Budgets, report)
	return m.record(ctx, BudgetSheetTitle(report.DatasetID))
}

// WriteVariance implements the ReportWriter interface.
func (m *MockWriter) WriteVariance(ctx context.Context, report *variance.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Variances = append(m.Variances, report)
	return m.record(ctx, VarianceSheetTitle(report.DatasetA, report.DatasetB))
}

func (m *MockWriter) record(ctx context.Context, title string) error {
	m.WriteCallCount++

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, title)
	}

	m.WriteCalls = append(m.WriteCalls, WriteCall{Title: title, Error: err})
	return err
}

// Reset clears all recorded calls.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount = 0
	m.WriteCalls = make([]WriteCall, 0)
	m.Budgets = nil
	m.Variances = nil
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// AssertWriteCalled verifies the number of export calls.
func (m *MockWriter) AssertWriteCalled(t interface{ Fatalf(string, ...any) }, expectedCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.WriteCallCount != expectedCalls {
		t.Fatalf("expected export to be called %d times, but was called %d times", expectedCalls, m.WriteCallCount)
	}
}

// SetWriteError configures the mock to fail every export with err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(_ context.Context, _ string) error {
		return err
	}
}
