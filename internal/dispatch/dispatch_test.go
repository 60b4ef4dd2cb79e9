package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/subtran/internal/document"
	"github.com/valpere/subtran/internal/segment"
	"github.com/valpere/subtran/internal/translator"
)

type mockService struct {
	nameVal       string
	translateFunc func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error)
	callCount     atomic.Int32
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
}

func (m *mockService) Name() string {
	if m.nameVal == "" {
		return "mock"
	}
	return m.nameVal
}

func (m *mockService) TranslateBatch(ctx context.Context, cfg translator.ServiceConfig, req translator.BatchRequest) (*translator.BatchResult, error) {
	m.callCount.Add(1)
	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		max := m.maxInFlight.Load()
		if cur <= max || m.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	if m.translateFunc != nil {
		return m.translateFunc(ctx, req)
	}
	return upperBatch(req), nil
}

func (m *mockService) IsAvailable(ctx context.Context) error { return nil }

func (m *mockService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return []string{"en", "es", "uk"}, nil
}

// upperBatch is the default mock behavior: uppercase every text.
func upperBatch(req translator.BatchRequest) *translator.BatchResult {
	res := &translator.BatchResult{ServiceName: "mock", Translations: make([]string, len(req.Texts))}
	for i, t := range req.Texts {
		res.Translations[i] = strings.ToUpper(t)
	}
	return res
}

func noSleep(d *Dispatcher) {
	d.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
}

func makeSegments(n int) []segment.Segment {
	segs := make([]segment.Segment, n)
	for i := range segs {
		segs[i] = segment.Segment{Token: document.PositionToken(i), SourceText: fmt.Sprintf("text %d", i)}
	}
	return segs
}

func TestDispatcher_OneResultPerSegment(t *testing.T) {
	svc := &mockService{}
	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 3})
	noSleep(d)

	segs := makeSegments(10)
	results := d.Run(context.Background(), segs, "en", "es")

	if len(results) != len(segs) {
		t.Fatalf("expected %d results, got %d", len(segs), len(results))
	}
	for _, s := range segs {
		r, ok := results[s.Token]
		if !ok {
			t.Fatalf("missing result for token %d", s.Token)
		}
		if r.Failed() {
			t.Errorf("segment %d unexpectedly failed: %s", s.Token, r.Err)
		}
		if r.Text != strings.ToUpper(s.SourceText) {
			t.Errorf("segment %d: want %q, got %q", s.Token, strings.ToUpper(s.SourceText), r.Text)
		}
	}
}

func TestDispatcher_BatchSizeRespected(t *testing.T) {
	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			if len(req.Texts) > 4 {
				return nil, fmt.Errorf("batch too large: %d", len(req.Texts))
			}
			return upperBatch(req), nil
		},
	}
	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 4, MaxAttempts: 1})
	noSleep(d)

	results := d.Run(context.Background(), makeSegments(11), "en", "es")
	for token, r := range results {
		if r.Failed() {
			t.Errorf("segment %d failed: %s", token, r.Err)
		}
	}
}

func TestDispatcher_FailureIsolation(t *testing.T) {
	// Batches of one; the batch carrying "text 3" always fails.
	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			for _, text := range req.Texts {
				if text == "text 3" {
					return nil, errors.New("backend rejected this one")
				}
			}
			return upperBatch(req), nil
		},
	}
	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 1, MaxAttempts: 2})
	noSleep(d)

	segs := makeSegments(8)
	results := d.Run(context.Background(), segs, "en", "es")

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
			if r.Token != 3 {
				t.Errorf("wrong segment failed: %d", r.Token)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly 1 failure, got %d", failed)
	}
	if len(results) != len(segs) {
		t.Errorf("expected %d results, got %d", len(segs), len(results))
	}
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			if attempts.Add(1) < 3 {
				return nil, errors.New("transient")
			}
			return upperBatch(req), nil
		},
	}
	d := New(svc, translator.ServiceConfig{}, Config{MaxAttempts: 3})
	noSleep(d)

	results := d.Run(context.Background(), makeSegments(2), "en", "es")
	for _, r := range results {
		if r.Failed() {
			t.Errorf("expected success on third attempt, got failure: %s", r.Err)
		}
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestDispatcher_BackoffDoubles(t *testing.T) {
	var delays []time.Duration
	var mu sync.Mutex

	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			return nil, errors.New("always down")
		},
	}
	d := New(svc, translator.ServiceConfig{}, Config{MaxAttempts: 4, RetryDelay: 100 * time.Millisecond})
	d.sleep = func(ctx context.Context, delay time.Duration) error {
		mu.Lock()
		delays = append(delays, delay)
		mu.Unlock()
		return nil
	}

	d.Run(context.Background(), makeSegments(1), "en", "es")

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %d backoff sleeps, got %d: %v", len(want), len(delays), delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("sleep %d: want %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestDispatcher_PerItemFailuresRetried(t *testing.T) {
	// First call fails item 1 inside an otherwise successful batch;
	// the second call translates the leftover.
	var call atomic.Int32
	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			if call.Add(1) == 1 {
				res := upperBatch(req)
				res.Errors = make([]string, len(req.Texts))
				res.Errors[1] = "quota exceeded"
				res.Translations[1] = ""
				return res, nil
			}
			return upperBatch(req), nil
		},
	}
	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 5, MaxAttempts: 2})
	noSleep(d)

	results := d.Run(context.Background(), makeSegments(3), "en", "es")
	for token, r := range results {
		if r.Failed() {
			t.Errorf("segment %d should have succeeded on retry: %s", token, r.Err)
		}
	}
	if call.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", call.Load())
	}
}

func TestDispatcher_ExhaustedRetriesReportReason(t *testing.T) {
	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			return nil, errors.New("service melted")
		},
	}
	d := New(svc, translator.ServiceConfig{}, Config{MaxAttempts: 2})
	noSleep(d)

	results := d.Run(context.Background(), makeSegments(1), "en", "es")
	r := results[0]
	if !r.Failed() {
		t.Fatal("expected failure")
	}
	if !strings.Contains(r.Err, "service melted") {
		t.Errorf("expected failure reason in result, got %q", r.Err)
	}
	if svc.callCount.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", svc.callCount.Load())
	}
}

func TestDispatcher_ConcurrencyCap(t *testing.T) {
	svc := &mockService{
		translateFunc: func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
			time.Sleep(10 * time.Millisecond)
			return upperBatch(req), nil
		},
	}

	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 1, MaxConcurrency: 2, MaxAttempts: 1})
	noSleep(d)

	d.Run(context.Background(), makeSegments(12), "en", "es")

	if got := svc.maxInFlight.Load(); got > 2 {
		t.Errorf("concurrency cap exceeded: %d in flight", got)
	}
}

func TestDispatcher_EmptyInput(t *testing.T) {
	svc := &mockService{}
	d := New(svc, translator.ServiceConfig{}, Config{})
	noSleep(d)

	results := d.Run(context.Background(), nil, "en", "es")
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if svc.callCount.Load() != 0 {
		t.Errorf("expected zero backend calls, got %d", svc.callCount.Load())
	}
}

func TestDispatcher_CancelledContext(t *testing.T) {
	svc := &mockService{}
	d := New(svc, translator.ServiceConfig{}, Config{})
	noSleep(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.translateFunc = func(ctx context.Context, req translator.BatchRequest) (*translator.BatchResult, error) {
		return nil, ctx.Err()
	}

	segs := makeSegments(4)
	results := d.Run(ctx, segs, "en", "es")
	if len(results) != len(segs) {
		t.Fatalf("cancellation must still yield one result per segment, got %d of %d", len(results), len(segs))
	}
	for _, r := range results {
		if !r.Failed() {
			t.Error("expected failed results under cancelled context")
		}
	}
}

type fakeMemory struct {
	mu      sync.Mutex
	entries map[string]string
	saves   int
}

func newFakeMemory() *fakeMemory {
	return &fakeMemory{entries: make(map[string]string)}
}

func (m *fakeMemory) Lookup(ctx context.Context, text, src, dst string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[text+"|"+src+"|"+dst]
	return v, ok, nil
}

func (m *fakeMemory) Save(ctx context.Context, text, src, dst, translated, service string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[text+"|"+src+"|"+dst] = translated
	m.saves++
	return nil
}

func TestDispatcher_MemoryHitSkipsBackend(t *testing.T) {
	mem := newFakeMemory()
	mem.entries["text 0|en|es"] = "TEXTO CERO"

	svc := &mockService{}
	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 10})
	noSleep(d)
	d.UseMemory(mem)

	results := d.Run(context.Background(), makeSegments(2), "en", "es")

	r0 := results[0]
	if !r0.Cached || r0.Text != "TEXTO CERO" {
		t.Errorf("expected cache hit for segment 0, got %+v", r0)
	}
	r1 := results[1]
	if r1.Cached || r1.Failed() {
		t.Errorf("expected backend translation for segment 1, got %+v", r1)
	}
	if mem.saves != 1 {
		t.Errorf("expected 1 save (the miss), got %d", mem.saves)
	}
}

func TestDispatcher_Idempotent(t *testing.T) {
	svc := &mockService{}
	d := New(svc, translator.ServiceConfig{}, Config{MaxBatchSize: 2})
	noSleep(d)

	segs := makeSegments(5)
	first := d.Run(context.Background(), segs, "en", "es")
	second := d.Run(context.Background(), segs, "en", "es")

	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for token, r := range first {
		if second[token].Text != r.Text {
			t.Errorf("token %d: %q vs %q", token, r.Text, second[token].Text)
		}
	}
}
