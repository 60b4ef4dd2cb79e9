// Package dispatch sends extracted segments to a translation backend in
// batches, bounded by a concurrency cap and a shared rate limiter, with
// retry and exponential backoff per batch. Results are correlated by
// position token only; arrival order carries no meaning.
package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/valpere/subtran/internal/document"
	"github.com/valpere/subtran/internal/segment"
	"github.com/valpere/subtran/internal/translator"
)

const (
	DefaultMaxBatchSize   = 10
	DefaultMaxConcurrency = 4
	DefaultMaxAttempts    = 3
	DefaultRetryDelay     = 500 * time.Millisecond
)

// Result is the outcome for one segment. Err == "" means the segment
// was translated; otherwise Text is unset and Err carries the reason.
type Result struct {
	Token  document.PositionToken
	Text   string
	Err    string
	Cached bool
}

// Failed reports whether the segment ended without a translation.
func (r Result) Failed() bool { return r.Err != "" }

// Memory is an optional translation cache consulted before dispatch and
// updated after. Lookups that hit never reach the backend.
type Memory interface {
	Lookup(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error)
	Save(ctx context.Context, sourceText, sourceLang, targetLang, translatedText, service string) error
}

type Config struct {
	MaxBatchSize   int           // segments per backend call
	MaxBatchChars  int           // cumulative runes per call, 0 = unlimited
	MaxConcurrency int           // in-flight backend calls
	MaxAttempts    int           // total attempts per batch including the first
	RetryDelay     time.Duration // base backoff, doubled after each failed attempt
	RatePerSecond  float64       // backend call rate cap, 0 = unlimited
}

type Dispatcher struct {
	service translator.TranslationService
	svcCfg  translator.ServiceConfig
	config  Config
	limiter *rate.Limiter
	memory  Memory

	// sleep is injectable so retry tests run without real delay.
	sleep func(context.Context, time.Duration) error
}

func New(service translator.TranslationService, svcCfg translator.ServiceConfig, config Config) *Dispatcher {
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = DefaultMaxBatchSize
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}

	d := &Dispatcher{
		service: service,
		svcCfg:  svcCfg,
		config:  config,
		sleep:   sleepCtx,
	}
	if config.RatePerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), 1)
	}
	return d
}

// UseMemory attaches a translation cache. Must be called before Run.
func (d *Dispatcher) UseMemory(m Memory) {
	d.memory = m
}

// Run translates segs and returns exactly one Result per segment,
// keyed by position token. Dispatching the same segments twice is safe:
// the dispatcher keeps no state between calls beyond the shared rate
// limiter.
func (d *Dispatcher) Run(ctx context.Context, segs []segment.Segment, sourceLang, targetLang string) map[document.PositionToken]Result {
	results := make(map[document.PositionToken]Result, len(segs))
	if len(segs) == 0 {
		return results
	}

	// Cache pass: segments answered from memory skip the backend.
	pending := segs
	if d.memory != nil {
		pending = pending[:0:0]
		for _, s := range segs {
			if text, ok, err := d.memory.Lookup(ctx, s.SourceText, sourceLang, targetLang); err == nil && ok {
				results[s.Token] = Result{Token: s.Token, Text: text, Cached: true}
				continue
			}
			pending = append(pending, s)
		}
	}

	batches := segment.Group(pending, d.config.MaxBatchSize, d.config.MaxBatchChars)
	if len(batches) == 0 {
		return results
	}

	batchResults := make(chan []Result, len(batches))
	sem := make(chan struct{}, d.config.MaxConcurrency)

	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func(batch []segment.Segment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			batchResults <- d.translateBatch(ctx, batch, sourceLang, targetLang)
		}(batch)
	}

	go func() {
		wg.Wait()
		close(batchResults)
	}()

	for rs := range batchResults {
		for _, r := range rs {
			results[r.Token] = r
			if d.memory != nil && !r.Failed() {
				_ = d.memory.Save(ctx, sourceBySegment(segs, r.Token), sourceLang, targetLang, r.Text, d.service.Name())
			}
		}
	}

	return results
}

// translateBatch runs the bounded-attempt loop for one batch. Items
// that fail inside an otherwise successful call stay pending and ride
// along on the next attempt; whatever is still pending when attempts
// run out is marked failed. One batch's exhaustion never affects
// another batch.
func (d *Dispatcher) translateBatch(ctx context.Context, batch []segment.Segment, sourceLang, targetLang string) []Result {
	var out []Result

	pending := batch
	itemErrs := make(map[document.PositionToken]string)
	lastErr := ""
	delay := d.config.RetryDelay

	for attempt := 1; attempt <= d.config.MaxAttempts && len(pending) > 0; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, delay); err != nil {
				lastErr = err.Error()
				break
			}
			delay *= 2
		}

		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				lastErr = err.Error()
				break
			}
		}

		texts := make([]string, len(pending))
		for i, s := range pending {
			texts[i] = s.SourceText
		}

		res, err := d.service.TranslateBatch(ctx, d.svcCfg, translator.BatchRequest{
			Texts:      texts,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		})
		if err != nil {
			lastErr = err.Error()
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if res == nil {
			lastErr = "backend returned no result"
			continue
		}

		var still []segment.Segment
		for i, s := range pending {
			if msg := res.ItemError(i); msg != "" {
				itemErrs[s.Token] = msg
				still = append(still, s)
				continue
			}
			if i >= len(res.Translations) {
				itemErrs[s.Token] = "no translation returned"
				still = append(still, s)
				continue
			}
			out = append(out, Result{Token: s.Token, Text: res.Translations[i]})
		}
		pending = still
	}

	for _, s := range pending {
		reason := itemErrs[s.Token]
		if reason == "" {
			reason = lastErr
		}
		if reason == "" {
			reason = "translation failed"
		}
		out = append(out, Result{Token: s.Token, Err: reason})
	}

	return out
}

func sourceBySegment(segs []segment.Segment, token document.PositionToken) string {
	for _, s := range segs {
		if s.Token == token {
			return s.SourceText
		}
	}
	return ""
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
