package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"MarketWhisperer/internal/domain/models"
	domrepo "MarketWhisperer/internal/domain/repository"
	domsvc "MarketWhisperer/internal/domain/service"
	"MarketWhisperer/internal/service/news"
	"MarketWhisperer/pkg/logger"
)

const (
	fallbackSource = "Unknown"
	fallbackTitle  = "Market Update"
)

// Orchestrator runs the fetch-context-classify pipeline for many instruments at once.
type Orchestrator struct {
	news       domsvc.HeadlineFetcher
	market     domsvc.ContextProvider
	classifier domsvc.Classifier
	metrics    domrepo.Metrics
	poolSize   int
	log        *logger.Logger
}

func NewOrchestrator(newsSrc domsvc.HeadlineFetcher, market domsvc.ContextProvider, classifier domsvc.Classifier, metrics domrepo.Metrics, poolSize int, log *logger.Logger) *Orchestrator {
	if poolSize <= 0 {
		poolSize = 1
	}
	return &Orchestrator{
		news:       newsSrc,
		market:     market,
		classifier: classifier,
		metrics:    metrics,
		poolSize:   poolSize,
		log:        log,
	}
}

// Run analyzes every instrument with at most poolSize pipelines in flight.
// Instruments without headlines produce no whisper. Order is not preserved.
// A non-nil error means ctx ended first; the whispers gathered so far are still returned.
func (o *Orchestrator) Run(ctx context.Context, instruments []models.Instrument) ([]models.Whisper, error) {
	start := time.Now()
	defer func() { o.metrics.RecordLatency("analysis_run", time.Since(start).Seconds()) }()

	var (
		mu       sync.Mutex
		whispers = make([]models.Whisper, 0, len(instruments))
		wg       sync.WaitGroup
		sem      = make(chan struct{}, o.poolSize)
	)

launch:
	for _, inst := range instruments {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break launch
		}
		if ctx.Err() != nil {
			<-sem
			break
		}

		wg.Add(1)
		go func(inst models.Instrument) {
			defer wg.Done()
			defer func() { <-sem }()

			w, ok := o.analyzeSafe(ctx, inst)
			if !ok {
				return
			}
			mu.Lock()
			whispers = append(whispers, w)
			mu.Unlock()
		}(inst)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		o.log.Warn("analysis run interrupted",
			logger.Int("instruments", len(instruments)),
			logger.Int("whispers", len(whispers)),
			logger.Error(err))
		return whispers, err
	}
	return whispers, nil
}

func (o *Orchestrator) analyzeSafe(ctx context.Context, inst models.Instrument) (w models.Whisper, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.metrics.RecordError("pipeline_panic")
			o.log.Error("analysis pipeline panicked",
				logger.String("symbol", inst.Symbol),
				logger.Any("panic", r))
			ok = false
		}
	}()
	return o.analyze(ctx, inst)
}

func (o *Orchestrator) analyze(ctx context.Context, inst models.Instrument) (models.Whisper, bool) {
	mctx := o.market.GetContext(ctx, inst.Symbol)

	headlines, err := o.news.FetchHeadlines(ctx, inst.Symbol)
	if err != nil {
		o.metrics.RecordError("news")
		o.log.Warn("headline fetch failed", logger.String("symbol", inst.Symbol), logger.Error(err))
		return models.Whisper{}, false
	}
	if len(headlines) == 0 {
		o.log.Debug("no headlines", logger.String("symbol", inst.Symbol))
		return models.Whisper{}, false
	}

	o.metrics.ClassifierInFlight(1)
	start := time.Now()
	sig := o.classifier.Classify(ctx, inst.Symbol, headlines, mctx.Text)
	o.metrics.RecordLatency("classify", time.Since(start).Seconds())
	o.metrics.ClassifierInFlight(-1)

	w := BuildWhisper(inst.Symbol, sig, headlines)
	o.metrics.RecordWhisper(w.Symbol, w.Action)
	return w, true
}

// BuildWhisper turns a classifier signal into the user-facing whisper.
func BuildWhisper(symbol string, sig models.Signal, headlines []models.Headline) models.Whisper {
	title := sig.SelectedHeadline
	if title == "" {
		title = fallbackTitle
	}

	source := sig.SelectedSource
	if source == "" && sig.SelectedHeadline != "" {
		for _, h := range headlines {
			if strings.EqualFold(strings.TrimSpace(h.Title), sig.SelectedHeadline) {
				source = h.Source
				break
			}
		}
	}
	if source == "" {
		source = fallbackSource
	}

	return models.Whisper{
		Symbol:    symbol,
		Category:  news.Categorize(title),
		Severity:  sig.Severity,
		Message:   fmt.Sprintf("[%s] %s", source, title),
		Reasoning: sig.Reasoning,
		Action:    sig.Action,
	}
}
