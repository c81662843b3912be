package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"MarketWhisperer/internal/domain/models"
)

type fakeNews struct {
	bySymbol map[string][]models.Headline
	fail     map[string]bool
}

func (f *fakeNews) FetchHeadlines(_ context.Context, symbol string) ([]models.Headline, error) {
	if f.fail[symbol] {
		return nil, models.ErrSourceUnavailable
	}
	return f.bySymbol[symbol], nil
}

type fakeMarket struct {
	mu      sync.Mutex
	calls   []string
	text    string
	panicOn string
}

func (f *fakeMarket) GetContext(_ context.Context, symbol string) models.MarketContext {
	if symbol == f.panicOn {
		panic("market exploded")
	}
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()
	text := f.text
	if text == "" {
		text = models.UnavailableContext
	}
	return models.MarketContext{Symbol: symbol, Text: text, Status: models.ContextUnavailable}
}

type fakeClassifier struct {
	signal   models.Signal
	delay    time.Duration
	inFlight int32
	maxSeen  int32
	contexts sync.Map
}

func (f *fakeClassifier) Classify(ctx context.Context, symbol string, _ []models.Headline, marketContext string) models.Signal {
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		m := atomic.LoadInt32(&f.maxSeen)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxSeen, m, n) {
			break
		}
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	f.contexts.Store(symbol, marketContext)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return f.signal
}

type fakeMetrics struct {
	mu       sync.Mutex
	whispers int
	jobs     []models.JobState
	errors   []string
}

func (m *fakeMetrics) RecordWhisper(string, models.Action) {
	m.mu.Lock()
	m.whispers++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordJob(s models.JobState) {
	m.mu.Lock()
	m.jobs = append(m.jobs, s)
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors = append(m.errors, kind)
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(string, float64) {}
func (m *fakeMetrics) ClassifierInFlight(float64)    {}

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]models.AnalysisJob
	hist []models.JobState
	err  error
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: map[string]models.AnalysisJob{}}
}

func (s *memJobStore) Save(_ context.Context, job *models.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs[job.ID] = *job
	s.hist = append(s.hist, job.State)
	return nil
}

func (s *memJobStore) Get(_ context.Context, id string) (*models.AnalysisJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	j, ok := s.jobs[id]
	if !ok {
		return nil, models.ErrJobNotFound
	}
	return &j, nil
}

type fakeQueue struct {
	msgType string
	payload interface{}
	err     error
}

func (q *fakeQueue) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.msgType, q.payload = msgType, payload
	return q.err
}

type fakeRunner struct {
	whispers []models.Whisper
	err      error
	panicMsg string
	block    bool
	calls    int32
}

func (r *fakeRunner) Run(ctx context.Context, _ []models.Instrument) ([]models.Whisper, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.whispers, r.err
}

type fakePublisher struct {
	mu    sync.Mutex
	jobID string
	got   []models.Whisper
	err   error
}

func (p *fakePublisher) PublishWhispers(_ context.Context, jobID string, ws []models.Whisper) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobID = jobID
	p.got = append(p.got, ws...)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

var errBoom = errors.New("boom")
