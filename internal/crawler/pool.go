package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/barrins-project/mtg-scraper/internal/fetch"
	"github.com/barrins-project/mtg-scraper/internal/logger"
)

// Defaults used when Options leave a field unset.
const (
	DefaultWorkers    = 4
	DefaultMaxRetries = 3
	DefaultSettle     = 5 * time.Second
	DefaultThrottle   = 500 * time.Millisecond
)

// Task is one identifier to scrape. Page optionally carries markup the
// producer already fetched.
type Task struct {
	ID   string
	URL  string
	Page string
}

// Enqueuer accepts tasks from a producer
type Enqueuer interface {
	Enqueue(task Task)
}

// Source is the per-site capability driven by the pool.
type Source interface {
	Name() string
	// Produce enqueues every candidate that passes the source's de-duplication
	// policy. f is a session lent by the pool, which closes it.
	Produce(ctx context.Context, q Enqueuer, f fetch.Fetcher) error
	// Open creates the session handle owned by one worker.
	Open(ctx context.Context) (fetch.Fetcher, error)
	// Process fetches, extracts and persists one task, returning the written path.
	Process(ctx context.Context, f fetch.Fetcher, task Task, settle time.Duration) (string, error)
}

// Mode selects how production and consumption overlap.
type Mode int

const (
	// Sequential runs the producer to completion before any worker starts.
	Sequential Mode = iota
	// Concurrent lets workers consume while the producer is still running.
	Concurrent
)

// Options configures a Pool
type Options struct {
	Workers    int
	MaxRetries int
	Backoff    Backoff
	// NewPacer builds the pacer of one worker. Nil disables pacing.
	NewPacer func() Pacer
	Logger   *logger.Logger
	Metrics  *logger.Metrics
}

// Stats summarizes one run
type Stats struct {
	Queued    int `json:"queued"`
	Done      int `json:"done"`
	Retried   int `json:"retried"`
	Abandoned int `json:"abandoned"`
}

// Pool is the task-pool context of one crawl. Run must not be called concurrently.
type Pool struct {
	opts Options

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Task
	retries  map[string]int
	closed   bool
	sessions []fetch.Fetcher
	stats    Stats
}

// NewPool creates a pool, filling unset options with defaults.
func NewPool(opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.Backoff == nil {
		opts.Backoff = Linear{Base: DefaultSettle}
	}
	if opts.NewPacer == nil {
		opts.NewPacer = func() Pacer { return noPacer{} }
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = logger.NewMetrics()
	}

	p := &Pool{opts: opts}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Enqueue adds a task to the queue and wakes one idle worker.
func (p *Pool) Enqueue(task Task) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, task)
	p.stats.Queued++
	p.cond.Signal()
}

// Len returns the number of queued tasks
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
	p.retries = make(map[string]int)
	p.closed = false
	p.sessions = nil
	p.stats = Stats{}
}

// closeQueue marks production finished; idle workers drain and exit.
func (p *Pool) closeQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.cond.Broadcast()
}

// Run opens one session per worker, runs the producer and the workers in the
// given mode, and returns once every worker has released its session.
func (p *Pool) Run(ctx context.Context, src Source, mode Mode) (Stats, error) {
	p.reset()
	log := p.opts.Logger.With(logger.Fields{"source": src.Name()})

	for i := 0; i < p.opts.Workers; i++ {
		session, err := src.Open(ctx)
		if err != nil {
			for _, s := range p.sessions {
				_ = s.Close()
			}
			return Stats{}, fmt.Errorf("opening %s session %d: %w", src.Name(), i+1, err)
		}
		p.sessions = append(p.sessions, session)
	}

	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.cond.Broadcast()
	})
	defer stop()

	// A sequential producer borrows the first worker's session, which is idle
	// until production ends. A concurrent one gets a session of its own.
	producerSession := p.sessions[0]
	if mode == Concurrent {
		session, err := src.Open(ctx)
		if err != nil {
			for _, s := range p.sessions {
				_ = s.Close()
			}
			return Stats{}, fmt.Errorf("opening %s producer session: %w", src.Name(), err)
		}
		producerSession = session
	}

	var produceErr error
	produce := func() {
		log.Info("producing tasks", nil)
		if err := src.Produce(ctx, p, producerSession); err != nil {
			log.Error("producer failed", nil, err)
			produceErr = fmt.Errorf("producing %s tasks: %w", src.Name(), err)
		}
		if mode == Concurrent {
			if err := producerSession.Close(); err != nil {
				log.Warn("closing producer session failed", logger.Fields{"error": err.Error()})
			}
		}
		p.closeQueue()
		log.Info("producer closed", logger.Fields{"queued": p.Len()})
	}

	if mode == Sequential {
		produce()
	}

	var wg sync.WaitGroup
	for i, session := range p.sessions {
		wg.Add(1)
		go func(id int, session fetch.Fetcher) {
			defer wg.Done()
			p.work(ctx, src, session, log.With(logger.Fields{"worker": id}))
		}(i+1, session)
	}

	if mode == Concurrent {
		produce()
	}
	wg.Wait()

	p.mu.Lock()
	stats := p.stats
	p.mu.Unlock()

	log.Info("crawl finished", logger.Fields{
		"queued":    stats.Queued,
		"done":      stats.Done,
		"retried":   stats.Retried,
		"abandoned": stats.Abandoned,
	})

	if produceErr == nil && ctx.Err() != nil {
		return stats, ctx.Err()
	}
	return stats, produceErr
}

// next blocks until a task is available or the queue is closed and empty.
func (p *Pool) next(ctx context.Context) (Task, int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed && ctx.Err() == nil {
		p.cond.Wait()
	}
	if len(p.queue) == 0 || ctx.Err() != nil {
		return Task{}, 0, false
	}

	task := p.queue[0]
	p.queue = p.queue[1:]
	return task, p.retries[task.ID], true
}

func (p *Pool) work(ctx context.Context, src Source, session fetch.Fetcher, log *logger.Logger) {
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("closing session failed", logger.Fields{"error": err.Error()})
		}
		log.Info("worker closed", nil)
	}()

	pacer := p.opts.NewPacer()
	for {
		task, attempt, ok := p.next(ctx)
		if !ok {
			return
		}

		p.handle(ctx, src, session, task, attempt, log)

		if err := pacer.Throttle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("throttle failed", logger.Fields{"error": err.Error()})
		}
	}
}

// handle runs one attempt of a task. A panic is contained to the task, which
// is then abandoned.
func (p *Pool) handle(ctx context.Context, src Source, session fetch.Fetcher, task Task, attempt int, log *logger.Logger) {
	fields := logger.Fields{"id": task.ID, "url": task.URL, "attempt": attempt + 1}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("task panicked", fields, fmt.Errorf("%v", r))
			p.abandon()
		}
	}()

	log.Info("scraping", fields)
	path, err := src.Process(ctx, session, task, p.opts.Backoff.Delay(attempt))
	p.opts.Metrics.RecordTiming("crawler.task", time.Since(start))

	if err != nil {
		p.retry(task, err, log, fields)
		return
	}

	p.mu.Lock()
	p.stats.Done++
	p.mu.Unlock()
	p.opts.Metrics.IncrCounter("crawler.done")
	log.Info("saved", logger.Fields{"id": task.ID, "path": path})
}

// retry re-queues a failed task until it has failed MaxRetries times.
func (p *Pool) retry(task Task, cause error, log *logger.Logger, fields logger.Fields) {
	p.mu.Lock()
	p.retries[task.ID]++
	failures := p.retries[task.ID]
	requeue := failures < p.opts.MaxRetries
	if requeue {
		p.queue = append(p.queue, task)
		p.stats.Retried++
		p.cond.Signal()
	} else {
		p.stats.Abandoned++
	}
	p.mu.Unlock()

	fields["failures"] = failures
	fields["max_retries"] = p.opts.MaxRetries
	if requeue {
		p.opts.Metrics.IncrCounter("crawler.retried")
		log.Warn("retrying task", mergeErr(fields, cause))
		return
	}
	p.opts.Metrics.IncrCounter("crawler.abandoned")
	log.Error("abandoning task", fields, cause)
}

func (p *Pool) abandon() {
	p.mu.Lock()
	p.stats.Abandoned++
	p.mu.Unlock()
	p.opts.Metrics.IncrCounter("crawler.abandoned")
}

func mergeErr(fields logger.Fields, err error) logger.Fields {
	out := make(logger.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
