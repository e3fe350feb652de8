package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/deusflow/toranews/internal/message"
	"github.com/deusflow/toranews/internal/metrics"
	"github.com/deusflow/toranews/internal/news"
	"github.com/deusflow/toranews/internal/notify"
	"github.com/deusflow/toranews/internal/storage"
)

// ErrRunInProgress is returned by TryRun while another run holds the lock.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Lister produces the current headlines.
type Lister interface {
	List(ctx context.Context) ([]news.Item, error)
}

// Assembler turns a headline into its full article document.
type Assembler interface {
	Assemble(ctx context.Context, item news.Item) (string, error)
}

// Sender delivers one chat message.
type Sender interface {
	Send(ctx context.Context, msg notify.Message) error
}

// RegisterMode decides when an item is recorded in the registry.
type RegisterMode string

const (
	// RegisterBefore marks the item before its article is fetched.
	RegisterBefore RegisterMode = "before"
	// RegisterAfter marks the item only once it was handled without error.
	RegisterAfter RegisterMode = "after"
)

type Deps struct {
	Lister    Lister
	Filter    *news.Filter
	Registry  storage.Registry
	Assembler Assembler
	Sender    Sender
	Logger    *slog.Logger
}

type Options struct {
	AvatarURL       string
	ItemDelay       time.Duration
	RegisterMode    RegisterMode
	ContinueOnError bool
	MaxLength       int // chunk limit, message.MaxLength when zero
}

// Report summarizes one run.
type Report struct {
	RunID             string
	Scraped           int
	Matched           int
	Fresh             int
	AlreadyRegistered int
	Expert            int
	Suppressed        int
	Sent              int
	Messages          int
	Duration          time.Duration
}

// Pipeline scrapes, filters, dedupes and notifies, one item at a time.
type Pipeline struct {
	deps Deps
	opts Options
	log  *slog.Logger
	lock *semaphore.Weighted
}

func New(deps Deps, opts Options) *Pipeline {
	if opts.MaxLength <= 0 {
		opts.MaxLength = message.MaxLength
	}
	if opts.RegisterMode == "" {
		opts.RegisterMode = RegisterBefore
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{deps: deps, opts: opts, log: log, lock: semaphore.NewWeighted(1)}
}

// Run waits for any in-flight run to finish, then runs once.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	if err := p.lock.Acquire(ctx, 1); err != nil {
		return Report{}, err
	}
	defer p.lock.Release(1)
	return p.run(ctx)
}

// TryRun runs once unless another run is in flight, in which case it returns ErrRunInProgress.
func (p *Pipeline) TryRun(ctx context.Context) (Report, error) {
	if !p.lock.TryAcquire(1) {
		return Report{}, ErrRunInProgress
	}
	defer p.lock.Release(1)
	return p.run(ctx)
}

func (p *Pipeline) run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	log := p.log.With("run_id", report.RunID)

	log.Info("run started")
	err := p.process(ctx, log, &report)
	report.Duration = time.Since(start)

	p.record(report, err)
	attrs := []any{
		"scraped", report.Scraped,
		"matched", report.Matched,
		"fresh", report.Fresh,
		"already_registered", report.AlreadyRegistered,
		"expert", report.Expert,
		"suppressed", report.Suppressed,
		"sent", report.Sent,
		"messages", report.Messages,
		"duration", report.Duration,
	}
	if err != nil {
		log.Error("run failed", append(attrs, "error", err)...)
		return report, err
	}
	log.Info("run finished", attrs...)
	return report, nil
}

func (p *Pipeline) process(ctx context.Context, log *slog.Logger, report *Report) error {
	items, err := p.deps.Lister.List(ctx)
	if err != nil {
		return fmt.Errorf("scrape listing: %w", err)
	}
	report.Scraped = len(items)

	matched := p.deps.Filter.Apply(items)
	report.Matched = len(matched)
	if len(matched) == 0 {
		log.Info("no matching news")
		return nil
	}

	uris := make([]string, len(matched))
	for i, item := range matched {
		uris[i] = item.URL
	}
	registered, err := p.deps.Registry.CheckRegistered(ctx, uris)
	if err != nil {
		return fmt.Errorf("check registered: %w", err)
	}

	fresh := make([]news.Item, 0, len(matched))
	for _, item := range matched {
		if registered[item.URL] {
			report.AlreadyRegistered++
			continue
		}
		fresh = append(fresh, item)
	}
	report.Fresh = len(fresh)
	log.Debug("registry checked", "matched", len(matched), "fresh", len(fresh))

	var errs []error
	for i, item := range fresh {
		handled, err := p.handle(ctx, log, item, report)
		if err != nil {
			err = fmt.Errorf("%s: %w", item.URL, err)
			errs = append(errs, err)
			if !p.opts.ContinueOnError || ctx.Err() != nil {
				return errors.Join(errs...)
			}
			log.Error("item failed", "url", item.URL, "title", item.Title, "error", err)
		}

		if handled && i < len(fresh)-1 {
			if err := sleep(ctx, p.opts.ItemDelay); err != nil {
				return errors.Join(append(errs, err)...)
			}
		}
	}
	return errors.Join(errs...)
}

// handle processes one fresh item. handled is false when the item was skipped
// as already registered, in which case no pause follows it.
func (p *Pipeline) handle(ctx context.Context, log *slog.Logger, item news.Item, report *Report) (handled bool, err error) {
	log = log.With("url", item.URL, "title", item.Title, "credit", item.Credit)

	if p.opts.RegisterMode == RegisterBefore {
		already, err := p.deps.Registry.Register(ctx, item.URL)
		if err != nil {
			return false, fmt.Errorf("register: %w", err)
		}
		if already {
			log.Info("already registered")
			report.AlreadyRegistered++
			metrics.ItemsSkipped.WithLabelValues("registered").Inc()
			return false, nil
		}
		log.Info("registered")
	}

	if err := p.deliver(ctx, log, item, report); err != nil {
		return true, err
	}

	if p.opts.RegisterMode == RegisterAfter {
		already, err := p.deps.Registry.Register(ctx, item.URL)
		if err != nil {
			return true, fmt.Errorf("register: %w", err)
		}
		if already {
			log.Warn("registered concurrently by another run")
		}
	}
	return true, nil
}

func (p *Pipeline) deliver(ctx context.Context, log *slog.Logger, item news.Item, report *Report) error {
	if item.IsExpert() {
		log.Info("ignored (expert)")
		report.Expert++
		metrics.ItemsSkipped.WithLabelValues("expert").Inc()
		return nil
	}

	doc, err := p.deps.Assembler.Assemble(ctx, item)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if keyword, ok := p.deps.Filter.IgnoredKeyword(doc); ok {
		log.Info("ignored (keyword)", "keyword", keyword)
		report.Suppressed++
		metrics.ItemsSkipped.WithLabelValues("keyword").Inc()
		return nil
	}

	chunks := message.NormalizeAll(message.Split(doc, p.opts.MaxLength))
	sent := 0
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		msg := notify.Message{Content: chunk, Username: item.Credit, AvatarURL: p.opts.AvatarURL}
		if err := p.deps.Sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send chunk %d/%d: %w", i+1, len(chunks), err)
		}
		sent++
		report.Messages++
		metrics.MessagesSent.Inc()
	}

	report.Sent++
	metrics.ItemsSent.Inc()
	log.Info("notified", "messages", sent)
	return nil
}

func (p *Pipeline) record(report Report, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.Runs.WithLabelValues(result).Inc()
	metrics.RunDuration.Observe(report.Duration.Seconds())
	metrics.ItemsScraped.Add(float64(report.Scraped))
	metrics.ItemsMatched.Add(float64(report.Matched))
	metrics.Global.RecordRun(report.Duration, report.Sent, report.Messages, report.AlreadyRegistered, err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
