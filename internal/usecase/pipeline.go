package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"WallabagEnhancer/internal/domain"
	"WallabagEnhancer/internal/enhancer"
	"WallabagEnhancer/internal/ports"
	"WallabagEnhancer/internal/redact"
	"WallabagEnhancer/internal/worker"
)

const notifyTimeout = 15 * time.Second

// PipelineDeps wires all driven adapters into the enrichment pipeline.
type PipelineDeps struct {
	Service   ports.ArticleService
	Enhancers []enhancer.Enhancer
	Fetcher   enhancer.Fetcher
	Notifier  ports.Notifier
	Logger    *slog.Logger
	Worker    worker.Options
}

// Pipeline implements the article-enrichment workflow.
type Pipeline struct {
	service   ports.ArticleService
	enhancers []enhancer.Enhancer
	fetcher   enhancer.Fetcher
	notifier  ports.Notifier
	logger    *slog.Logger
	workerOpt worker.Options
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		service:   deps.Service,
		enhancers: append([]enhancer.Enhancer(nil), deps.Enhancers...),
		fetcher:   deps.Fetcher,
		notifier:  deps.Notifier,
		logger:    logger,
		workerOpt: deps.Worker,
	}
}

// Run authenticates, fetches every entry and enriches the unprocessed ones.
//
// Authentication and listing failures abort the run. Failures of a single
// article are recorded in the report and never stop the others.
func (p *Pipeline) Run(ctx context.Context) (domain.Report, error) {
	report := domain.Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := p.logger.With("run_id", report.RunID)

	if p.service == nil {
		return report, fmt.Errorf("article service is not configured")
	}

	session, err := p.service.Open(ctx)
	if err != nil {
		return report, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("close session", "error", redact.Error(cerr))
		}
	}()

	articles, err := session.Entries(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch entries: %w", err)
	}
	report.Total = len(articles)
	logger.Info("entries fetched", "count", len(articles), "enhancers", len(p.enhancers))

	process := func(ctx context.Context, article domain.Article) (domain.Outcome, error) {
		return p.processArticle(ctx, session, article, logger), nil
	}
	results, runErr := worker.ProcessAll(ctx, articles, process, p.workerOpt)

	report.Outcomes = make([]domain.Outcome, 0, len(results))
	for _, res := range results {
		report.Outcomes = append(report.Outcomes, res.Output)
	}
	report.NotAttempted = report.Total - len(report.Outcomes)
	report.FinishedAt = time.Now()

	logger.Info("run finished",
		"processed", report.Count(domain.StatusProcessed),
		"skipped", report.Count(domain.StatusSkipped),
		"failed", report.Count(domain.StatusFailed),
		"not_attempted", report.NotAttempted,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	p.notify(ctx, report, logger)

	if runErr != nil {
		return report, fmt.Errorf("run interrupted: %w", runErr)
	}
	return report, nil
}

func (p *Pipeline) processArticle(ctx context.Context, session ports.ArticleSession, article domain.Article, logger *slog.Logger) (outcome domain.Outcome) {
	log := logger.With("article_id", article.ID)
	outcome = domain.Outcome{ArticleID: article.ID}

	defer func() {
		if r := recover(); r != nil {
			outcome = p.failed(log, article, fmt.Errorf("panic: %v", r))
		}
	}()

	if domain.IsProcessed(article) {
		log.Info("article skipped", "reason", "already processed")
		outcome.Status = domain.StatusSkipped
		return outcome
	}

	log.Debug("processing article", "url", article.URL)

	payload, err := BuildPayload(ctx, article, p.enhancers, p.fetcher)
	if err != nil {
		return p.failed(log, article, fmt.Errorf("build payload: %w", err))
	}

	if err := session.Update(ctx, article.ID, payload); err != nil {
		return p.failed(log, article, fmt.Errorf("write back: %w", err))
	}

	log.Info("article processed",
		"tags", len(payload.Tags),
		"origin_url", payload.OriginURL != nil,
		"content", payload.Content != nil,
	)
	outcome.Status = domain.StatusProcessed
	outcome.Payload = &payload
	return outcome
}

func (p *Pipeline) failed(log *slog.Logger, article domain.Article, err error) domain.Outcome {
	log.Error("article failed", "error", redact.Error(err))
	return domain.Outcome{ArticleID: article.ID, Status: domain.StatusFailed, Err: err}
}

func (p *Pipeline) notify(ctx context.Context, report domain.Report, logger *slog.Logger) {
	if p.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := p.notifier.PublishReport(nctx, report); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("publish report", "error", redact.Error(err))
	}
}
