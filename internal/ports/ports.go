package ports

import (
	"context"
	"time"

	"WallabagEnhancer/internal/domain"
)

// ArticleService opens authenticated sessions against the read-it-later service.
type ArticleService interface {
	Open(ctx context.Context) (ArticleSession, error)
}

// ArticleSession is one authenticated run against the service. Close releases
// the underlying connections and must be called on every exit path.
type ArticleSession interface {
	Entries(ctx context.Context) ([]domain.Article, error)
	Update(ctx context.Context, articleID string, payload domain.Payload) error
	Close() error
}

// Notifier publishes run reports to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.Report) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
