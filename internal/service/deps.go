package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/mykafka"
	"github.com/Skotchmaster/social_feed/internal/tokens"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type TokenManager interface {
	Issue(subject models.UserID) (tokens.Token, error)
	Verify(raw string) (models.UserID, error)
}

// PostIndex is the optional full-text index over posts.
type PostIndex interface {
	IndexPost(ctx context.Context, p *models.Post) error
	DeletePost(ctx context.Context, id uint) error
	SearchPosts(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

// publish sends a domain event after the change is committed. A failure is
// logged and never reaches the caller.
func publish(ctx context.Context, p Publisher, topic string, ev mykafka.Event) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.PublishEvent(pctx, topic, ev.UserID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", topic, "type", ev.Type, "error", err)
	}
}
