package service

import (
	"context"

	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/transport"
	"github.com/Skotchmaster/social_feed/internal/util"
)

// NewsService is read-only: news items are published outside this API.
type NewsService struct {
	Store repo.Store
}

func (s *NewsService) List(ctx context.Context, page, size int) (transport.Page[models.News], error) {
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Store.ListNews(ctx, offset, limit)
	if err != nil {
		return transport.Page[models.News]{}, classify(ctx, "news.list", err)
	}
	return newPage(items, total, offset, limit), nil
}
