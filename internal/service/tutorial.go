package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Skotchmaster/social_feed/internal/logging"
	"github.com/Skotchmaster/social_feed/internal/models"
	"github.com/Skotchmaster/social_feed/internal/repo"
	"github.com/Skotchmaster/social_feed/internal/transport"
	"github.com/Skotchmaster/social_feed/internal/util"
)

type TutorialService struct {
	Store repo.Store
}

func (s *TutorialService) Create(ctx context.Context, caller models.UserID, req transport.CreateTutorialRequest) (models.Tutorial, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.VideoURL = strings.TrimSpace(req.VideoURL)
	if err := checkStruct(req); err != nil {
		return models.Tutorial{}, err
	}

	t := models.Tutorial{UserID: caller, Title: req.Title, Description: req.Description, VideoURL: req.VideoURL}
	err := runTx(ctx, s.Store, "tutorial.create", func(st repo.Store) error {
		if err := ensureUser(ctx, st, caller); err != nil {
			return err
		}
		return st.CreateTutorial(ctx, &t)
	})
	if err != nil {
		return models.Tutorial{}, err
	}
	return t, nil
}

func (s *TutorialService) List(ctx context.Context, page, size int) (transport.Page[models.Tutorial], error) {
	offset, limit := util.Calculate(page, size)
	items, total, err := s.Store.ListTutorials(ctx, offset, limit)
	if err != nil {
		return transport.Page[models.Tutorial]{}, classify(ctx, "tutorial.list", err)
	}
	return newPage(items, total, offset, limit), nil
}

func (s *TutorialService) Delete(ctx context.Context, caller models.UserID, id uint) error {
	err := runTx(ctx, s.Store, "tutorial.delete", func(st repo.Store) error {
		t, err := st.FindTutorial(ctx, id)
		if err != nil {
			return notFound(err, "tutorial")
		}
		if err := authorize(caller, t); err != nil {
			return err
		}
		return notFound(st.DeleteTutorial(ctx, id), "tutorial")
	})
	if errors.Is(err, ErrForbidden) {
		logging.FromContext(ctx).Warn("delete_denied", "status", 403, "tutorial_id", id, "user_id", caller)
	}
	return err
}
