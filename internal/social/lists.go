package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/db"
	"github.com/adriencombes74-alt/SoundBoxd-sub000/internal/validation"
)

// ListInput is the editable content of a curated list.
type ListInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Items       []db.ListItem `json:"items" validate:"max=500,dive"`
}

func (in *ListInput) clean() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validation.Struct(in); err != nil {
		return invalid(err)
	}
	return nil
}

// CreateList creates a list owned by owner.
func (s *Service) CreateList(ctx context.Context, owner string, in ListInput) (*db.List, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}
	l := &db.List{UserID: owner, Title: in.Title, Description: in.Description, Items: in.Items}
	if err := s.stores.Lists.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}
	return l, nil
}

// GetList returns a list by ID.
func (s *Service) GetList(ctx context.Context, id int64) (*db.List, error) {
	l, err := s.stores.Lists.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading list: %w", err)
	}
	return l, nil
}

// ListsForOwner returns every list owned by owner.
func (s *Service) ListsForOwner(ctx context.Context, owner string) ([]db.List, error) {
	lists, err := s.stores.Lists.ListForOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("loading lists: %w", err)
	}
	return lists, nil
}

// ownedList loads a list and checks that owner may change it.
func (s *Service) ownedList(ctx context.Context, owner string, id int64) (*db.List, error) {
	l, err := s.GetList(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserID != owner {
		return nil, ErrForbidden
	}
	return l, nil
}

// UpdateList replaces the content of a list owned by owner.
func (s *Service) UpdateList(ctx context.Context, owner string, id int64, in ListInput) (*db.List, error) {
	if err := in.clean(); err != nil {
		return nil, err
	}
	l, err := s.ownedList(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	l.Title, l.Description, l.Items = in.Title, in.Description, in.Items
	if err := s.stores.Lists.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("updating list: %w", err)
	}
	return l, nil
}

// DeleteList removes a list owned by owner.
func (s *Service) DeleteList(ctx context.Context, owner string, id int64) error {
	if _, err := s.ownedList(ctx, owner, id); err != nil {
		return err
	}
	if err := s.stores.Lists.Delete(ctx, id, owner); err != nil {
		return fmt.Errorf("deleting list: %w", err)
	}
	return nil
}
