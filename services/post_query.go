package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/miniblog/models"
)

// Order selects how a post listing is sorted.
type Order int

const (
	// OrderNewest sorts by creation time, newest first.
	OrderNewest Order = iota
	// OrderScore sorts full-text matches by relevance, best first.
	OrderScore
)

// PostQuery is the predicate behind every post listing.
type PostQuery struct {
	// Published filters on the published flag when set.
	Published *bool
	// Match is a dialect match expression; empty means no full-text filter.
	Match string
	Order Order
}

func published(v bool) *bool { return &v }

// scope builds the filtered query without selection, ordering or paging, so it can be
// reused for counting.
func (s *PostService) scope(ctx context.Context, q PostQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&models.Post{})
	if q.Match != "" {
		db = s.index.Match(db, q.Match)
	}
	if q.Published != nil {
		db = db.Where("posts.published = ?", *q.Published)
	}
	return db
}

func (s *PostService) ordered(db *gorm.DB, q PostQuery) *gorm.DB {
	switch q.Order {
	case OrderScore:
		return db.Select("posts.*, ? AS score", s.index.Score(q.Match)).
			Order("score DESC").
			Order("posts.timestamp DESC")
	default:
		return db.Order("posts.timestamp DESC").Order("posts.id DESC")
	}
}
