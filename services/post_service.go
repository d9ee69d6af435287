package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/cppla/miniblog/models"
	"github.com/cppla/miniblog/search"
	"github.com/cppla/miniblog/utils"
)

const publicCachePrefix = "cache:posts:public:"

var validate = validator.New()

// SearchResult is a published post matched by a search, with its relevance.
type SearchResult struct {
	models.Post
	Score float64 `gorm:"column:score" json:"score"`
}

// PostService queries and saves posts.
type PostService struct {
	db       *gorm.DB
	index    search.Index
	perPage  int
	cacheTTL time.Duration
}

// NewPostService binds the service to db and the full-text index of its dialect.
func NewPostService(db *gorm.DB, perPage int, cacheTTL time.Duration) (*PostService, error) {
	idx, err := search.For(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	if perPage <= 0 {
		perPage = 20
	}
	return &PostService{db: db, index: idx, perPage: perPage, cacheTTL: cacheTTL}, nil
}

// Save inserts or updates post and its search index entry in one transaction.
// A missing title or content returns ErrValidation, a title that yields no slug
// ErrEmptySlug, and a slug collision ErrDuplicateSlug; none of them write anything.
func (s *PostService) Save(ctx context.Context, post *models.Post) error {
	if err := Validate(post); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(post).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateSlug
		}
		return errors.Wrap(err, "save post")
	}
	utils.InvalidateByPrefix(ctx, publicCachePrefix)
	return nil
}

// Validate checks post before it is written.
func Validate(post *models.Post) error {
	if err := validate.Struct(post); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return errors.Wrapf(ErrValidation, "field %s failed rule %s", verrs[0].Field(), verrs[0].Tag())
		}
		return errors.Wrap(err, "validate post")
	}
	if post.Slug == "" && models.Slugify(post.Title) == "" {
		return ErrEmptySlug
	}
	return nil
}

// GetBySlug loads one post. Drafts are only found when includeDrafts is set.
func (s *PostService) GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Post, error) {
	q := PostQuery{}
	if !includeDrafts {
		q.Published = published(true)
	}
	var post models.Post
	err := s.scope(ctx, q).Where("posts.slug = ?", slug).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, errors.Wrapf(err, "load post %q", slug)
	}
	return &post, nil
}

// Public lists published posts, newest first. Pages are cached until the next save.
// A page past the last one returns ErrPageNotFound; the first page always exists.
func (s *PostService) Public(ctx context.Context, page int) (utils.Page[models.Post], error) {
	key := fmt.Sprintf("%spage=%d:size=%d", publicCachePrefix, page, s.perPage)
	var cached utils.Page[models.Post]
	if utils.CacheGetJSON(ctx, key, &cached) {
		return cached, nil
	}

	result, err := s.list(ctx, PostQuery{Published: published(true)}, page)
	if err != nil {
		return result, err
	}
	if result.OutOfRange() {
		return result, ErrPageNotFound
	}
	utils.CacheSetJSON(ctx, key, result, s.cacheTTL)
	return result, nil
}

// Drafts lists unpublished posts, newest first.
func (s *PostService) Drafts(ctx context.Context, page int) (utils.Page[models.Post], error) {
	return s.list(ctx, PostQuery{Published: published(false)}, page)
}

// Search runs a full-text match over published posts, best match first. A query with
// no terms matches nothing. Pages past the last one return ErrPageNotFound.
func (s *PostService) Search(ctx context.Context, query string, page int) (utils.Page[SearchResult], error) {
	result := utils.Page[SearchResult]{Items: []SearchResult{}, Number: page, PerPage: s.perPage}

	expr := s.index.Expression(search.Terms(query))
	if expr != "" {
		q := PostQuery{Published: published(true), Match: expr}
		if err := s.scope(ctx, q).Count(&result.Total).Error; err != nil {
			return result, errors.Wrap(err, "count search results")
		}
	}
	if result.OutOfRange() {
		return result, ErrPageNotFound
	}
	if result.Total == 0 {
		return result, nil
	}

	q := PostQuery{Published: published(true), Match: expr, Order: OrderScore}
	err := s.ordered(s.scope(ctx, q), q).
		Offset(result.Offset()).
		Limit(s.perPage).
		Scan(&result.Items).Error
	if err != nil {
		return result, errors.Wrap(err, "search posts")
	}
	return result, nil
}

func (s *PostService) list(ctx context.Context, q PostQuery, page int) (utils.Page[models.Post], error) {
	result := utils.Page[models.Post]{Items: []models.Post{}, Number: page, PerPage: s.perPage}
	if err := s.scope(ctx, q).Count(&result.Total).Error; err != nil {
		return result, errors.Wrap(err, "count posts")
	}
	err := s.ordered(s.scope(ctx, q), q).
		Offset(result.Offset()).
		Limit(s.perPage).
		Find(&result.Items).Error
	if err != nil {
		return result, errors.Wrap(err, "list posts")
	}
	return result, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
