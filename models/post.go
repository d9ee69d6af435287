package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/miniblog/search"
)

// nonWord matches runs of anything that is not a letter, digit or underscore, in any script.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// Post is a blog entry. Drafts have Published set to false.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title" validate:"required"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Content   string    `gorm:"type:text;not null" json:"content" validate:"required"`
	Published bool      `gorm:"not null;index" json:"published"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
}

// Slugify lowercases title and collapses every run of non-word characters into a single
// dash, trimming dashes from both ends.
func Slugify(title string) string {
	return strings.Trim(nonWord.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// IndexedText is what the full-text index stores for the post.
func (p *Post) IndexedText() string {
	return p.Title + "\n" + p.Content
}

// BeforeSave assigns the slug on first save only; later title edits keep the first URL.
// Timestamps are kept in UTC; listings sort on the stored text.
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = time.Now()
	}
	p.Timestamp = p.Timestamp.UTC()
	return nil
}

// AfterSave runs inside the save transaction, so a failing index write rolls back the post.
func (p *Post) AfterSave(tx *gorm.DB) error {
	return p.UpdateSearchIndex(tx)
}

// UpdateSearchIndex writes title and content into the full-text index entry for the post,
// creating the entry on first use.
func (p *Post) UpdateSearchIndex(tx *gorm.DB) error {
	idx, err := search.For(tx.Dialector.Name())
	if err != nil {
		return err
	}
	return idx.Sync(tx.Session(&gorm.Session{NewDB: true}), p.ID, p.IndexedText())
}
