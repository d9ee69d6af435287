// Package search keeps a full-text index of post titles and bodies next to the posts
// table and builds the match and ranking clauses used to query it.
package search

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TableName is the index table for every dialect.
const TableName = "fts_posts"

// ErrUnsupportedDialect is returned by For for databases without a full-text backend.
var ErrUnsupportedDialect = errors.New("search: unsupported dialect")

// Index is a dialect specific full-text index over posts.
type Index interface {
	// Migrate creates the index table when it does not exist.
	Migrate(db *gorm.DB) error
	// Sync stores text as the entry for postID, inserting or updating in place.
	Sync(db *gorm.DB, postID uint, text string) error
	// Expression turns normalised terms into the dialect's match syntax.
	// An empty result means nothing can match.
	Expression(terms []string) string
	// Match joins the index onto a posts query and keeps only rows matching expr.
	Match(db *gorm.DB, expr string) *gorm.DB
	// Score is the relevance of a matched row; higher is better.
	Score(expr string) clause.Expr
}

// For returns the index implementation for a gorm dialector name.
func For(dialect string) (Index, error) {
	switch dialect {
	case "sqlite":
		return sqliteIndex{}, nil
	case "mysql":
		return mysqlIndex{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialect)
	}
}

// Terms splits a raw query on whitespace and drops empty tokens.
func Terms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(query) {
		if word = strings.TrimSpace(word); word != "" {
			terms = append(terms, word)
		}
	}
	return terms
}

// indexable reports whether term has a rune the tokenizer keeps. Terms made only of
// punctuation tokenize to nothing and would otherwise match no rows.
func indexable(term string) bool {
	return strings.IndexFunc(term, func(r rune) bool {
		return r >= utf8.RuneSelf || unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func syncEntry(db *gorm.DB, keyColumn string, postID uint, text string) error {
	var n int64
	if err := db.Table(TableName).Where(keyColumn+" = ?", postID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return db.Exec("INSERT INTO "+TableName+" ("+keyColumn+", content) VALUES (?, ?)", postID, text).Error
	}
	return db.Exec("UPDATE "+TableName+" SET content = ? WHERE "+keyColumn+" = ?", text, postID).Error
}
