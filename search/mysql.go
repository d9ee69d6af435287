package search

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// booleanOperators are stripped from terms so user input cannot change the query shape.
const booleanOperators = `+-<>()~*"@`

// mysqlIndex is an InnoDB table with a FULLTEXT key on content.
type mysqlIndex struct{}

func (mysqlIndex) Migrate(db *gorm.DB) error {
	return db.Exec("CREATE TABLE IF NOT EXISTS " + TableName + ` (
		post_id BIGINT UNSIGNED NOT NULL PRIMARY KEY,
		content LONGTEXT NOT NULL,
		FULLTEXT KEY ft_posts_content (content)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`).Error
}

func (mysqlIndex) Sync(db *gorm.DB, postID uint, text string) error {
	return syncEntry(db, "post_id", postID, text)
}

// Expression requires every term, mirroring the implicit AND of the sqlite index.
func (mysqlIndex) Expression(terms []string) string {
	required := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.Map(func(r rune) rune {
			if strings.ContainsRune(booleanOperators, r) {
				return -1
			}
			return r
		}, t)
		if !indexable(t) {
			continue
		}
		required = append(required, "+"+t)
	}
	return strings.Join(required, " ")
}

func (mysqlIndex) Match(db *gorm.DB, expr string) *gorm.DB {
	return db.Joins("JOIN "+TableName+" ON "+TableName+".post_id = posts.id").
		Where("MATCH("+TableName+".content) AGAINST (? IN BOOLEAN MODE)", expr)
}

func (mysqlIndex) Score(expr string) clause.Expr {
	return gorm.Expr("MATCH("+TableName+".content) AGAINST (? IN BOOLEAN MODE)", expr)
}
