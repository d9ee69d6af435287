package search

import (
	"database/sql"
	"encoding/binary"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLiteDriverName is a go-sqlite3 driver that registers rank() on every connection.
const SQLiteDriverName = "sqlite3_miniblog"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("rank", Rank, true)
		},
	})
}

// Rank scores a row from its FTS4 matchinfo(table, 'pcx') blob. For every phrase and
// column it adds the share of all matches of that phrase that fall in this row.
func Rank(matchinfo []byte) float64 {
	info := make([]uint32, len(matchinfo)/4)
	for i := range info {
		info[i] = binary.NativeEndian.Uint32(matchinfo[i*4:])
	}
	if len(info) < 2 {
		return 0
	}

	phrases, columns := int(info[0]), int(info[1])
	var score float64
	for p := 0; p < phrases; p++ {
		base := 2 + p*columns*3
		for c := 0; c < columns; c++ {
			i := base + c*3
			if i+1 >= len(info) {
				return score
			}
			hits, total := info[i], info[i+1]
			if hits > 0 && total > 0 {
				score += float64(hits) / float64(total)
			}
		}
	}
	return score
}

// sqliteIndex is an FTS4 virtual table keyed by docid = post id.
type sqliteIndex struct{}

func (sqliteIndex) Migrate(db *gorm.DB) error {
	return db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS " + TableName + " USING fts4(content)").Error
}

func (sqliteIndex) Sync(db *gorm.DB, postID uint, text string) error {
	return syncEntry(db, "docid", postID, text)
}

// Expression quotes every term as a phrase; FTS4 ANDs space separated phrases.
func (sqliteIndex) Expression(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(t, `"`, "")
		if !indexable(t) {
			continue
		}
		quoted = append(quoted, `"`+t+`"`)
	}
	return strings.Join(quoted, " ")
}

func (sqliteIndex) Match(db *gorm.DB, expr string) *gorm.DB {
	return db.Joins("JOIN "+TableName+" ON "+TableName+".docid = posts.id").
		Where(TableName+" MATCH ?", expr)
}

func (sqliteIndex) Score(string) clause.Expr {
	return gorm.Expr("rank(matchinfo(" + TableName + ", 'pcx'))")
}
