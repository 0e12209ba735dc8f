package db

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqliteDriver = "sqlite3_bboard"

// SQLiteLower is a LOWER that folds every script, not only ASCII. It's
// available on each connection opened through SQLite.
const SQLiteLower = "unicode_lower"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(SQLiteLower, strings.ToLower, true)
		},
	})
}

// SQLite returns a dialector for dsn whose connections know SQLiteLower
func SQLite(dsn string) gorm.Dialector {
	return sqlite.New(sqlite.Config{
		DriverName: sqliteDriver,
		DSN:        dsn,
	})
}
