package judge

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteDriverName = "sqlite3"

func connectDB(connectionString string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(sqliteDriverName, connectionString)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
