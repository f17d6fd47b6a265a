package dbtool

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// NewMySQLBackend connects to a project's mysql database with the given
// credentials.
func NewMySQLBackend(creds Credentials) (Backend, error) {
	host := creds.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := creds.Port
	if port == "" {
		port = "3306"
	}
	if creds.Database == "" {
		return nil, fmt.Errorf("dbtool: mysql database name is required")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=false",
		creds.Username, creds.Password, host, port, creds.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("dbtool: open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dbtool: connect mysql %s/%s: %w", host, creds.Database, err)
	}

	return &sqlBackend{
		db:         db,
		quote:      quoteBacktick,
		listTables: "SHOW TABLES",
	}, nil
}

func quoteBacktick(ident string) string {
	return "`" + ident + "`"
}
