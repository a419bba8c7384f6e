package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Open connects to MySQL using discrete connection parameters.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	c := mysql.NewConfig()
	c.User = user
	c.Passwd = pass
	c.Net = "tcp"
	c.Addr = fmt.Sprintf("%s:%s", host, port)
	c.DBName = name
	return open(c)
}

// OpenURL connects using a go-sql-driver DSN such as
// "user:pass@tcp(host:3306)/jrdriving".  A leading "mysql://" is accepted.
func OpenURL(dsn string) (*sql.DB, error) {
	c, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	return open(c)
}

// ParseDSN parses dsn and forces the options the repositories rely on.
func ParseDSN(dsn string) (*mysql.Config, error) {
	if len(dsn) > 8 && dsn[:8] == "mysql://" {
		dsn = dsn[8:]
	}
	c, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	return c, nil
}

func open(c *mysql.Config) (*sql.DB, error) {
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	c.ParseTime = true
	c.Loc = time.UTC
	if c.Params == nil {
		c.Params = map[string]string{}
	}
	c.Params["charset"] = "utf8mb4"

	db, err := sql.Open("mysql", c.FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
