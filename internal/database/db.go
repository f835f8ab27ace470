package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/xo/dburl"

	"github.com/iliyamo/cms-backend/internal/config"
)

// DSN builds a go-sql-driver DSN from c. DATABASE_URL wins over the discrete
// DB_* fields. parseTime=true maps DATETIME to time.Time and loc=UTC keeps
// times consistent across hosts. clientFoundRows makes RowsAffected count
// matched rows, so an UPDATE that leaves a row unchanged still reports it.
func DSN(c config.Database) (string, error) {
	var mc *mysql.Config
	if c.URL != "" {
		u, err := dburl.Parse(c.URL)
		if err != nil {
			return "", fmt.Errorf("parse DATABASE_URL: %w", err)
		}
		if u.Driver != "mysql" {
			return "", fmt.Errorf("DATABASE_URL: unsupported driver %q", u.Driver)
		}
		mc, err = mysql.ParseDSN(u.DSN)
		if err != nil {
			return "", fmt.Errorf("DATABASE_URL: %w", err)
		}
	} else {
		if c.Host == "" || c.Name == "" {
			return "", errors.New("database host and name are required")
		}
		mc = mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Pass
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, c.Port)
		mc.DBName = c.Name
	}

	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	if c.ConnTimeout > 0 {
		mc.Timeout = c.ConnTimeout
	}
	if mc.Params == nil {
		mc.Params = map[string]string{}
	}
	if _, ok := mc.Params["charset"]; !ok {
		mc.Params["charset"] = "utf8mb4"
	}
	return mc.FormatDSN(), nil
}

// Connect prepares a pooled handle without touching the network. The
// server uses it so it can start while MySQL is still coming up.
func Connect(c config.Database) (*sql.DB, error) {
	dsn, err := DSN(c)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	maxOpen := c.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Open connects to MySQL and verifies the connection.
func Open(ctx context.Context, c config.Database) (*sql.DB, error) {
	db, err := Connect(c)
	if err != nil {
		return nil, err
	}

	// Ping with timeout
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// IsDuplicate reports whether err is a MySQL duplicate-key violation.
func IsDuplicate(err error) bool {
	return mysqlErrno(err) == 1062
}

// IsReferenced reports whether err is a MySQL foreign-key violation raised
// while deleting or updating a parent row that still has children.
func IsReferenced(err error) bool {
	return mysqlErrno(err) == 1451
}

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
