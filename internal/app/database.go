package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/pulse-leaderboard/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const (
	dbPingTimeout   = 5 * time.Second
	dbConnIdleLimit = 5 * time.Minute

	// spans carry the statement text; long batch inserts are cut here
	maxSpanStatementLen = 512

	preparedBinaryParam = "disable_prepared_binary_result"
)

// DatabaseURL is the DSN shared by the repositories and `pulse migrate`.
func DatabaseURL(cfg config.Config) string {
	dsn := strings.TrimSpace(cfg.DBURL)
	if cfg.DBDisablePreparedBinary {
		dsn = withPreparedBinaryDisabled(dsn)
	}
	return dsn
}

// withPreparedBinaryDisabled sets the lib/pq flag needed behind poolers
// running in transaction mode. An explicit value in the DSN wins.
func withPreparedBinaryDisabled(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" {
		return dsn
	}

	q := u.Query()
	if q.Has(preparedBinaryParam) {
		return dsn
	}
	q.Set(preparedBinaryParam, "yes")
	u.RawQuery = q.Encode()
	return u.String()
}

// databaseName understands both URL and key=value DSNs.
func databaseName(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return strings.Trim(u.Path, "/ ")
	}

	for _, field := range strings.Fields(dsn) {
		if name, ok := strings.CutPrefix(field, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

func spanStatement(query string) string {
	compact := strings.Join(strings.Fields(query), " ")
	if len(compact) > maxSpanStatementLen {
		return compact[:maxSpanStatementLen] + "..."
	}
	return compact
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	db, err := otelsqlx.Open("postgres", DatabaseURL(cfg),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(databaseName(cfg.DBURL)),
		otelsql.WithQueryFormatter(spanStatement),
	)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(max(1, cfg.DBMaxOpenConns/2))
	db.SetConnMaxIdleTime(dbConnIdleLimit)

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
