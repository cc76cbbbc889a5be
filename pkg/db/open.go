package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	obslogger "github.com/smallbiznis/prizewheel/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenOptions controls instrumentation and pooling of a gorm handle.
type OpenOptions struct {
	Name     string
	Pool     PoolConfig
	LogLevel gormlogger.LogLevel
}

// Open opens dialector with the zap GORM logger and OpenTelemetry spans.
func Open(dialector gorm.Dialector, opts OpenOptions) (*gorm.DB, error) {
	logCfg := obslogger.DefaultGormLoggerConfig()
	if opts.LogLevel != 0 {
		logCfg.Level = opts.LogLevel
	}
	logCfg.Database = opts.Name

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:         obslogger.NewGormLogger(logCfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(opts.Name),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return nil, fmt.Errorf("register tracing plugin: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if opts.Pool.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(opts.Pool.MaxIdleConn)
	}
	if opts.Pool.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(opts.Pool.MaxOpenConn)
	}
	if opts.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.Pool.ConnMaxLifetime)
	}
	if opts.Pool.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(opts.Pool.ConnMaxIdleTime)
	}

	return conn, nil
}

// TenantOpener opens pooled handles to per-tenant Postgres databases.
type TenantOpener struct {
	pool     PoolConfig
	logLevel gormlogger.LogLevel
}

func NewTenantOpener(pool PoolConfig, logLevel gormlogger.LogLevel) *TenantOpener {
	return &TenantOpener{pool: pool, logLevel: logLevel}
}

// Open connects to dsn and verifies the connection before returning.
func (o *TenantOpener) Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	conn, err := Open(postgres.Open(dsn), OpenOptions{
		Name:     DatabaseNameFromURL(dsn),
		Pool:     o.pool,
		LogLevel: o.logLevel,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping tenant database: %w", err)
	}
	return conn, nil
}

// DatabaseNameFromURL returns the path component of a postgres URL.
func DatabaseNameFromURL(dsn string) string {
	u, err := url.Parse(strings.TrimSpace(dsn))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
