// Package source opens connections to the database being assessed. Each
// engine is described by a dialect: its database/sql driver, its placeholder
// style and how its data source name is built.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"               // postgres driver
	_ "github.com/microsoft/go-mssqldb" // sqlserver driver
	goora "github.com/sijms/go-ora/v2"

	"github.com/txn2/dma-readiness/pkg/engine"
	"github.com/txn2/dma-readiness/pkg/query"
)

// DefaultConnectTimeout bounds the initial ping when Config leaves it unset.
const DefaultConnectTimeout = 15 * time.Second

// ErrMissingHost is returned when no host is configured.
var ErrMissingHost = errors.New("source host is required")

// Config describes how to reach a source database.
type Config struct {
	Engine         engine.Type
	Host           string
	Port           int
	Username       string
	Password       string //nolint:gosec // connection credential, never logged
	Database       string
	Options        map[string]string
	ConnectTimeout time.Duration
}

// Addr returns host:port, using the engine default port when Port is zero.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = c.Engine.DefaultPort()
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

type dialect struct {
	driver string
	format sq.PlaceholderFormat
	dsn    func(Config) string
}

// dialects is the engine to driver table.
var dialects = map[engine.Type]dialect{
	engine.Postgres:  {driver: "postgres", format: sq.Dollar, dsn: postgresDSN},
	engine.MySQL:     {driver: "mysql", format: sq.Question, dsn: mysqlDSN},
	engine.Oracle:    {driver: "oracle", format: sq.Colon, dsn: oracleDSN},
	engine.SQLServer: {driver: "sqlserver", format: sq.AtP, dsn: sqlserverDSN},
}

func lookup(e engine.Type) (dialect, error) {
	d, ok := dialects[e]
	if !ok {
		return dialect{}, fmt.Errorf("%w: %q", engine.ErrUnknownEngine, e)
	}
	return d, nil
}

// DSN returns the driver name and data source name for cfg.
func DSN(cfg Config) (driver, dsn string, err error) {
	d, err := lookup(cfg.Engine)
	if err != nil {
		return "", "", err
	}
	if cfg.Host == "" {
		return "", "", ErrMissingHost
	}
	return d.driver, d.dsn(cfg), nil
}

// PlaceholderFormat returns the placeholder dialect of the engine's driver.
func PlaceholderFormat(e engine.Type) (sq.PlaceholderFormat, error) {
	d, err := lookup(e)
	if err != nil {
		return nil, err
	}
	return d.format, nil
}

// Open connects to the source and verifies the connection with a ping
// bounded by the connect timeout.
func Open(ctx context.Context, cfg Config) (*query.SQLConnection, error) {
	driver, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	format, _ := PlaceholderFormat(cfg.Engine)

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", cfg.Engine, err)
	}
	// Collection is sequential; one connection keeps session state stable.
	db.SetMaxOpenConns(1)

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to %s at %s: %w", cfg.Engine, cfg.Addr(), err)
	}
	return query.NewSQLConnection(db, format), nil
}

func postgresDSN(cfg Config) string {
	q := url.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     userInfo(cfg),
		Host:     cfg.Addr(),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func mysqlDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if len(cfg.Options) > 0 {
		mc.Params = make(map[string]string, len(cfg.Options))
		for k, v := range cfg.Options {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}

func oracleDSN(cfg Config) string {
	port := cfg.Port
	if port == 0 {
		port = cfg.Engine.DefaultPort()
	}
	return goora.BuildUrl(cfg.Host, port, cfg.Database, cfg.Username, cfg.Password, cfg.Options)
}

func sqlserverDSN(cfg Config) string {
	q := url.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     userInfo(cfg),
		Host:     cfg.Addr(),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func userInfo(cfg Config) *url.Userinfo {
	if cfg.Username == "" {
		return nil
	}
	if cfg.Password == "" {
		return url.User(cfg.Username)
	}
	return url.UserPassword(cfg.Username, cfg.Password)
}
