package config

import (
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
)

// Connection describes how to reach the destination database. It is built
// from the opaque [connection] section.
type Connection struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
	Path     string

	// Params holds any remaining keys, passed through to the driver.
	Params map[string]string
}

var connectionKeys = map[string]bool{
	"driver": true, "url": true, "host": true, "port": true, "database": true,
	"user": true, "password": true, "sslmode": true, "path": true,
}

// Connection returns the connection parameters with environment variables
// expanded.
func (c *Config) Connection() (*Connection, error) {
	values, ok := c.Section(SectionConnection)
	if !ok {
		return nil, fmt.Errorf("%w: missing [%s] section", ErrConfig, SectionConnection)
	}
	for k, v := range values {
		values[k] = os.ExpandEnv(v)
	}

	conn := &Connection{
		Driver:   strings.ToLower(values["driver"]),
		URL:      values["url"],
		Host:     values["host"],
		Port:     values["port"],
		Database: values["database"],
		User:     values["user"],
		Password: values["password"],
		SSLMode:  values["sslmode"],
		Path:     values["path"],
		Params:   make(map[string]string),
	}
	for k, v := range values {
		if !connectionKeys[k] {
			conn.Params[k] = v
		}
	}
	if conn.Driver == "" {
		conn.Driver = "postgres"
	}
	if conn.Driver == "sqlite3" {
		conn.Driver = "sqlite"
	}
	if conn.Driver == "sqlite" && conn.Path != "" {
		conn.Path = c.resolvePath(conn.Path)
	}

	switch conn.Driver {
	case "postgres", "mysql":
		if conn.URL == "" && conn.Host == "" && conn.Database == "" {
			return nil, fmt.Errorf("%w: [%s] needs url or host/database for %s", ErrConfig, SectionConnection, conn.Driver)
		}
	case "sqlite":
		if conn.Path == "" && conn.URL == "" {
			return nil, fmt.Errorf("%w: [%s] needs path for sqlite", ErrConfig, SectionConnection)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ErrConfig, conn.Driver)
	}
	return conn, nil
}

// PostgresConnString renders a libpq key/value connection string understood
// by pgx.ParseConfig. A url key wins over individual keys.
func (c *Connection) PostgresConnString() string {
	if c.URL != "" {
		return c.URL
	}

	pairs := map[string]string{
		"host":     c.Host,
		"port":     c.Port,
		"dbname":   c.Database,
		"user":     c.User,
		"password": c.Password,
		"sslmode":  c.SSLMode,
	}
	for k, v := range c.Params {
		pairs[k] = v
	}

	keys := make([]string, 0, len(pairs))
	for k, v := range pairs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+quoteConnValue(pairs[k]))
	}
	return strings.Join(parts, " ")
}

// Address joins host and port for TCP drivers.
func (c *Connection) Address(defaultPort string) string {
	port := c.Port
	if port == "" {
		port = defaultPort
	}
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}
