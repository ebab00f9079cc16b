package sqldb

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Params holds the parts of a connection from which a DSN is built.
type Params struct {
	Name     string
	Host     string
	Port     string
	User     string
	Password string
	SSLMode  string
}

// DefaultPort returns the conventional port for engine, or "" for file
// based engines.
func DefaultPort(engine string) string {
	switch engine {
	case "postgres":
		return "5432"
	case "mysql":
		return "3306"
	}
	return ""
}

// BuildDSN assembles a driver DSN for engine from t.
func BuildDSN(engine string, t Params) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("database name is required")
	}
	host := t.Host
	if host == "" {
		host = "localhost"
	}
	port := t.Port
	if port == "" {
		port = DefaultPort(engine)
	}

	switch engine {
	case "postgres":
		var userInfo *url.Userinfo
		switch {
		case t.User != "" && t.Password != "":
			userInfo = url.UserPassword(t.User, t.Password)
		case t.User != "":
			userInfo = url.User(t.User)
		}
		sslMode := t.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		u := &url.URL{
			Scheme:   "postgres",
			User:     userInfo,
			Host:     net.JoinHostPort(host, port),
			Path:     "/" + t.Name,
			RawQuery: "sslmode=" + url.QueryEscape(sslMode),
		}
		return u.String(), nil

	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = t.User
		cfg.Passwd = t.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(host, port)
		cfg.DBName = t.Name
		return cfg.FormatDSN(), nil

	case "sqlite", "duckdb":
		// File based: the database name is the path.
		return t.Name, nil
	}
	return "", fmt.Errorf("no driver for engine %q", engine)
}

// keywordPassword matches password=... in a keyword/value DSN
// (host=db user=mgr password=secret), quoted or not.
var keywordPassword = regexp.MustCompile(`(?i)(^|\s)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S*)`)

// SanitizeDSN masks the password in a DSN for display.
func SanitizeDSN(dsn string) string {
	if keywordPassword.MatchString(dsn) && !strings.Contains(dsn, "://") {
		return keywordPassword.ReplaceAllString(dsn, "${1}${2}****")
	}

	// Try parsing as URL (postgres style).
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			// Rebuild manually to avoid percent-encoding the mask.
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	// Try MySQL-style DSN: user:pass@tcp(host)/db
	if atIdx := strings.LastIndex(dsn, "@"); atIdx > 0 {
		userPass := dsn[:atIdx]
		if colonIdx := strings.Index(userPass, ":"); colonIdx >= 0 {
			return userPass[:colonIdx+1] + "****" + dsn[atIdx:]
		}
	}

	return dsn
}
