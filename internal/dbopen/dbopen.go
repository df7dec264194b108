// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package dbopen builds connection descriptors for the meta store and the
// cache from environment variables, so every process wires the same two
// backends the same way.
package dbopen

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

var ErrDatabaseNotConfigured = errors.New("database connection configuration is unavailable")

// GetDatabaseURLFromEnv constructs a PostgreSQL URL from environment
// variables named PREFIX_HOST, PREFIX_PORT, PREFIX_USER, PREFIX_PASSWORD,
// PREFIX_DBNAME, and optionally PREFIX_SSLMODE. If PREFIX_URL is set it is
// returned directly. HOST and DBNAME are required; PORT defaults to 5432.
func GetDatabaseURLFromEnv(prefix string) (string, error) {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	if urlStr := os.Getenv(prefix + "URL"); urlStr != "" {
		return urlStr, nil
	}

	host := os.Getenv(prefix + "HOST")
	dbname := os.Getenv(prefix + "DBNAME")

	var missing []string
	if host == "" {
		missing = append(missing, prefix+"HOST")
	}
	if dbname == "" {
		missing = append(missing, prefix+"DBNAME")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variable(s): %s",
			strings.Join(missing, ", "))
	}

	port := os.Getenv(prefix + "PORT")
	if port == "" {
		port = "5432"
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   host + ":" + port,
		Path:   dbname,
	}

	user := os.Getenv(prefix + "USER")
	pass := os.Getenv(prefix + "PASSWORD")
	if user != "" {
		if pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}

	q := u.Query()
	if sslmode := os.Getenv(prefix + "SSLMODE"); sslmode != "" {
		q.Set("sslmode", sslmode)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// RedisSettings is the connection descriptor for the remote cache backend.
type RedisSettings struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// GetRedisSettingsFromEnv reads PREFIX_HOST, PREFIX_PORT, PREFIX_USER,
// PREFIX_PASSWORD, and PREFIX_DB. Returns ErrDatabaseNotConfigured when no
// host is set, which callers treat as "use the in-memory fallback".
func GetRedisSettingsFromEnv(prefix string) (RedisSettings, error) {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	host := os.Getenv(prefix + "HOST")
	if host == "" {
		return RedisSettings{}, fmt.Errorf("%w: %sHOST not set", ErrDatabaseNotConfigured, prefix)
	}

	port := os.Getenv(prefix + "PORT")
	if port == "" {
		port = "6379"
	}

	db := 0
	if v := os.Getenv(prefix + "DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return RedisSettings{}, fmt.Errorf("invalid %sDB value %q: %w", prefix, v, err)
		}
		db = n
	}

	return RedisSettings{
		Addr:     host + ":" + port,
		Username: os.Getenv(prefix + "USER"),
		Password: os.Getenv(prefix + "PASSWORD"),
		DB:       db,
	}, nil
}

// Options adjusts how a connection is opened.
type Options struct {
	SkipMigrationCheck bool
	WarnOnMismatch     bool
}

// SkipMigrationCheck opens the connection without verifying the migration
// version. For tooling that must reach a database mid-migration.
func SkipMigrationCheck() Options {
	return Options{SkipMigrationCheck: true}
}

// WarnOnMigrationMismatch logs version mismatches and continues instead of
// failing. Admin-friendly mode.
func WarnOnMigrationMismatch() Options {
	return Options{WarnOnMismatch: true}
}
