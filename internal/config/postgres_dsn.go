package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"
)

// PostgresDSN returns the connection URL for the configured database.
// User and password are escaped, so they may contain any character.
// A Host starting with "/" is a Unix-socket directory and travels as the host query parameter,
// which both pgx and lib/pq understand.
func (d DatabaseConfig) PostgresDSN() string {
	query := url.Values{"sslmode": []string{d.SSLMode}}

	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Path:   "/" + d.Name,
	}

	if strings.HasPrefix(d.Host, "/") {
		query.Set("host", d.Host)
		query.Set("port", strconv.Itoa(d.Port))
	} else {
		dsn.Host = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	}

	dsn.RawQuery = query.Encode()

	return dsn.String()
}
