package database

import (
	"fmt"
	"strings"
)

// ConstructDatabaseURL combines DATABASE_URL and DATABASE_NAME into a single
// connection string. sslmode=disable is appended when no sslmode is given.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	baseURL = strings.TrimRight(baseURL, "/")
	var databaseURL string

	if strings.Contains(baseURL, "?") {
		// Insert database name before the query parameters
		parts := strings.SplitN(baseURL, "?", 2)
		databaseURL = fmt.Sprintf("%s/%s?%s", strings.TrimRight(parts[0], "/"), databaseName, parts[1])
	} else {
		databaseURL = fmt.Sprintf("%s/%s", baseURL, databaseName)
	}

	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "&"
		if !strings.Contains(databaseURL, "?") {
			separator = "?"
		}
		databaseURL = fmt.Sprintf("%s%ssslmode=disable", databaseURL, separator)
	}

	return databaseURL
}

// hasParam reports whether a URL or key=value connection string sets key
func hasParam(connString, key string) bool {
	for _, sep := range []string{"?", "&", " "} {
		if strings.Contains(connString, sep+key+"=") {
			return true
		}
	}
	return strings.HasPrefix(connString, key+"=")
}
