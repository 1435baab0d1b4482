package database

import (
	"strconv"
	"strings"
)

// rebind rewrites ? placeholders to $1..$N for postgres. Queries are written
// once in sqlite form; the store adapts them to the active engine.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
