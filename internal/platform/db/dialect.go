package db

import (
	"strconv"
	"strings"
)

// Dialect captures the few differences between the SQLite and Postgres schemas and queries.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

// Rebind rewrites '?' placeholders to Postgres' positional '$n' form.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(q string) string {
	if d != Postgres {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BoolType is the column type used for flags.
func (d Dialect) BoolType() string {
	if d == Postgres {
		return "BOOLEAN"
	}
	return "INTEGER"
}
