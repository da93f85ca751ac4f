package gmail

import "strings"

// OrSeparator joins sender clauses in a combined query.
const OrSeparator = " OR "

// FromQuery matches mail sent by an address or domain.
func FromQuery(value string) Query {
	return Query{Raw: "from: " + strings.TrimSpace(value)}
}

// JoinOr combines queries so a message matching any of them matches the
// result. Empty queries are dropped.
func JoinOr(queries ...Query) Query {
	parts := make([]string, 0, len(queries))
	for _, q := range queries {
		if q.Empty() {
			continue
		}
		parts = append(parts, q.Raw)
	}
	return Query{Raw: strings.Join(parts, OrSeparator)}
}
