package repository

import (
	"strings"

	"github.com/google/uuid"
)

// likeEscaper escapes LIKE wildcards; queries declare ESCAPE '\'
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a lower-cased substring LIKE pattern
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// orContains builds "(LOWER(col) LIKE ? ESCAPE '\' OR ...)" over every
// column and term pair
func orContains(columns []string, terms []string) (string, []interface{}) {
	clauses := make([]string, 0, len(columns)*len(terms))
	args := make([]interface{}, 0, len(columns)*len(terms))
	for _, term := range terms {
		if strings.TrimSpace(term) == "" {
			continue
		}
		p := containsPattern(term)
		for _, col := range columns {
			clauses = append(clauses, col+` LIKE ? ESCAPE '\'`)
			args = append(args, p)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "(" + strings.Join(clauses, " OR ") + ")", args
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func defaultLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
