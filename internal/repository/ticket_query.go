package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures list scoping, filters, search and ordering.
type TicketFilter struct {
	OwnerID    *int64
	AssigneeID *int64
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Category   *domain.TicketCategory
	Search     string
	Ordering   Ordering
	Limit      int
	Offset     int
}

// Ordering is a validated sort key.
type Ordering struct {
	Field string
	Desc  bool
}

// DefaultOrdering lists newest tickets first.
var DefaultOrdering = Ordering{Field: "created_at", Desc: true}

var orderingFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"priority":   {},
	"status":     {},
}

// ParseOrdering accepts created_at, updated_at, priority or status with an
// optional "-" prefix. Anything else yields DefaultOrdering.
func ParseOrdering(raw string) Ordering {
	raw = strings.TrimSpace(raw)
	desc := strings.HasPrefix(raw, "-")
	field := strings.TrimPrefix(raw, "-")
	if _, ok := orderingFields[field]; !ok {
		return DefaultOrdering
	}
	return Ordering{Field: field, Desc: desc}
}

func (o Ordering) String() string {
	if o.Desc {
		return "-" + o.Field
	}
	return o.Field
}

// SearchTerms splits a free-text query on whitespace.
func SearchTerms(search string) []string {
	return strings.Fields(search)
}

// buildTicketWhere renders the WHERE clause for filter with positional args.
func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("t.user_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("t.assigned_to_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, string(*filter.Priority))
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	for _, term := range SearchTerms(filter.Search) {
		args = append(args, "%"+escapeLike(term)+"%")
		clauses = append(clauses, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", len(args), len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

// orderClause renders ORDER BY for o. Priority and status sort by rank, not spelling.
func orderClause(o Ordering) string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	var expr string
	switch o.Field {
	case "updated_at":
		expr = "t.updated_at"
	case "priority":
		expr = rankCase("t.priority", toStrings(domain.TicketPriorities()))
	case "status":
		expr = rankCase("t.status", toStrings(domain.TicketStatuses()))
	default:
		expr = "t.created_at"
	}
	return fmt.Sprintf("%s %s, t.id %s", expr, dir, dir)
}

func rankCase(column string, values []string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(values))
	return b.String()
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
