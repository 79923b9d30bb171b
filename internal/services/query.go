package services

import (
	"strings"

	"store-rating/internal/models"
)

// sortColumns maps the sort fields a listing accepts onto fixed column
// expressions. Fields missing from the map are ignored.
type sortColumns map[models.SortField]string

var (
	userSortColumns = sortColumns{
		models.SortName:    "name",
		models.SortEmail:   "email",
		models.SortAddress: "address",
		models.SortRole:    "role",
	}
	adminStoreSortColumns = sortColumns{
		models.SortName:          "s.name",
		models.SortEmail:         "s.email",
		models.SortAddress:       "s.address",
		models.SortOverallRating: "overall_rating",
	}
	userStoreSortColumns = sortColumns{
		models.SortName:          "s.name",
		models.SortAddress:       "s.address",
		models.SortOverallRating: "overall_rating",
	}
)

// listQuery assembles a filtered listing. Caller input only ever travels in args.
type listQuery struct {
	base    string
	where   []string
	args    []interface{}
	groupBy string
}

func newListQuery(base string) *listQuery {
	return &listQuery{base: base}
}

// contains adds "column LIKE %value%" when value is non-empty.
func (q *listQuery) contains(column, value string) *listQuery {
	if value == "" {
		return q
	}
	q.where = append(q.where, column+" LIKE ?")
	q.args = append(q.args, likePattern(value))
	return q
}

// containsAny adds "(c1 LIKE %value% OR c2 LIKE %value% ...)" when value is non-empty.
func (q *listQuery) containsAny(value string, columns ...string) *listQuery {
	if value == "" || len(columns) == 0 {
		return q
	}
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " LIKE ?"
		q.args = append(q.args, likePattern(value))
	}
	q.where = append(q.where, "("+strings.Join(parts, " OR ")+")")
	return q
}

func (q *listQuery) equals(column, value string) *listQuery {
	if value == "" {
		return q
	}
	q.where = append(q.where, column+" = ?")
	q.args = append(q.args, value)
	return q
}

func (q *listQuery) group(by string) *listQuery {
	q.groupBy = by
	return q
}

func (q *listQuery) build(sort models.Sort, columns sortColumns) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(q.base)
	sb.WriteString(" WHERE 1=1")
	for _, w := range q.where {
		sb.WriteString(" AND ")
		sb.WriteString(w)
	}
	if q.groupBy != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(q.groupBy)
	}
	if col, ok := columns[sort.Field]; ok {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(col)
		sb.WriteString(" ")
		sb.WriteString(sort.Order.SQL())
	}
	return sb.String(), q.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring LIKE match, escaping its wildcards.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// nullable stores empty optional text as NULL.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
