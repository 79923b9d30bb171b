package models

import "strings"

// SortField is a closed set of sortable listing fields. Each listing maps the
// fields it accepts to a column expression; nothing from the request reaches SQL.
type SortField int

const (
	SortNone SortField = iota
	SortName
	SortEmail
	SortAddress
	SortRole
	SortOverallRating
)

// ParseSortField maps a sortBy query value onto a SortField. An empty value
// defaults to name; an unknown one yields SortNone, which skips ordering.
func ParseSortField(s string) SortField {
	switch s {
	case "":
		return SortName
	case "name":
		return SortName
	case "email":
		return SortEmail
	case "address":
		return SortAddress
	case "role":
		return SortRole
	case "overall_rating":
		return SortOverallRating
	default:
		return SortNone
	}
}

type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Descending
	}
	return Ascending
}

func (o SortOrder) SQL() string {
	if o == Descending {
		return "DESC"
	}
	return "ASC"
}

type Sort struct {
	Field SortField
	Order SortOrder
}

func ParseSort(sortBy, order string) Sort {
	return Sort{Field: ParseSortField(sortBy), Order: ParseSortOrder(order)}
}
