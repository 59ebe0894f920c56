package data

import "fmt"

type QueryParams struct {
	Query               string
	Page                int
	PageLimit           int
	SortBy              SortField
	SortOrder           SortOrder
	Filters             map[FilterKey]interface{}
	ForUpdateSkipLocked bool
}

type SortOrder string

const (
	SortOrderASC  SortOrder = "ASC"
	SortOrderDESC SortOrder = "DESC"
)

type SortField string

const (
	SortFieldStatus    SortField = "status"
	SortFieldPriority  SortField = "priority"
	SortFieldCreatedAt SortField = "created_at"
	SortFieldUpdatedAt SortField = "updated_at"
)

type FilterKey string

const (
	FilterKeyStatus          FilterKey = "status"
	FilterKeySellerID        FilterKey = "seller_id"
	FilterKeyPaymentID       FilterKey = "payment_id"
	FilterKeyGroupID         FilterKey = "group_id"
	FilterKeyCreatedAtAfter  FilterKey = "created_at_after"
	FilterKeyCreatedAtBefore FilterKey = "created_at_before"
	FilterKeyAttempts        FilterKey = "attempts"
)

func (fk FilterKey) Equals() string {
	return fmt.Sprintf("%s = ?", fk)
}

func (fk FilterKey) LowerThan() string {
	return fmt.Sprintf("%s < ?", fk)
}

// IsNull returns `{filterKey} IS NULL`.
func IsNull(filterKey FilterKey) FilterKey {
	return FilterKey(fmt.Sprintf("%s IS NULL", filterKey))
}

// LowerThan returns `{filterKey} < ?`.
func LowerThan(filterKey FilterKey) FilterKey {
	return FilterKey(fmt.Sprintf("%s < ?", filterKey))
}
