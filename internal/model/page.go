package model

// Page is one slice of a paginated listing.
//
// Total is the size of the whole table, NOT the number of rows matching the
// search query. Clients that need a filtered count must page until Data is
// short.
type Page[T any] struct {
	Data     []T `json:"data"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// Ptr returns a pointer to v. Handy for optional fields in payloads.
func Ptr[T any](v T) *T {
	return &v
}
