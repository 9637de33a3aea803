package models

// Common constants
const (
	// DefaultPageLimit is used when a list call does not name a limit
	DefaultPageLimit = 30

	// MaxPageLimit caps the number of rows a single list call returns
	MaxPageLimit = 100
)

// Page is the limit/offset window of a list call
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Pagination is the metadata returned alongside a list
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}
