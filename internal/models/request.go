package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestType is the tag selecting which extension variant a request carries
type RequestType string

const (
	RequestTypeBuyAndDeliver    RequestType = "buy_and_deliver"
	RequestTypePickupAndDeliver RequestType = "pickup_and_deliver"
	RequestTypeOnlineService    RequestType = "online_service"
)

// RequestTypes returns every known request type in declaration order
func RequestTypes() []RequestType {
	return []RequestType{
		RequestTypeBuyAndDeliver,
		RequestTypePickupAndDeliver,
		RequestTypeOnlineService,
	}
}

// IsValid reports whether the type is one of the known variants
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeBuyAndDeliver, RequestTypePickupAndDeliver, RequestTypeOnlineService:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (t RequestType) String() string {
	return string(t)
}

// ParseRequestType converts a raw tag into a RequestType
func ParseRequestType(raw string) (RequestType, error) {
	t := RequestType(strings.TrimSpace(raw))
	if !t.IsValid() {
		return "", &UnknownTypeError{Type: raw}
	}
	return t, nil
}

// Request is the base entity shared by every request variant
type Request struct {
	ID          string      `json:"id" db:"id"`
	UserID      string      `json:"user_id" db:"user_id"`
	Type        RequestType `json:"type" db:"request_type"`
	Title       string      `json:"title" db:"title"`
	Description string      `json:"description" db:"description"`
	DueDate     *time.Time  `json:"due_date" db:"due_date"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// NewRequest creates a request with a generated ID and fresh timestamps
func NewRequest(userID string, requestType RequestType, title, description string, dueDate *time.Time) *Request {
	now := Now()
	return &Request{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        requestType,
		Title:       title,
		Description: description,
		DueDate:     NormalizeTime(dueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the base fields of the request
func (r *Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request ID is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return fmt.Errorf("user ID is required")
	}
	if !r.Type.IsValid() {
		return &UnknownTypeError{Type: string(r.Type)}
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// Touch refreshes the update timestamp
func (r *Request) Touch() {
	r.UpdatedAt = Now()
}

// IsOwnedBy reports whether userID owns the request
func (r *Request) IsOwnedBy(userID string) bool {
	return userID != "" && r.UserID == userID
}

// CompleteRequest is a request together with its loaded extension
type CompleteRequest struct {
	*Request
	Extension Extension
}

// Now returns the current time in the precision the stores keep
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NormalizeTime converts t to UTC at microsecond precision
func NormalizeTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := t.UTC().Truncate(time.Microsecond)
	return &n
}

var (
	// ErrUnknownType is matched by every UnknownTypeError
	ErrUnknownType = errors.New("unknown request type")

	// ErrExtensionMismatch is returned when a request's extension is missing or of another variant
	ErrExtensionMismatch = errors.New("request extension mismatch")
)

// UnknownTypeError is returned when a request type tag matches no known variant
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown request type: %q", e.Type)
}

// Is makes errors.Is(err, ErrUnknownType) hold
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}
