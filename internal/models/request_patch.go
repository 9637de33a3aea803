package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Base fields any request variant may update
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldDueDate     = "due_date"
)

// Fields that are never writable through a patch
var immutableFields = map[string]bool{
	"id":         true,
	"user_id":    true,
	"created_at": true,
	"updated_at": true,
}

// RequestPatch is a partial update of a request and its extension
type RequestPatch struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool

	// Type is set when the body names a type; only the current type is accepted
	Type *RequestType

	Coordinates map[string]float64
}

// ParseRequestPatch decodes a JSON object into a patch.
// Identity, ownership and timestamp fields are rejected, as are unknown keys.
func ParseRequestPatch(body []byte) (*RequestPatch, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("request body is required")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("request body must be a JSON object: %w", err)
	}

	patch := &RequestPatch{Coordinates: map[string]float64{}}
	for _, key := range sortedKeys(raw) {
		value := raw[key]
		switch {
		case immutableFields[key]:
			return nil, fmt.Errorf("field %s cannot be updated", key)

		case key == FieldTitle:
			var title string
			if err := json.Unmarshal(value, &title); err != nil {
				return nil, fmt.Errorf("title must be a string")
			}
			if err := validateTitle(title); err != nil {
				return nil, err
			}
			patch.Title = &title

		case key == FieldDescription:
			var description *string
			if err := json.Unmarshal(value, &description); err != nil {
				return nil, fmt.Errorf("description must be a string")
			}
			if description == nil {
				empty := ""
				description = &empty
			}
			if err := validateDescription(*description); err != nil {
				return nil, err
			}
			patch.Description = description

		case key == FieldDueDate:
			var dueDate *time.Time
			if err := json.Unmarshal(value, &dueDate); err != nil {
				return nil, fmt.Errorf("due_date must be an RFC 3339 timestamp or null")
			}
			if dueDate == nil {
				patch.ClearDueDate = true
			} else {
				patch.DueDate = NormalizeTime(dueDate)
			}

		case key == "type" || key == "request_type":
			var tag string
			if err := json.Unmarshal(value, &tag); err != nil {
				return nil, fmt.Errorf("%s must be a string", key)
			}
			t, err := ParseRequestType(tag)
			if err != nil {
				return nil, err
			}
			if patch.Type != nil && *patch.Type != t {
				return nil, fmt.Errorf("type and request_type disagree")
			}
			patch.Type = &t

		case isCoordinateField(key):
			var coord *float64
			if err := json.Unmarshal(value, &coord); err != nil || coord == nil {
				return nil, fmt.Errorf("%s must be a number", key)
			}
			if err := ValidateCoordinate(key, *coord); err != nil {
				return nil, err
			}
			patch.Coordinates[key] = *coord

		default:
			return nil, fmt.Errorf("unknown field: %s", key)
		}
	}

	if patch.IsEmpty() && patch.Type == nil {
		return nil, fmt.Errorf("no fields to update")
	}
	return patch, nil
}

// IsEmpty reports whether the patch writes nothing
func (p *RequestPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDueDate && len(p.Coordinates) == 0
}

// Fields returns the names of the fields the patch writes
func (p *RequestPatch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, FieldTitle)
	}
	if p.Description != nil {
		fields = append(fields, FieldDescription)
	}
	if p.DueDate != nil || p.ClearDueDate {
		fields = append(fields, FieldDueDate)
	}
	coords := make([]string, 0, len(p.Coordinates))
	for field := range p.Coordinates {
		coords = append(coords, field)
	}
	sort.Strings(coords)
	return append(fields, coords...)
}

// MutableFields is the allow-list of writable fields for a request type
func MutableFields(t RequestType) ([]string, error) {
	ext, err := ExtensionFields(t)
	if err != nil {
		return nil, err
	}
	return append([]string{FieldTitle, FieldDescription, FieldDueDate}, ext...), nil
}

// ValidateFor checks the patch against the allow-list of the stored type
func (p *RequestPatch) ValidateFor(t RequestType) error {
	if p == nil {
		return fmt.Errorf("patch cannot be nil")
	}
	if p.Type != nil && *p.Type != t {
		return fmt.Errorf("request type cannot be changed from %s to %s", t, *p.Type)
	}

	allowed, err := MutableFields(t)
	if err != nil {
		return err
	}
	allowSet := make(map[string]bool, len(allowed))
	for _, field := range allowed {
		allowSet[field] = true
	}
	for _, field := range p.Fields() {
		if !allowSet[field] {
			return fmt.Errorf("field %s is not valid for %s requests", field, t)
		}
	}

	// Patches built in code skip ParseRequestPatch, so values are checked here too
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := validateDescription(*p.Description); err != nil {
			return err
		}
	}
	for _, field := range p.Fields() {
		if value, ok := p.Coordinates[field]; ok {
			if err := ValidateCoordinate(field, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyTo writes the base fields of the patch onto req and bumps UpdatedAt
func (p *RequestPatch) ApplyTo(req *Request) {
	if p.Title != nil {
		req.Title = *p.Title
	}
	if p.Description != nil {
		req.Description = *p.Description
	}
	if p.ClearDueDate {
		req.DueDate = nil
	} else if p.DueDate != nil {
		req.DueDate = NormalizeTime(p.DueDate)
	}
	req.Touch()
}

// ApplyToExtension writes the geo-fields of the patch onto ext
func (p *RequestPatch) ApplyToExtension(ext Extension) error {
	return SetCoordinates(ext, p.Coordinates)
}

func isCoordinateField(key string) bool {
	switch key {
	case FieldPickupLatitude, FieldPickupLongitude,
		FieldDropoffLatitude, FieldDropoffLongitude,
		FieldMeetupLatitude, FieldMeetupLongitude:
		return true
	default:
		return false
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
