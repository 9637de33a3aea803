package models

import (
	"fmt"
	"time"
)

// CreateRequestInput is the validated payload for creating a request.
// Geo-fields that do not belong to Type are ignored.
type CreateRequestInput struct {
	Type        RequestType `json:"type" validate:"required,oneof=buy_and_deliver pickup_and_deliver online_service"`
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description" validate:"max=5000"`
	DueDate     *time.Time  `json:"due_date,omitempty"`

	PickupLatitude   *float64 `json:"pickup_latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	PickupLongitude  *float64 `json:"pickup_longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	DropoffLatitude  *float64 `json:"dropoff_latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	DropoffLongitude *float64 `json:"dropoff_longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
	MeetupLatitude   *float64 `json:"meetup_latitude,omitempty" validate:"omitempty,gte=-90,lte=90"`
	MeetupLongitude  *float64 `json:"meetup_longitude,omitempty" validate:"omitempty,gte=-180,lte=180"`
}

// Validate checks the struct tags and the geo-fields required by Type
func (in *CreateRequestInput) Validate() error {
	if in == nil {
		return fmt.Errorf("request input cannot be nil")
	}
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if err := validateTitle(in.Title); err != nil {
		return err
	}

	required, err := ExtensionFields(in.Type)
	if err != nil {
		return err
	}
	provided := in.providedCoordinates()
	for _, field := range required {
		if _, ok := provided[field]; !ok {
			return fmt.Errorf("%s is required for %s requests", field, in.Type)
		}
	}
	return nil
}

// NewRequest builds the base entity owned by userID
func (in *CreateRequestInput) NewRequest(userID string) *Request {
	return NewRequest(userID, in.Type, in.Title, in.Description, in.DueDate)
}

// NewExtension builds the extension matching Type for requestID
func (in *CreateRequestInput) NewExtension(requestID string) (Extension, error) {
	ext, err := NewExtension(in.Type, requestID)
	if err != nil {
		return nil, err
	}

	required, err := ExtensionFields(in.Type)
	if err != nil {
		return nil, err
	}
	provided := in.providedCoordinates()
	coords := make(map[string]float64, len(required))
	for _, field := range required {
		value, ok := provided[field]
		if !ok {
			return nil, fmt.Errorf("%s is required for %s requests", field, in.Type)
		}
		coords[field] = value
	}

	if err := SetCoordinates(ext, coords); err != nil {
		return nil, err
	}
	return ext, nil
}

func (in *CreateRequestInput) providedCoordinates() map[string]float64 {
	coords := make(map[string]float64, 6)
	set := func(field string, v *float64) {
		if v != nil {
			coords[field] = *v
		}
	}
	set(FieldPickupLatitude, in.PickupLatitude)
	set(FieldPickupLongitude, in.PickupLongitude)
	set(FieldDropoffLatitude, in.DropoffLatitude)
	set(FieldDropoffLongitude, in.DropoffLongitude)
	set(FieldMeetupLatitude, in.MeetupLatitude)
	set(FieldMeetupLongitude, in.MeetupLongitude)
	return coords
}
