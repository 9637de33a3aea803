package models

import (
	"fmt"
)

// Geo-field names shared by the extension variants
const (
	FieldPickupLatitude   = "pickup_latitude"
	FieldPickupLongitude  = "pickup_longitude"
	FieldDropoffLatitude  = "dropoff_latitude"
	FieldDropoffLongitude = "dropoff_longitude"
	FieldMeetupLatitude   = "meetup_latitude"
	FieldMeetupLongitude  = "meetup_longitude"
)

// Extension is the type-specific payload bound 1:1 to a request.
// Only the three variants in this package implement it.
type Extension interface {
	// RequestType returns the tag this extension belongs to
	RequestType() RequestType

	// Key returns the owning request ID
	Key() string

	// Coordinates returns the geo-fields keyed by column name
	Coordinates() map[string]float64

	setKey(id string)
	setCoordinate(field string, value float64) bool
}

// BuyAndDeliverRequest carries the drop-off point of a buy-and-deliver request
type BuyAndDeliverRequest struct {
	RequestID        string  `json:"request_id" db:"request_id"`
	DropoffLatitude  float64 `json:"dropoff_latitude" db:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude" db:"dropoff_longitude"`
}

func (e *BuyAndDeliverRequest) RequestType() RequestType { return RequestTypeBuyAndDeliver }
func (e *BuyAndDeliverRequest) Key() string              { return e.RequestID }
func (e *BuyAndDeliverRequest) setKey(id string)         { e.RequestID = id }

func (e *BuyAndDeliverRequest) Coordinates() map[string]float64 {
	return map[string]float64{
		FieldDropoffLatitude:  e.DropoffLatitude,
		FieldDropoffLongitude: e.DropoffLongitude,
	}
}

func (e *BuyAndDeliverRequest) setCoordinate(field string, value float64) bool {
	switch field {
	case FieldDropoffLatitude:
		e.DropoffLatitude = value
	case FieldDropoffLongitude:
		e.DropoffLongitude = value
	default:
		return false
	}
	return true
}

// PickupAndDeliverRequest carries both the pick-up and drop-off points
type PickupAndDeliverRequest struct {
	RequestID        string  `json:"request_id" db:"request_id"`
	PickupLatitude   float64 `json:"pickup_latitude" db:"pickup_latitude"`
	PickupLongitude  float64 `json:"pickup_longitude" db:"pickup_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude" db:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude" db:"dropoff_longitude"`
}

func (e *PickupAndDeliverRequest) RequestType() RequestType { return RequestTypePickupAndDeliver }
func (e *PickupAndDeliverRequest) Key() string              { return e.RequestID }
func (e *PickupAndDeliverRequest) setKey(id string)         { e.RequestID = id }

func (e *PickupAndDeliverRequest) Coordinates() map[string]float64 {
	return map[string]float64{
		FieldPickupLatitude:   e.PickupLatitude,
		FieldPickupLongitude:  e.PickupLongitude,
		FieldDropoffLatitude:  e.DropoffLatitude,
		FieldDropoffLongitude: e.DropoffLongitude,
	}
}

func (e *PickupAndDeliverRequest) setCoordinate(field string, value float64) bool {
	switch field {
	case FieldPickupLatitude:
		e.PickupLatitude = value
	case FieldPickupLongitude:
		e.PickupLongitude = value
	case FieldDropoffLatitude:
		e.DropoffLatitude = value
	case FieldDropoffLongitude:
		e.DropoffLongitude = value
	default:
		return false
	}
	return true
}

// OnlineServiceRequest carries the meetup point of an online-service request
type OnlineServiceRequest struct {
	RequestID       string  `json:"request_id" db:"request_id"`
	MeetupLatitude  float64 `json:"meetup_latitude" db:"meetup_latitude"`
	MeetupLongitude float64 `json:"meetup_longitude" db:"meetup_longitude"`
}

func (e *OnlineServiceRequest) RequestType() RequestType { return RequestTypeOnlineService }
func (e *OnlineServiceRequest) Key() string              { return e.RequestID }
func (e *OnlineServiceRequest) setKey(id string)         { e.RequestID = id }

func (e *OnlineServiceRequest) Coordinates() map[string]float64 {
	return map[string]float64{
		FieldMeetupLatitude:  e.MeetupLatitude,
		FieldMeetupLongitude: e.MeetupLongitude,
	}
}

func (e *OnlineServiceRequest) setCoordinate(field string, value float64) bool {
	switch field {
	case FieldMeetupLatitude:
		e.MeetupLatitude = value
	case FieldMeetupLongitude:
		e.MeetupLongitude = value
	default:
		return false
	}
	return true
}

// NewExtension returns an empty extension of the given type keyed by requestID
func NewExtension(t RequestType, requestID string) (Extension, error) {
	var ext Extension
	switch t {
	case RequestTypeBuyAndDeliver:
		ext = &BuyAndDeliverRequest{}
	case RequestTypePickupAndDeliver:
		ext = &PickupAndDeliverRequest{}
	case RequestTypeOnlineService:
		ext = &OnlineServiceRequest{}
	default:
		return nil, &UnknownTypeError{Type: string(t)}
	}
	ext.setKey(requestID)
	return ext, nil
}

// ExtensionFields lists the geo-fields required by the given type
func ExtensionFields(t RequestType) ([]string, error) {
	switch t {
	case RequestTypeBuyAndDeliver:
		return []string{FieldDropoffLatitude, FieldDropoffLongitude}, nil
	case RequestTypePickupAndDeliver:
		return []string{FieldPickupLatitude, FieldPickupLongitude, FieldDropoffLatitude, FieldDropoffLongitude}, nil
	case RequestTypeOnlineService:
		return []string{FieldMeetupLatitude, FieldMeetupLongitude}, nil
	default:
		return nil, &UnknownTypeError{Type: string(t)}
	}
}

// SetCoordinates writes each value onto ext, rejecting fields ext does not carry
func SetCoordinates(ext Extension, coords map[string]float64) error {
	for field, value := range coords {
		if err := ValidateCoordinate(field, value); err != nil {
			return err
		}
		if !ext.setCoordinate(field, value) {
			return fmt.Errorf("field %s is not valid for %s requests", field, ext.RequestType())
		}
	}
	return nil
}

// ValidateCoordinate checks a geo-field value against its range
func ValidateCoordinate(field string, value float64) error {
	switch field {
	case FieldPickupLatitude, FieldDropoffLatitude, FieldMeetupLatitude:
		if value < -90 || value > 90 {
			return fmt.Errorf("%s must be between -90 and 90", field)
		}
	case FieldPickupLongitude, FieldDropoffLongitude, FieldMeetupLongitude:
		if value < -180 || value > 180 {
			return fmt.Errorf("%s must be between -180 and 180", field)
		}
	default:
		return fmt.Errorf("unknown coordinate field: %s", field)
	}
	return nil
}

// CheckExtension verifies ext is present and matches the request's tag
func CheckExtension(req *Request, ext Extension) error {
	if !req.Type.IsValid() {
		return &UnknownTypeError{Type: string(req.Type)}
	}
	if ext == nil {
		return fmt.Errorf("%w: request %s has no %s extension", ErrExtensionMismatch, req.ID, req.Type)
	}
	if ext.RequestType() != req.Type {
		return fmt.Errorf("%w: request %s is %s but extension is %s", ErrExtensionMismatch, req.ID, req.Type, ext.RequestType())
	}
	if ext.Key() != "" && ext.Key() != req.ID {
		return fmt.Errorf("%w: extension belongs to request %s, not %s", ErrExtensionMismatch, ext.Key(), req.ID)
	}
	return nil
}
