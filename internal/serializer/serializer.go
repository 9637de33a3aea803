// Package serializer turns stored requests into their typed response shapes.
package serializer

import (
	"fmt"
	"time"

	"github.com/fdebbabi/nwassik-backend-serverless/internal/models"
)

// Output is the response shape of one request variant
type Output interface {
	// RequestType returns the variant the output was built from
	RequestType() models.RequestType

	// RequestID returns the ID of the serialized request
	RequestID() string
}

// RequestOutput holds the fields every variant shares
type RequestOutput struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Type        models.RequestType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DueDate     *time.Time         `json:"due_date"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (o RequestOutput) RequestType() models.RequestType { return o.Type }
func (o RequestOutput) RequestID() string               { return o.ID }

// BuyAndDeliverOutput is the response shape of a buy_and_deliver request
type BuyAndDeliverOutput struct {
	RequestOutput
	DropoffLatitude  float64 `json:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude"`
}

// PickupAndDeliverOutput is the response shape of a pickup_and_deliver request
type PickupAndDeliverOutput struct {
	RequestOutput
	PickupLatitude   float64 `json:"pickup_latitude"`
	PickupLongitude  float64 `json:"pickup_longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude"`
}

// OnlineServiceOutput is the response shape of an online_service request
type OnlineServiceOutput struct {
	RequestOutput
	MeetupLatitude  float64 `json:"meetup_latitude"`
	MeetupLongitude float64 `json:"meetup_longitude"`
}

// Serialize builds the output matching the request's tag. An unknown tag,
// a missing extension and an extension of another variant are all errors.
func Serialize(complete *models.CompleteRequest) (Output, error) {
	if complete == nil || complete.Request == nil {
		return nil, fmt.Errorf("cannot serialize a nil request")
	}
	if err := models.CheckExtension(complete.Request, complete.Extension); err != nil {
		return nil, err
	}

	base := baseOutput(complete.Request)

	switch ext := complete.Extension.(type) {
	case *models.BuyAndDeliverRequest:
		return &BuyAndDeliverOutput{
			RequestOutput:    base,
			DropoffLatitude:  ext.DropoffLatitude,
			DropoffLongitude: ext.DropoffLongitude,
		}, nil
	case *models.PickupAndDeliverRequest:
		return &PickupAndDeliverOutput{
			RequestOutput:    base,
			PickupLatitude:   ext.PickupLatitude,
			PickupLongitude:  ext.PickupLongitude,
			DropoffLatitude:  ext.DropoffLatitude,
			DropoffLongitude: ext.DropoffLongitude,
		}, nil
	case *models.OnlineServiceRequest:
		return &OnlineServiceOutput{
			RequestOutput:   base,
			MeetupLatitude:  ext.MeetupLatitude,
			MeetupLongitude: ext.MeetupLongitude,
		}, nil
	default:
		return nil, &models.UnknownTypeError{Type: string(complete.Type)}
	}
}

// SerializeAll serializes a list, failing on the first bad entry
func SerializeAll(requests []*models.CompleteRequest) ([]Output, error) {
	outputs := make([]Output, 0, len(requests))
	for _, complete := range requests {
		out, err := Serialize(complete)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

func baseOutput(r *models.Request) RequestOutput {
	return RequestOutput{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        r.Type,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
