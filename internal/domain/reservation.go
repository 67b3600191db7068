package domain

import "time"

// ReservationDetails is the vendor-neutral view of a reservation fetched
// from a PMS gateway.
type ReservationDetails struct {
	PMSHotelID        string
	ReservationID     string
	GuestID           string
	Status            string // raw vendor status
	CheckIn           time.Time
	CheckOut          time.Time
	BreakfastIncluded *bool
}

type GuestDetails struct {
	Name    *string
	Phone   *string
	Country *string
}

// WebhookPayload is a normalized webhook body. Events hold one entry per
// reservation id.
type WebhookPayload struct {
	HotelID       string
	IntegrationID string
	Events        []WebhookEvent
}

type WebhookEvent struct {
	Name          string
	ReservationID string
}

// Write outcomes for a single record.
const (
	OpCreated   = "created"
	OpUpdated   = "updated"
	OpUnchanged = "unchanged"
)

// StayChange describes one durable write performed while reconciling.
type StayChange struct {
	PMS           string    `json:"pms"`
	Entity        string    `json:"entity"` // guest|stay
	Op            string    `json:"op"`
	ID            int64     `json:"id"`
	ReservationID string    `json:"reservation_id,omitempty"`
	Fields        []string  `json:"fields,omitempty"`
	At            time.Time `json:"at"`
}
