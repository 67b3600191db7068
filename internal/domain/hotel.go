package domain

import "time"

// Hotel is read-only from the sync core; it is provisioned elsewhere.
type Hotel struct {
	ID         int64
	Name       string
	PMS        string // vendor name, e.g. "mews"
	PMSHotelID string // vendor-assigned identifier
}

type Guest struct {
	ID       int64
	Name     string
	Phone    string // natural key
	Language string
}

type Stay struct {
	ID               int64
	HotelID          int64
	GuestID          *int64 // nil when the guest could not be identified
	PMSReservationID string
	PMSGuestID       string
	Status           string // canonical, see lookup.StatusFor
	CheckIn          time.Time
	CheckOut         time.Time
}

// Field names used for diff-before-write updates.
const (
	FieldName     = "name"
	FieldLanguage = "language"

	FieldHotel         = "hotel"
	FieldGuest         = "guest"
	FieldReservationID = "pms_reservation_id"
	FieldPMSGuestID    = "pms_guest_id"
	FieldStatus        = "status"
	FieldCheckIn       = "checkin"
	FieldCheckOut      = "checkout"
)
