package domain

import (
	"context"
	"time"
)

// RecordStore owns Hotels, Guests and Stays.
type RecordStore interface {
	FindHotelByPMSID(ctx context.Context, pmsHotelID string) (Hotel, error)
	GetHotel(ctx context.Context, id int64) (Hotel, error)
	GetStay(ctx context.Context, id int64) (Stay, error)

	// WithTx runs fn inside a single transaction. Finds inside the
	// transaction lock the rows they return.
	WithTx(ctx context.Context, fn func(tx StoreTx) error) error
}

type StoreTx interface {
	FindGuestByPhone(ctx context.Context, phone string) (Guest, error)
	CreateGuest(ctx context.Context, g Guest) (int64, error)
	UpdateGuest(ctx context.Context, g Guest, fields []string) error

	FindStay(ctx context.Context, hotelID int64, reservationID string) (Stay, error)
	CreateStay(ctx context.Context, s Stay) (int64, error)
	UpdateStay(ctx context.Context, s Stay, fields []string) error
}

// Gateway is the raw PMS API. Every call returns the vendor JSON body.
type Gateway interface {
	GetReservationsBetweenDates(ctx context.Context, start, end time.Time) ([]byte, error)
	GetReservationDetails(ctx context.Context, reservationID string) ([]byte, error)
	GetGuestDetails(ctx context.Context, guestID string) ([]byte, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type ChangePublisher interface {
	Publish(ctx context.Context, changes ...StayChange) error
}
