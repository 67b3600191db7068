package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pms_sync/internal/domain"
)

/********** Mews wire formats **********/

type mewsWebhook struct {
	HotelID       string              `json:"HotelId"`
	IntegrationID string              `json:"IntegrationId"`
	Events        *[]mewsWebhookEvent `json:"Events"`
}

type mewsWebhookEvent struct {
	Name  string `json:"Name"`
	Value struct {
		ReservationID string `json:"ReservationId"`
	} `json:"Value"`
}

type mewsReservation struct {
	HotelID           string `json:"HotelId"`
	ReservationID     string `json:"ReservationId"`
	GuestID           string `json:"GuestId"`
	Status            string `json:"Status"`
	CheckInDate       string `json:"CheckInDate"`
	CheckOutDate      string `json:"CheckOutDate"`
	BreakfastIncluded *bool  `json:"BreakfastIncluded"`
}

type mewsGuest struct {
	Name    *string `json:"Name"`
	Phone   *string `json:"Phone"`
	Country *string `json:"Country"`
}

type mewsReservationSummary struct {
	HotelID       string `json:"HotelId"`
	ReservationID string `json:"ReservationId"`
}

/********** mapping **********/

// mapMewsWebhook keeps one event per reservation id: the last occurrence
// wins but keeps the position of the first.
func mapMewsWebhook(body []byte) (domain.WebhookPayload, error) {
	var w mewsWebhook
	if err := json.Unmarshal(body, &w); err != nil {
		return domain.WebhookPayload{}, fmt.Errorf("%w: %w", domain.ErrMalformedPayload, err)
	}
	if w.Events == nil {
		return domain.WebhookPayload{}, fmt.Errorf("%w: missing Events", domain.ErrMalformedPayload)
	}

	events := make([]domain.WebhookEvent, 0, len(*w.Events))
	pos := make(map[string]int, len(*w.Events))
	for i, e := range *w.Events {
		id := strings.TrimSpace(e.Value.ReservationID)
		if id == "" {
			return domain.WebhookPayload{}, fmt.Errorf("%w: event %d has no ReservationId", domain.ErrMalformedPayload, i)
		}
		ev := domain.WebhookEvent{Name: e.Name, ReservationID: id}
		if p, seen := pos[id]; seen {
			events[p] = ev
			continue
		}
		pos[id] = len(events)
		events = append(events, ev)
	}
	return domain.WebhookPayload{
		HotelID:       w.HotelID,
		IntegrationID: w.IntegrationID,
		Events:        events,
	}, nil
}

func mapMewsReservation(raw []byte) (domain.ReservationDetails, error) {
	var r mewsReservation
	if err := json.Unmarshal(raw, &r); err != nil {
		return domain.ReservationDetails{}, fmt.Errorf("%w: decode reservation: %w", domain.ErrGateway, err)
	}
	checkIn, err := parseDate(r.CheckInDate)
	if err != nil {
		return domain.ReservationDetails{}, fmt.Errorf("%w: CheckInDate: %w", domain.ErrGateway, err)
	}
	checkOut, err := parseDate(r.CheckOutDate)
	if err != nil {
		return domain.ReservationDetails{}, fmt.Errorf("%w: CheckOutDate: %w", domain.ErrGateway, err)
	}
	return domain.ReservationDetails{
		PMSHotelID:        r.HotelID,
		ReservationID:     r.ReservationID,
		GuestID:           r.GuestID,
		Status:            r.Status,
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		BreakfastIncluded: r.BreakfastIncluded,
	}, nil
}

// mapMewsBreakfast only needs the breakfast flag, so it ignores the dates.
func mapMewsBreakfast(raw []byte) (*bool, error) {
	var r mewsReservation
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: decode reservation: %w", domain.ErrGateway, err)
	}
	return r.BreakfastIncluded, nil
}

func mapMewsGuest(raw []byte) (domain.GuestDetails, error) {
	var g mewsGuest
	if err := json.Unmarshal(raw, &g); err != nil {
		return domain.GuestDetails{}, fmt.Errorf("%w: decode guest: %w", domain.ErrGateway, err)
	}
	return domain.GuestDetails{Name: g.Name, Phone: g.Phone, Country: g.Country}, nil
}

func mapMewsSummaries(raw []byte) ([]mewsReservationSummary, error) {
	var out []mewsReservationSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode reservations: %w", domain.ErrGateway, err)
	}
	return out, nil
}

/********** tiny helpers **********/

// parseDate accepts a calendar date or an RFC 3339 timestamp and returns
// the calendar date as written, at UTC midnight.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return dateOf(t), nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
