package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pms_sync/internal/adapters/observability"
	"pms_sync/internal/domain"
)

const (
	// AutoUpdateEvent names the synthetic events built by the daily refresh.
	AutoUpdateEvent       = "AutoUpdate"
	autoUpdateIntegration = "Auto Update"
)

type Mews struct {
	gw           domain.Gateway
	rec          *Reconciler
	cache        domain.Cache
	breakfastTTL time.Duration
	now          func() time.Time
	loc          *time.Location
}

var _ PMS = (*Mews)(nil)

func NewMews(gw domain.Gateway, repo domain.RecordStore, cache domain.Cache, pub domain.ChangePublisher, breakfastTTL time.Duration) *Mews {
	m := &Mews{
		gw:           gw,
		cache:        cache,
		breakfastTTL: breakfastTTL,
		now:          time.Now,
	}
	m.rec = NewReconciler(m.Name(), repo, pub)
	return m
}

// WithClock replaces the wall clock used for the refresh window and change
// timestamps.
func (m *Mews) WithClock(now func() time.Time) *Mews {
	m.now = now
	m.rec.now = now
	return m
}

// WithLocation sets the zone in which the refresh decides what tomorrow is.
// It should match the zone the refresh is scheduled in.
func (m *Mews) WithLocation(loc *time.Location) *Mews {
	m.loc = loc
	return m
}

func (m *Mews) Name() string { return "mews" }

func (m *Mews) breakfastKey(reservationID string) string {
	return "breakfast:" + m.Name() + ":" + reservationID
}

func (m *Mews) NormalizePayload(body []byte) (domain.WebhookPayload, error) {
	return mapMewsWebhook(body)
}

func (m *Mews) HandleWebhook(ctx context.Context, p domain.WebhookPayload) error {
	batch := uuid.NewString()
	for i, ev := range p.Events {
		out, err := m.handleEvent(ctx, ev)
		if err != nil {
			observability.ObserveWebhookEvent(m.Name(), "failed")
			log.Error().Err(err).
				Str("batch", batch).
				Str("pms", m.Name()).
				Str("reservation", ev.ReservationID).
				Int("remaining", len(p.Events)-i-1).
				Msg("reconcile failed; aborting batch")
			return fmt.Errorf("event %d (reservation %s): %w", i, ev.ReservationID, err)
		}
		observability.ObserveWebhookEvent(m.Name(), "ok")
		m.evictBreakfast(ctx, ev.ReservationID)
		log.Info().
			Str("batch", batch).
			Str("pms", m.Name()).
			Str("event", ev.Name).
			Str("reservation", ev.ReservationID).
			Str("guest", out.Guest).
			Str("stay", out.Stay).
			Int64("stay_id", out.StayID).
			Msg("reservation reconciled")
	}
	return nil
}

func (m *Mews) handleEvent(ctx context.Context, ev domain.WebhookEvent) (Outcome, error) {
	raw, err := m.gw.GetReservationDetails(ctx, ev.ReservationID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: reservation details: %w", domain.ErrGateway, err)
	}
	d, err := mapMewsReservation(raw)
	if err != nil {
		return Outcome{}, err
	}

	hotel, err := m.rec.ResolveHotel(ctx, d.PMSHotelID)
	if err != nil {
		return Outcome{}, err
	}

	// Without a guest id there is nothing to identify; link no guest.
	var g domain.GuestDetails
	if d.GuestID != "" {
		rawGuest, err := m.gw.GetGuestDetails(ctx, d.GuestID)
		if err != nil {
			return Outcome{}, fmt.Errorf("%w: guest details: %w", domain.ErrGateway, err)
		}
		if g, err = mapMewsGuest(rawGuest); err != nil {
			return Outcome{}, err
		}
	}

	return m.rec.Apply(ctx, hotel, d, g)
}

// UpdateTomorrowsStays feeds every reservation checking in tomorrow through
// HandleWebhook as its own single-event payload. One failing reservation
// does not stop the others, but fails the run.
func (m *Mews) UpdateTomorrowsStays(ctx context.Context) error {
	now := m.now()
	if m.loc != nil {
		now = now.In(m.loc)
	}
	tomorrow := dateOf(now.AddDate(0, 0, 1))

	raw, err := m.gw.GetReservationsBetweenDates(ctx, tomorrow, tomorrow)
	if err != nil {
		return fmt.Errorf("%w: reservations between dates: %w", domain.ErrGateway, err)
	}
	summaries, err := mapMewsSummaries(raw)
	if err != nil {
		return err
	}

	var errs []error
	for _, s := range summaries {
		p := domain.WebhookPayload{
			HotelID:       s.HotelID,
			IntegrationID: autoUpdateIntegration,
			Events:        []domain.WebhookEvent{{Name: AutoUpdateEvent, ReservationID: s.ReservationID}},
		}
		if err := m.HandleWebhook(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}

	log.Info().
		Str("pms", m.Name()).
		Str("date", tomorrow.Format(time.DateOnly)).
		Int("reservations", len(summaries)).
		Int("failed", len(errs)).
		Msg("daily refresh finished")

	if len(errs) > 0 {
		return fmt.Errorf("refresh %s: %d of %d reservations failed: %w",
			tomorrow.Format(time.DateOnly), len(errs), len(summaries), errors.Join(errs...))
	}
	return nil
}

func (m *Mews) StayHasBreakfast(ctx context.Context, s domain.Stay) *bool {
	key := m.breakfastKey(s.PMSReservationID)
	if m.cache != nil {
		var v bool
		if ok, _ := m.cache.Get(ctx, key, &v); ok {
			return &v
		}
	}

	raw, err := m.gw.GetReservationDetails(ctx, s.PMSReservationID)
	if err != nil {
		log.Warn().Err(err).Str("reservation", s.PMSReservationID).Msg("breakfast lookup failed")
		return nil
	}
	included, err := mapMewsBreakfast(raw)
	if err != nil || included == nil {
		return nil
	}

	if m.cache != nil && m.breakfastTTL > 0 {
		_ = m.cache.Set(ctx, key, *included, int(m.breakfastTTL.Seconds()))
	}
	return included
}

// evictBreakfast drops the cached answer so the next lookup sees the
// reservation as it is after the event.
func (m *Mews) evictBreakfast(ctx context.Context, reservationID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, m.breakfastKey(reservationID)); err != nil {
		log.Warn().Err(err).Str("reservation", reservationID).Msg("breakfast cache eviction failed")
	}
}
