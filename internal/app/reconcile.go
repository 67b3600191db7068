package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"pms_sync/internal/adapters/observability"
	"pms_sync/internal/domain"
	"pms_sync/internal/lookup"
)

// phoneUnavailable is what vendors send instead of a phone number.
const phoneUnavailable = "Not available"

// Reconciler is the single write path for Guests and Stays, shared by all
// vendors and by both webhooks and the daily refresh.
type Reconciler struct {
	pms  string
	repo domain.RecordStore
	pub  domain.ChangePublisher
	now  func() time.Time
}

func NewReconciler(pms string, repo domain.RecordStore, pub domain.ChangePublisher) *Reconciler {
	return &Reconciler{pms: pms, repo: repo, pub: pub, now: time.Now}
}

// Outcome reports what happened to each record of one reservation.
type Outcome struct {
	Guest   string // created|updated|unchanged, "" when skipped
	Stay    string
	StayID  int64
	GuestID *int64
}

func (r *Reconciler) ResolveHotel(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	h, err := r.repo.FindHotelByPMSID(ctx, pmsHotelID)
	if err != nil {
		return domain.Hotel{}, fmt.Errorf("hotel %q: %w", pmsHotelID, err)
	}
	return h, nil
}

// Apply upserts the guest and stay described by d and g in one transaction.
func (r *Reconciler) Apply(ctx context.Context, hotel domain.Hotel, d domain.ReservationDetails, g domain.GuestDetails) (Outcome, error) {
	status, err := lookup.StatusFor(d.Status)
	if err != nil {
		return Outcome{}, err
	}

	var (
		out     Outcome
		changes []domain.StayChange
	)
	err = r.repo.WithTx(ctx, func(tx domain.StoreTx) error {
		out, changes = Outcome{}, nil

		guest, op, fields, err := upsertGuest(ctx, tx, g)
		if err != nil {
			return fmt.Errorf("upsert guest: %w", err)
		}
		if guest != nil {
			out.Guest, out.GuestID = op, &guest.ID
			if op != domain.OpUnchanged {
				changes = append(changes, r.change("guest", op, guest.ID, d.ReservationID, fields))
			}
		}

		incoming := domain.Stay{
			HotelID:          hotel.ID,
			GuestID:          out.GuestID,
			PMSReservationID: d.ReservationID,
			PMSGuestID:       d.GuestID,
			Status:           status,
			CheckIn:          d.CheckIn,
			CheckOut:         d.CheckOut,
		}
		stay, op, fields, err := upsertStay(ctx, tx, incoming)
		if err != nil {
			return fmt.Errorf("upsert stay: %w", err)
		}
		out.Stay, out.StayID = op, stay.ID
		if op != domain.OpUnchanged {
			changes = append(changes, r.change("stay", op, stay.ID, d.ReservationID, fields))
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	if out.Guest != "" {
		observability.ObserveRecordWrite("guest", out.Guest)
	}
	observability.ObserveRecordWrite("stay", out.Stay)

	if len(changes) > 0 && r.pub != nil {
		if perr := r.pub.Publish(ctx, changes...); perr != nil {
			log.Warn().Err(perr).Str("pms", r.pms).Str("reservation", d.ReservationID).Msg("publish changes failed")
		}
	}
	return out, nil
}

func (r *Reconciler) change(entity, op string, id int64, reservationID string, fields []string) domain.StayChange {
	return domain.StayChange{
		PMS:           r.pms,
		Entity:        entity,
		Op:            op,
		ID:            id,
		ReservationID: reservationID,
		Fields:        fields,
		At:            r.now().UTC(),
	}
}

// guestPhone returns "" when the phone cannot identify a guest.
func guestPhone(g domain.GuestDetails) string {
	if g.Phone == nil {
		return ""
	}
	p := strings.TrimSpace(*g.Phone)
	if strings.EqualFold(p, phoneUnavailable) {
		return ""
	}
	return p
}

// upsertGuest returns a nil guest when the phone is unusable.
func upsertGuest(ctx context.Context, tx domain.StoreTx, g domain.GuestDetails) (*domain.Guest, string, []string, error) {
	phone := guestPhone(g)
	if phone == "" {
		return nil, "", nil, nil
	}
	incoming := domain.Guest{
		Name:     deref(g.Name),
		Phone:    phone,
		Language: lookup.LanguageFor(deref(g.Country)),
	}

	existing, err := tx.FindGuestByPhone(ctx, phone)
	if errors.Is(err, domain.ErrNotFound) {
		id, cerr := tx.CreateGuest(ctx, incoming)
		if cerr == nil {
			incoming.ID = id
			return &incoming, domain.OpCreated, nil, nil
		}
		if !errors.Is(cerr, domain.ErrDuplicate) {
			return nil, "", nil, cerr
		}
		// a concurrent reconcile created it first; update theirs instead
		existing, err = tx.FindGuestByPhone(ctx, phone)
	}
	if err != nil {
		return nil, "", nil, err
	}

	fields := diffGuest(existing, incoming)
	if len(fields) == 0 {
		return &existing, domain.OpUnchanged, nil, nil
	}
	updated := existing
	updated.Name = incoming.Name
	updated.Language = incoming.Language
	if err := tx.UpdateGuest(ctx, updated, fields); err != nil {
		return nil, "", nil, err
	}
	return &updated, domain.OpUpdated, fields, nil
}

func diffGuest(cur, in domain.Guest) []string {
	var fields []string
	if cur.Name != in.Name {
		fields = append(fields, domain.FieldName)
	}
	if cur.Language != in.Language {
		fields = append(fields, domain.FieldLanguage)
	}
	return fields
}

func upsertStay(ctx context.Context, tx domain.StoreTx, in domain.Stay) (domain.Stay, string, []string, error) {
	existing, err := tx.FindStay(ctx, in.HotelID, in.PMSReservationID)
	if errors.Is(err, domain.ErrNotFound) {
		id, cerr := tx.CreateStay(ctx, in)
		if cerr == nil {
			in.ID = id
			return in, domain.OpCreated, nil, nil
		}
		if !errors.Is(cerr, domain.ErrDuplicate) {
			return domain.Stay{}, "", nil, cerr
		}
		existing, err = tx.FindStay(ctx, in.HotelID, in.PMSReservationID)
	}
	if err != nil {
		return domain.Stay{}, "", nil, err
	}

	fields := diffStay(existing, in)
	if len(fields) == 0 {
		return existing, domain.OpUnchanged, nil, nil
	}
	updated := mergeStay(existing, in, fields)
	if err := tx.UpdateStay(ctx, updated, fields); err != nil {
		return domain.Stay{}, "", nil, err
	}
	return updated, domain.OpUpdated, fields, nil
}

func diffStay(cur, in domain.Stay) []string {
	var fields []string
	if cur.HotelID != in.HotelID {
		fields = append(fields, domain.FieldHotel)
	}
	if !sameID(cur.GuestID, in.GuestID) {
		fields = append(fields, domain.FieldGuest)
	}
	if cur.PMSReservationID != in.PMSReservationID {
		fields = append(fields, domain.FieldReservationID)
	}
	if cur.PMSGuestID != in.PMSGuestID {
		fields = append(fields, domain.FieldPMSGuestID)
	}
	if cur.Status != in.Status {
		fields = append(fields, domain.FieldStatus)
	}
	if !cur.CheckIn.Equal(in.CheckIn) {
		fields = append(fields, domain.FieldCheckIn)
	}
	if !cur.CheckOut.Equal(in.CheckOut) {
		fields = append(fields, domain.FieldCheckOut)
	}
	return fields
}

// mergeStay copies only the changed fields from in onto cur.
func mergeStay(cur, in domain.Stay, fields []string) domain.Stay {
	for _, f := range fields {
		switch f {
		case domain.FieldHotel:
			cur.HotelID = in.HotelID
		case domain.FieldGuest:
			cur.GuestID = in.GuestID
		case domain.FieldReservationID:
			cur.PMSReservationID = in.PMSReservationID
		case domain.FieldPMSGuestID:
			cur.PMSGuestID = in.PMSGuestID
		case domain.FieldStatus:
			cur.Status = in.Status
		case domain.FieldCheckIn:
			cur.CheckIn = in.CheckIn
		case domain.FieldCheckOut:
			cur.CheckOut = in.CheckOut
		}
	}
	return cur
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
