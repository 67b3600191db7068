package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"pms_sync/internal/domain"
)

const (
	errDupEntry        = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
	txAttempts         = 3
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var (
	_ domain.RecordStore = (*Repo)(nil)
	_ domain.StoreTx     = (*txRepo)(nil)
)

func (r *Repo) FindHotelByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	return scanHotel(r.db.QueryRowContext(ctx, findHotelByPMSIDSQL, pmsHotelID))
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	return scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
}

func (r *Repo) GetStay(ctx context.Context, id int64) (domain.Stay, error) {
	return scanStay(r.db.QueryRowContext(ctx, getStaySQL, id))
}

// WithTx retries fn when InnoDB picks it as a deadlock victim, which happens
// when two transactions race to insert the same natural key. fn must be safe
// to run more than once.
func (r *Repo) WithTx(ctx context.Context, fn func(tx domain.StoreTx) error) error {
	var err error
	for i := 0; i < txAttempts; i++ {
		if err = r.runTx(ctx, fn); !retryable(err) {
			return err
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("transaction conflict, retrying")
	}
	return err
}

func (r *Repo) runTx(ctx context.Context, fn func(tx domain.StoreTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&txRepo{q: tx}); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			log.Error().Err(rerr).Msg("rollback failed")
		}
		return err
	}
	return tx.Commit()
}

type txRepo struct{ q querier }

func (t *txRepo) FindGuestByPhone(ctx context.Context, phone string) (domain.Guest, error) {
	var g domain.Guest
	err := t.q.QueryRowContext(ctx, findGuestByPhoneSQL, phone).Scan(&g.ID, &g.Name, &g.Phone, &g.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Guest{}, domain.ErrNotFound
	}
	return g, err
}

func (t *txRepo) CreateGuest(ctx context.Context, g domain.Guest) (int64, error) {
	res, err := t.q.ExecContext(ctx, insertGuestSQL, g.Name, g.Phone, g.Language)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

var guestColumns = map[string]func(domain.Guest) any{
	domain.FieldName:     func(g domain.Guest) any { return g.Name },
	domain.FieldLanguage: func(g domain.Guest) any { return g.Language },
}

func (t *txRepo) UpdateGuest(ctx context.Context, g domain.Guest, fields []string) error {
	set, args, err := buildSet(fields, func(f string) (string, any, bool) {
		v, ok := guestColumns[f]
		if !ok {
			return "", nil, false
		}
		return f, v(g), true
	})
	if err != nil || set == "" {
		return err
	}
	_, err = t.q.ExecContext(ctx, "UPDATE guests SET "+set+" WHERE id = ?", append(args, g.ID)...)
	return mapErr(err)
}

func (t *txRepo) FindStay(ctx context.Context, hotelID int64, reservationID string) (domain.Stay, error) {
	return scanStay(t.q.QueryRowContext(ctx, findStaySQL, hotelID, reservationID))
}

func (t *txRepo) CreateStay(ctx context.Context, s domain.Stay) (int64, error) {
	res, err := t.q.ExecContext(ctx, insertStaySQL,
		s.HotelID,
		valInt64(s.GuestID),
		s.PMSReservationID,
		s.PMSGuestID,
		s.Status,
		s.CheckIn,
		s.CheckOut,
	)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.LastInsertId()
}

// stayColumn maps a diff field to its column and value.
func stayColumn(s domain.Stay, field string) (string, any, bool) {
	switch field {
	case domain.FieldHotel:
		return "hotel_id", s.HotelID, true
	case domain.FieldGuest:
		return "guest_id", valInt64(s.GuestID), true
	case domain.FieldReservationID:
		return "pms_reservation_id", s.PMSReservationID, true
	case domain.FieldPMSGuestID:
		return "pms_guest_id", s.PMSGuestID, true
	case domain.FieldStatus:
		return "status", s.Status, true
	case domain.FieldCheckIn:
		return "checkin", s.CheckIn, true
	case domain.FieldCheckOut:
		return "checkout", s.CheckOut, true
	}
	return "", nil, false
}

func (t *txRepo) UpdateStay(ctx context.Context, s domain.Stay, fields []string) error {
	set, args, err := buildSet(fields, func(f string) (string, any, bool) { return stayColumn(s, f) })
	if err != nil || set == "" {
		return err
	}
	_, err = t.q.ExecContext(ctx, "UPDATE stays SET "+set+" WHERE id = ?", append(args, s.ID)...)
	return mapErr(err)
}

// buildSet renders "col = ?, ..." for the given fields; unknown fields are
// rejected so callers cannot inject column names.
func buildSet(fields []string, col func(string) (string, any, bool)) (string, []any, error) {
	parts := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		name, v, ok := col(f)
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", f)
		}
		parts = append(parts, name+" = ?")
		args = append(args, v)
	}
	return strings.Join(parts, ", "), args, nil
}

/********** scanning **********/

type scanner interface{ Scan(dest ...any) error }

func scanHotel(row scanner) (domain.Hotel, error) {
	var h domain.Hotel
	if err := row.Scan(&h.ID, &h.Name, &h.PMS, &h.PMSHotelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Hotel{}, domain.ErrNotFound
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

func scanStay(row scanner) (domain.Stay, error) {
	var (
		s       domain.Stay
		guestID sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.HotelID, &guestID, &s.PMSReservationID, &s.PMSGuestID, &s.Status, &s.CheckIn, &s.CheckOut); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Stay{}, domain.ErrNotFound
		}
		return domain.Stay{}, err
	}
	if guestID.Valid {
		id := guestID.Int64
		s.GuestID = &id
	}
	s.CheckIn, s.CheckOut = utcDate(s.CheckIn), utcDate(s.CheckOut)
	return s, nil
}

func utcDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func retryable(err error) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && (me.Number == errDeadlock || me.Number == errLockWaitTimeout)
}

func mapErr(err error) error {
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return fmt.Errorf("%w: %s", domain.ErrDuplicate, me.Message)
	}
	return err
}
