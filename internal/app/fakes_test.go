package app_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pms_sync/internal/domain"
)

// ---- gateway ----

type fakeGateway struct {
	mu           sync.Mutex
	reservations map[string]string // reservation id -> JSON
	guests       map[string]string // guest id -> JSON
	between      string
	failRes      map[string]error
	calls        map[string]int
	windows      [][2]time.Time
}

func newGateway() *fakeGateway {
	return &fakeGateway{
		reservations: map[string]string{},
		guests:       map[string]string{},
		failRes:      map[string]error{},
		calls:        map[string]int{},
		between:      "[]",
	}
}

func (g *fakeGateway) GetReservationsBetweenDates(ctx context.Context, start, end time.Time) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.windows = append(g.windows, [2]time.Time{start, end})
	return []byte(g.between), nil
}

func (g *fakeGateway) GetReservationDetails(ctx context.Context, id string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["reservation:"+id]++
	if err := g.failRes[id]; err != nil {
		return nil, err
	}
	b, ok := g.reservations[id]
	if !ok {
		return nil, fmt.Errorf("remote 404")
	}
	return []byte(b), nil
}

func (g *fakeGateway) GetGuestDetails(ctx context.Context, id string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["guest:"+id]++
	b, ok := g.guests[id]
	if !ok {
		return nil, fmt.Errorf("remote 404")
	}
	return []byte(b), nil
}

func (g *fakeGateway) count(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[key]
}

func reservationJSON(hotel, res, guest, status, in, out string, breakfast bool) string {
	return fmt.Sprintf(`{"HotelId":%q,"ReservationId":%q,"GuestId":%q,"Status":%q,"CheckInDate":%q,"CheckOutDate":%q,"BreakfastIncluded":%t}`,
		hotel, res, guest, status, in, out, breakfast)
}

// ---- record store ----

type memStore struct {
	mu     sync.Mutex
	hotels []domain.Hotel
	guests map[int64]domain.Guest
	stays  map[int64]domain.Stay
	nextID int64

	guestCreates, guestUpdates int
	stayCreates, stayUpdates   int
	stayUpdateFields           [][]string
	guestUpdateFields          [][]string

	// raceGuest is committed by a "concurrent" writer on the next
	// CreateGuest, which then reports ErrDuplicate.
	raceGuest *domain.Guest
}

func newStore(hotels ...domain.Hotel) *memStore {
	return &memStore{
		hotels: hotels,
		guests: map[int64]domain.Guest{},
		stays:  map[int64]domain.Stay{},
		nextID: 100,
	}
}

func (s *memStore) FindHotelByPMSID(ctx context.Context, pmsHotelID string) (domain.Hotel, error) {
	for _, h := range s.hotels {
		if h.PMSHotelID == pmsHotelID {
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrNotFound
}

func (s *memStore) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	for _, h := range s.hotels {
		if h.ID == id {
			return h, nil
		}
	}
	return domain.Hotel{}, domain.ErrNotFound
}

func (s *memStore) GetStay(ctx context.Context, id int64) (domain.Stay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stays[id]
	if !ok {
		return domain.Stay{}, domain.ErrNotFound
	}
	return st, nil
}

// WithTx serializes transactions; tx methods run under the lock.
func (s *memStore) WithTx(ctx context.Context, fn func(tx domain.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

func (s *memStore) FindGuestByPhone(ctx context.Context, phone string) (domain.Guest, error) {
	for _, g := range s.guests {
		if g.Phone == phone {
			return g, nil
		}
	}
	return domain.Guest{}, domain.ErrNotFound
}

func (s *memStore) CreateGuest(ctx context.Context, g domain.Guest) (int64, error) {
	if s.raceGuest != nil {
		s.nextID++
		w := *s.raceGuest
		w.ID = s.nextID
		s.guests[w.ID] = w
		s.raceGuest = nil
		return 0, domain.ErrDuplicate
	}
	if _, err := s.FindGuestByPhone(ctx, g.Phone); err == nil {
		return 0, domain.ErrDuplicate
	}
	s.nextID++
	g.ID = s.nextID
	s.guests[g.ID] = g
	s.guestCreates++
	return g.ID, nil
}

func (s *memStore) UpdateGuest(ctx context.Context, g domain.Guest, fields []string) error {
	s.guests[g.ID] = g
	s.guestUpdates++
	s.guestUpdateFields = append(s.guestUpdateFields, fields)
	return nil
}

func (s *memStore) FindStay(ctx context.Context, hotelID int64, reservationID string) (domain.Stay, error) {
	for _, st := range s.stays {
		if st.HotelID == hotelID && st.PMSReservationID == reservationID {
			return st, nil
		}
	}
	return domain.Stay{}, domain.ErrNotFound
}

func (s *memStore) CreateStay(ctx context.Context, st domain.Stay) (int64, error) {
	if _, err := s.FindStay(ctx, st.HotelID, st.PMSReservationID); err == nil {
		return 0, domain.ErrDuplicate
	}
	s.nextID++
	st.ID = s.nextID
	s.stays[st.ID] = st
	s.stayCreates++
	return st.ID, nil
}

func (s *memStore) UpdateStay(ctx context.Context, st domain.Stay, fields []string) error {
	s.stays[st.ID] = st
	s.stayUpdates++
	s.stayUpdateFields = append(s.stayUpdateFields, fields)
	return nil
}

func (s *memStore) allGuests() []domain.Guest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Guest, 0, len(s.guests))
	for _, g := range s.guests {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memStore) allStays() []domain.Stay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Stay, 0, len(s.stays))
	for _, st := range s.stays {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---- publisher & cache ----

type fakePublisher struct{ changes []domain.StayChange }

func (p *fakePublisher) Publish(ctx context.Context, changes ...domain.StayChange) error {
	p.changes = append(p.changes, changes...)
	return nil
}

type fakeCache struct{ store map[string]any }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if d, ok := dst.(*bool); ok {
		*d = v.(bool)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
