package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinema_booking/booking"
	"cinema_booking/lock"
	"cinema_booking/model"
	"cinema_booking/notify"
	"cinema_booking/store"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.SeatEvent
}

func (r *recordingNotifier) PublishSeatEvent(ev notify.SeatEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) count(state string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.State == state {
			n++
		}
	}
	return n
}

type fixture struct {
	store    *store.Memory
	clock    *clockwork.FakeClock
	notifier *recordingNotifier
	locks    *lock.Manager
	bookings *booking.Service
	sweeper  *Sweeper

	soon  model.Showtime // bắt đầu sau 20 phút
	later model.Showtime // bắt đầu sau 3 giờ
	seat1 model.Seat
	seat2 model.Seat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}

	bookings := booking.NewService(mem, clock, notifier, nil, nil)
	f := &fixture{
		store:    mem,
		clock:    clock,
		notifier: notifier,
		locks:    lock.NewManager(mem, clock, notifier),
		bookings: bookings,
		sweeper:  New(mem, clock, notifier, bookings),
	}

	f.soon = mem.AddShowtime(model.Showtime{
		PublicCode: "ST-SOON",
		StartTime:  clock.Now().Add(20 * time.Minute),
		EndTime:    clock.Now().Add(2 * time.Hour),
		Price:      90000,
	})
	f.later = mem.AddShowtime(model.Showtime{
		PublicCode: "ST-LATER",
		StartTime:  clock.Now().Add(3 * time.Hour),
		EndTime:    clock.Now().Add(5 * time.Hour),
		Price:      90000,
	})
	f.seat1 = mem.AddSeat(model.Seat{Row: "A", Column: 1, SeatType: model.SeatType{Type: "STANDARD", PriceModifier: 1}})
	f.seat2 = mem.AddSeat(model.Seat{Row: "A", Column: 2, SeatType: model.SeatType{Type: "STANDARD", PriceModifier: 1}})
	return f
}

func (f *fixture) createCashBooking(t *testing.T, code string, showtime model.Showtime, seat model.Seat) model.Booking {
	t.Helper()
	var b model.Booking
	err := f.store.Transact(context.Background(), func(tx store.Tx) error {
		b = model.Booking{
			PublicCode:    code,
			Session:       "guest-1",
			ShowtimeID:    showtime.ID,
			TotalAmount:   90000,
			PaymentMethod: model.MethodCash,
			PaymentStatus: model.PaymentPaid,
			Status:        model.BookingPending,
			Seats:         []model.BookingSeat{{SeatId: seat.ID, Price: 90000}},
		}
		return tx.CreateBooking(&b)
	})
	require.NoError(t, err)
	return b
}

func (f *fixture) bookingStatus(t *testing.T, id uint) string {
	t.Helper()
	var status string
	err := f.store.Transact(context.Background(), func(tx store.Tx) error {
		b, err := tx.BookingByID(id)
		if err != nil {
			return err
		}
		status = b.Status
		return nil
	})
	require.NoError(t, err)
	return status
}

func TestRunDeletesExpiredLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.locks.Acquire(ctx, f.later.ID, []uint{f.seat1.ID}, model.GuestHolder("alice"))
	require.NoError(t, err)
	_, err = f.locks.Acquire(ctx, f.later.ID, []uint{f.seat2.ID}, model.GuestHolder("bob"))
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)
	f.sweeper.Run(ctx)
	av, err := f.locks.Availability(ctx, f.later.ID)
	require.NoError(t, err)
	assert.Len(t, av.Locked, 2, "lease còn sống không được đụng tới")

	f.clock.Advance(lock.DefaultTTL)
	f.sweeper.Run(ctx)
	av, err = f.locks.Availability(ctx, f.later.ID)
	require.NoError(t, err)
	assert.Empty(t, av.Locked)
	assert.Equal(t, 2, f.notifier.count(notify.SeatUnlocked))

	// lượt quét ngay sau đó là no-op
	f.sweeper.Run(ctx)
	assert.Equal(t, 2, f.notifier.count(notify.SeatUnlocked))
}

func TestRunExpiresStaleCashBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stale := f.createCashBooking(t, "BKG-STALE", f.soon, f.seat1)
	fresh := f.createCashBooking(t, "BKG-FRESH", f.later, f.seat2)

	f.sweeper.Run(ctx)

	assert.Equal(t, model.BookingExpired, f.bookingStatus(t, stale.ID))
	assert.Equal(t, model.BookingPending, f.bookingStatus(t, fresh.ID))

	// ghế của đơn hết hạn rơi khỏi sold-set
	av, err := f.locks.Availability(ctx, f.soon.ID)
	require.NoError(t, err)
	assert.Empty(t, av.Sold)
	assert.Equal(t, 1, f.notifier.count(notify.SeatUnlocked))

	// quét lại không đụng vào đơn đã terminal
	f.sweeper.Run(ctx)
	assert.Equal(t, model.BookingExpired, f.bookingStatus(t, stale.ID))
	assert.Equal(t, 1, f.notifier.count(notify.SeatUnlocked))
}

// flakyStore đánh hỏng đúng một lần Transact theo số thứ tự gọi.
type flakyStore struct {
	store.Store
	mu     sync.Mutex
	calls  int
	failOn int
}

func (s *flakyStore) Transact(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls == s.failOn
	s.mu.Unlock()
	if fail {
		return errors.New("db connection reset")
	}
	return s.Store.Transact(ctx, fn)
}

func TestRunIsolatesPerBookingFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b1 := f.createCashBooking(t, "BKG-STALE-1", f.soon, f.seat1)
	b2 := f.createCashBooking(t, "BKG-STALE-2", f.soon, f.seat2)

	// Transact #1 quét lock, #2 liệt kê đơn, #3/#4 expire từng đơn:
	// đánh hỏng #3 để một trong hai đơn fail
	flaky := &flakyStore{Store: f.store, failOn: 3}
	bookings := booking.NewService(flaky, f.clock, f.notifier, nil, nil)
	sw := New(flaky, f.clock, f.notifier, bookings)

	sw.Run(ctx)

	// đơn hỏng không kéo đơn kia theo
	statuses := []string{f.bookingStatus(t, b1.ID), f.bookingStatus(t, b2.ID)}
	assert.ElementsMatch(t, []string{model.BookingExpired, model.BookingPending}, statuses)
	assert.Equal(t, 1, f.notifier.count(notify.SeatUnlocked))

	// lượt sau dọn nốt đơn còn lại
	sw.Run(ctx)
	assert.Equal(t, model.BookingExpired, f.bookingStatus(t, b1.ID))
	assert.Equal(t, model.BookingExpired, f.bookingStatus(t, b2.ID))
	assert.Equal(t, 2, f.notifier.count(notify.SeatUnlocked))
}

func TestRunLeavesGatewayBookingsAlone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var b model.Booking
	err := f.store.Transact(ctx, func(tx store.Tx) error {
		b = model.Booking{
			PublicCode:    "BKG-VNPAY",
			Session:       "guest-1",
			ShowtimeID:    f.soon.ID,
			TotalAmount:   90000,
			PaymentMethod: model.MethodVNPay,
			PaymentStatus: model.PaymentPending,
			Status:        model.BookingPending,
			Seats:         []model.BookingSeat{{SeatId: f.seat1.ID, Price: 90000}},
		}
		return tx.CreateBooking(&b)
	})
	require.NoError(t, err)

	f.sweeper.Run(ctx)
	assert.Equal(t, model.BookingPending, f.bookingStatus(t, b.ID), "đơn chờ cổng thanh toán không bị sweeper đụng vào")
}
