package lock

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func (r *recordingNotifier) byState(state string) []notify.SeatEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.SeatEvent
	for _, ev := range r.events {
		if ev.State == state {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	store    *store.Memory
	clock    *clockwork.FakeClock
	notifier *recordingNotifier
	manager  *Manager
	showtime model.Showtime
	seats    []model.Seat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}

	showtime := mem.AddShowtime(model.Showtime{
		PublicCode: "ST-TEST-1",
		StartTime:  clock.Now().Add(3 * time.Hour),
		EndTime:    clock.Now().Add(5 * time.Hour),
		Price:      90000,
		Status:     "OPEN",
	})
	seats := []model.Seat{
		mem.AddSeat(model.Seat{Row: "A", Column: 1, SeatType: model.SeatType{Type: "STANDARD", PriceModifier: 1}}),
		mem.AddSeat(model.Seat{Row: "A", Column: 2, SeatType: model.SeatType{Type: "STANDARD", PriceModifier: 1}}),
		mem.AddSeat(model.Seat{Row: "H", Column: 1, SeatType: model.SeatType{Type: "DOUBLE", PriceModifier: 2}}),
	}

	return &fixture{
		store:    mem,
		clock:    clock,
		notifier: notifier,
		manager:  NewManager(mem, clock, notifier),
		showtime: showtime,
		seats:    seats,
	}
}

func TestAcquireMutualExclusion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seatID := f.seats[0].ID

	const shoppers = 20
	var wg sync.WaitGroup
	errs := make([]error, shoppers)
	for i := 0; i < shoppers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			holder := model.GuestHolder(fmt.Sprintf("session-%d", i))
			_, errs[i] = f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, holder)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrSeatHeldByOther)
		}
	}
	assert.Equal(t, 1, won, "đúng một shopper được giữ ghế")
	assert.Len(t, f.notifier.byState(notify.SeatLocked), 1)
}

func TestAcquireAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := model.GuestHolder("alice")
	bob := model.GuestHolder("bob")

	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{f.seats[1].ID}, alice)
	require.NoError(t, err)

	_, err = f.manager.Acquire(ctx, f.showtime.ID, []uint{f.seats[0].ID, f.seats[1].ID}, bob)
	require.ErrorIs(t, err, ErrSeatHeldByOther)

	// ghế đầu tiên không được giữ lại một nửa
	av, err := f.manager.Availability(ctx, f.showtime.ID)
	require.NoError(t, err)
	assert.NotContains(t, av.Locked, f.seats[0].ID)
	assert.Contains(t, av.Locked, f.seats[1].ID)
}

func TestAcquireTakeoverAfterExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := model.GuestHolder("alice")
	bob := model.GuestHolder("bob")
	seatID := f.seats[0].ID

	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, alice)
	require.NoError(t, err)

	// quá TTL, lease của alice chết dù chưa bị xóa vật lý
	f.clock.Advance(DefaultTTL + time.Minute)

	expiresAt, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, bob)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(DefaultTTL), expiresAt)

	// release muộn của alice là no-op, không được đụng vào lease của bob
	require.NoError(t, f.manager.Release(ctx, f.showtime.ID, []uint{seatID}, alice))

	av, err := f.manager.Availability(ctx, f.showtime.ID)
	require.NoError(t, err)
	assert.Contains(t, av.Locked, seatID)
}

func TestSameHolderReacquireResetsLease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := model.GuestHolder("alice")
	seatID := f.seats[0].ID

	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, alice)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Minute)

	expiresAt, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, alice)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(DefaultTTL), expiresAt)
}

func TestAcquireSoldSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seatID := f.seats[0].ID

	err := f.store.Transact(ctx, func(tx store.Tx) error {
		return tx.CreateBooking(&model.Booking{
			PublicCode:    "BKG-SOLD1",
			Session:       "someone",
			ShowtimeID:    f.showtime.ID,
			Status:        model.BookingPending,
			PaymentMethod: model.MethodCash,
			Seats:         []model.BookingSeat{{SeatId: seatID, Price: 90000}},
		})
	})
	require.NoError(t, err)

	_, err = f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, model.GuestHolder("alice"))
	assert.ErrorIs(t, err, ErrSeatSold)
}

func TestAcquireShowtimeStarted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.clock.Advance(4 * time.Hour)

	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{f.seats[0].ID}, model.GuestHolder("alice"))
	assert.ErrorIs(t, err, ErrShowtimeStarted)
}

func TestAvailabilityEvictsDeadLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seatID := f.seats[0].ID

	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, model.GuestHolder("alice"))
	require.NoError(t, err)

	f.clock.Advance(DefaultTTL + time.Second)

	av, err := f.manager.Availability(ctx, f.showtime.ID)
	require.NoError(t, err)
	assert.Empty(t, av.Locked, "lock chết không được lộ ra ngoài")
	assert.Empty(t, av.Sold)

	// đã bị xóa vật lý luôn, không chỉ lọc lúc đọc
	err = f.store.Transact(ctx, func(tx store.Tx) error {
		locks, err := tx.LocksByShowtime(f.showtime.ID)
		require.NoError(t, err)
		assert.Empty(t, locks)
		return nil
	})
	require.NoError(t, err)
}

func TestReleaseOnlyOwnLocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := model.GuestHolder("alice")
	seatID := f.seats[0].ID

	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, alice)
	require.NoError(t, err)

	require.NoError(t, f.manager.Release(ctx, f.showtime.ID, []uint{seatID}, model.GuestHolder("mallory")))
	av, err := f.manager.Availability(ctx, f.showtime.ID)
	require.NoError(t, err)
	assert.Contains(t, av.Locked, seatID, "người khác không release được lease")

	require.NoError(t, f.manager.Release(ctx, f.showtime.ID, []uint{seatID}, alice))
	av, err = f.manager.Availability(ctx, f.showtime.ID)
	require.NoError(t, err)
	assert.NotContains(t, av.Locked, seatID)

	// release lần nữa vẫn ok
	require.NoError(t, f.manager.Release(ctx, f.showtime.ID, []uint{seatID}, alice))
	assert.Len(t, f.notifier.byState(notify.SeatUnlocked), 1)
}

func TestAuthenticatedHolderAcrossSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seatID := f.seats[0].ID

	// cùng customer, hai session khác nhau (hai tab trình duyệt)
	_, err := f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, model.CustomerHolder(7, "tab-1"))
	require.NoError(t, err)
	_, err = f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, model.CustomerHolder(7, "tab-2"))
	assert.NoError(t, err, "cùng customer được giữ lại ghế của chính mình")

	_, err = f.manager.Acquire(ctx, f.showtime.ID, []uint{seatID}, model.CustomerHolder(8, "tab-3"))
	assert.ErrorIs(t, err, ErrSeatHeldByOther)
}
