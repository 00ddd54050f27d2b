package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"cinema_booking/model"
)

type lockKey struct {
	showtimeID uint
	seatID     uint
}

// Memory là backend trong bộ nhớ, dùng cho test và chạy dev không cần
// Postgres. Transact giữ mutex suốt đơn vị công việc nên mọi transaction
// được serialize - tương đương mức serializable của backend thật - và
// rollback bằng cách chụp lại toàn bộ dữ liệu trước khi chạy fn.
type Memory struct {
	mu   sync.Mutex
	seq  uint
	data memData
}

type memData struct {
	locks      map[lockKey]model.SeatLock
	showtimes  map[uint]model.Showtime
	seats      map[uint]model.Seat
	combos     map[uint]model.Combo
	customers  map[uint]model.Customer
	bookings   map[uint]model.Booking
	payments   map[uint]model.Payment
	wallets    map[uint]model.Wallet
	walletTxns []model.WalletTransaction
}

func NewMemory() *Memory {
	return &Memory{data: memData{
		locks:     map[lockKey]model.SeatLock{},
		showtimes: map[uint]model.Showtime{},
		seats:     map[uint]model.Seat{},
		combos:    map[uint]model.Combo{},
		customers: map[uint]model.Customer{},
		bookings:  map[uint]model.Booking{},
		payments:  map[uint]model.Payment{},
		wallets:   map[uint]model.Wallet{},
	}}
}

func (d memData) clone() memData {
	c := memData{
		locks:      make(map[lockKey]model.SeatLock, len(d.locks)),
		showtimes:  make(map[uint]model.Showtime, len(d.showtimes)),
		seats:      make(map[uint]model.Seat, len(d.seats)),
		combos:     make(map[uint]model.Combo, len(d.combos)),
		customers:  make(map[uint]model.Customer, len(d.customers)),
		bookings:   make(map[uint]model.Booking, len(d.bookings)),
		payments:   make(map[uint]model.Payment, len(d.payments)),
		wallets:    make(map[uint]model.Wallet, len(d.wallets)),
		walletTxns: append([]model.WalletTransaction(nil), d.walletTxns...),
	}
	for k, v := range d.locks {
		c.locks[k] = v
	}
	for k, v := range d.showtimes {
		c.showtimes[k] = v
	}
	for k, v := range d.seats {
		c.seats[k] = v
	}
	for k, v := range d.combos {
		c.combos[k] = v
	}
	for k, v := range d.customers {
		c.customers[k] = v
	}
	for k, v := range d.bookings {
		c.bookings[k] = cloneBooking(v)
	}
	for k, v := range d.payments {
		c.payments[k] = v
	}
	for k, v := range d.wallets {
		c.wallets[k] = v
	}
	return c
}

func cloneBooking(b model.Booking) model.Booking {
	b.Seats = append([]model.BookingSeat(nil), b.Seats...)
	b.Combos = append([]model.BookingCombo(nil), b.Combos...)
	return b
}

func (m *Memory) nextID() uint {
	m.seq++
	return m.seq
}

// --- seeding (dùng trong test / dev) ---

func (m *Memory) AddShowtime(st model.Showtime) model.Showtime {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.ID == 0 {
		st.ID = m.nextID()
	}
	m.data.showtimes[st.ID] = st
	return st
}

func (m *Memory) AddSeat(s model.Seat) model.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == 0 {
		s.ID = m.nextID()
	}
	m.data.seats[s.ID] = s
	return s
}

func (m *Memory) AddCombo(cb model.Combo) model.Combo {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cb.ID == 0 {
		cb.ID = m.nextID()
	}
	m.data.combos[cb.ID] = cb
	return cb
}

func (m *Memory) AddCustomer(c model.Customer) model.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.nextID()
	}
	m.data.customers[c.ID] = c
	return c
}

func (m *Memory) SetWalletBalance(customerID uint, balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.data.wallets[customerID]
	if !ok {
		w = model.Wallet{DTO: model.DTO{ID: m.nextID()}, CustomerID: customerID}
	}
	w.Balance = balance
	m.data.wallets[customerID] = w
}

// --- Store ---

func (m *Memory) Transact(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	seq := m.seq
	if err := fn(&memTx{m: m}); err != nil {
		m.data = snapshot
		m.seq = seq
		return err
	}
	return nil
}

func (m *Memory) BookingsByCustomer(ctx context.Context, customerID uint) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Booking
	for _, b := range m.data.bookings {
		if b.CustomerID != nil && *b.CustomerID == customerID {
			out = append(out, m.hydrateBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CustomerByID(ctx context.Context, id uint) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.data.customers[id]
	if !ok || !c.IsActive {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) Wallet(ctx context.Context, customerID uint) (*model.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.data.wallets[customerID]
	if !ok {
		w = model.Wallet{DTO: model.DTO{ID: m.nextID()}, CustomerID: customerID}
		m.data.wallets[customerID] = w
	}
	return &w, nil
}

func (m *Memory) WalletTransactions(ctx context.Context, customerID uint, limit int) ([]model.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.WalletTransaction
	for i := len(m.data.walletTxns) - 1; i >= 0; i-- {
		if m.data.walletTxns[i].CustomerID == customerID {
			out = append(out, m.data.walletTxns[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) PurgePendingPaymentsBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged int64
	for id, p := range m.data.payments {
		if p.Status == model.PaymentRowPending && p.CreatedAt.Before(before) {
			delete(m.data.payments, id)
			purged++
		}
	}
	return purged, nil
}

func (m *Memory) hydrateBooking(b model.Booking) model.Booking {
	b = cloneBooking(b)
	b.Showtime = m.data.showtimes[b.ShowtimeID]
	return b
}

// --- Tx ---

type memTx struct {
	m *Memory
}

func (t *memTx) LockForUpdate(showtimeID, seatID uint) (*model.SeatLock, error) {
	l, ok := t.m.data.locks[lockKey{showtimeID, seatID}]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (t *memTx) SaveLock(l *model.SeatLock) error {
	if l.ID == 0 {
		l.ID = t.m.nextID()
		l.CreatedAt = time.Now()
	}
	t.m.data.locks[lockKey{l.ShowtimeId, l.SeatId}] = *l
	return nil
}

func (t *memTx) DeleteLock(showtimeID, seatID uint) error {
	delete(t.m.data.locks, lockKey{showtimeID, seatID})
	return nil
}

func (t *memTx) LocksByShowtime(showtimeID uint) ([]model.SeatLock, error) {
	var out []model.SeatLock
	for _, l := range t.m.data.locks {
		if l.ShowtimeId == showtimeID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (t *memTx) ExpiredLocks(now time.Time) ([]model.SeatLock, error) {
	var out []model.SeatLock
	for _, l := range t.m.data.locks {
		if !l.ExpiresAt.After(now) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (t *memTx) SoldSeatIDs(showtimeID uint) ([]uint, error) {
	var ids []uint
	for _, b := range t.m.data.bookings {
		if b.ShowtimeID != showtimeID || model.TerminalStatus(b.Status) {
			continue
		}
		for _, bs := range b.Seats {
			ids = append(ids, bs.SeatId)
		}
	}
	return ids, nil
}

func (t *memTx) ShowtimeByCode(code string) (*model.Showtime, error) {
	for _, st := range t.m.data.showtimes {
		if st.PublicCode == code {
			return &st, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) ShowtimeByID(id uint) (*model.Showtime, error) {
	st, ok := t.m.data.showtimes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (t *memTx) SeatsByIDs(ids []uint) ([]model.Seat, error) {
	var out []model.Seat
	for _, id := range ids {
		if s, ok := t.m.data.seats[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) CombosByIDs(ids []uint) ([]model.Combo, error) {
	var out []model.Combo
	for _, id := range ids {
		if cb, ok := t.m.data.combos[id]; ok && cb.IsActive {
			out = append(out, cb)
		}
	}
	return out, nil
}

func (t *memTx) CreateBooking(b *model.Booking) error {
	b.ID = t.m.nextID()
	b.CreatedAt = time.Now()
	for i := range b.Seats {
		b.Seats[i].ID = t.m.nextID()
		b.Seats[i].BookingId = b.ID
	}
	for i := range b.Combos {
		b.Combos[i].ID = t.m.nextID()
		b.Combos[i].BookingId = b.ID
	}
	t.m.data.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (t *memTx) BookingByID(id uint) (*model.Booking, error) {
	b, ok := t.m.data.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	hydrated := t.m.hydrateBooking(b)
	return &hydrated, nil
}

func (t *memTx) BookingByCode(code string) (*model.Booking, error) {
	for _, b := range t.m.data.bookings {
		if b.PublicCode == code {
			hydrated := t.m.hydrateBooking(b)
			return &hydrated, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) SaveBooking(b *model.Booking) error {
	if _, ok := t.m.data.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	saved := cloneBooking(*b)
	saved.Showtime = model.Showtime{}
	t.m.data.bookings[b.ID] = saved
	return nil
}

func (t *memTx) StaleCashBookings(startingBefore time.Time) ([]model.Booking, error) {
	var out []model.Booking
	for _, b := range t.m.data.bookings {
		if b.PaymentMethod != model.MethodCash || b.Status != model.BookingPending {
			continue
		}
		st, ok := t.m.data.showtimes[b.ShowtimeID]
		if ok && !st.StartTime.After(startingBefore) {
			out = append(out, t.m.hydrateBooking(b))
		}
	}
	return out, nil
}

func (t *memTx) CreatePayment(p *model.Payment) error {
	p.ID = t.m.nextID()
	p.CreatedAt = time.Now()
	t.m.data.payments[p.ID] = *p
	return nil
}

func (t *memTx) PaymentByOrderRef(ref string) (*model.Payment, error) {
	for _, p := range t.m.data.payments {
		if p.OrderRef == ref {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memTx) PendingPaymentByBooking(bookingID uint) (*model.Payment, error) {
	for _, p := range t.m.data.payments {
		if p.BookingId == bookingID && p.Status == model.PaymentRowPending {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *memTx) SavePayment(p *model.Payment) error {
	t.m.data.payments[p.ID] = *p
	return nil
}

func (t *memTx) WalletForUpdate(customerID uint) (*model.Wallet, error) {
	w, ok := t.m.data.wallets[customerID]
	if !ok {
		w = model.Wallet{DTO: model.DTO{ID: t.m.nextID()}, CustomerID: customerID}
		t.m.data.wallets[customerID] = w
	}
	return &w, nil
}

func (t *memTx) SaveWallet(w *model.Wallet) error {
	t.m.data.wallets[w.CustomerID] = *w
	return nil
}

func (t *memTx) AppendWalletTransaction(txn *model.WalletTransaction) error {
	txn.ID = t.m.nextID()
	txn.CreatedAt = time.Now()
	t.m.data.walletTxns = append(t.m.data.walletTxns, *txn)
	return nil
}
