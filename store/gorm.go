package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cinema_booking/model"
)

// Gorm là backend Postgres. Transact dựa trên db.Transaction của GORM,
// khóa hàng bằng SELECT ... FOR UPDATE.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (g *Gorm) BookingsByCustomer(ctx context.Context, customerID uint) ([]model.Booking, error) {
	var bookings []model.Booking
	err := g.db.WithContext(ctx).
		Preload("Seats").
		Preload("Combos").
		Preload("Showtime").
		Preload("Showtime.Room").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&bookings).Error
	return bookings, err
}

func (g *Gorm) CustomerByID(ctx context.Context, id uint) (*model.Customer, error) {
	var customer model.Customer
	if err := g.db.WithContext(ctx).First(&customer, "id = ? AND is_active IS TRUE", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (g *Gorm) Wallet(ctx context.Context, customerID uint) (*model.Wallet, error) {
	var wallet model.Wallet
	err := g.db.WithContext(ctx).
		Where(model.Wallet{CustomerID: customerID}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (g *Gorm) WalletTransactions(ctx context.Context, customerID uint, limit int) ([]model.WalletTransaction, error) {
	var txns []model.WalletTransaction
	q := g.db.WithContext(ctx).Where("customer_id = ?", customerID).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&txns).Error
	return txns, err
}

func (g *Gorm) PurgePendingPaymentsBefore(ctx context.Context, before time.Time) (int64, error) {
	res := g.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.PaymentRowPending, before).
		Delete(&model.Payment{})
	return res.RowsAffected, res.Error
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockForUpdate(showtimeID, seatID uint) (*model.SeatLock, error) {
	var lock model.SeatLock
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("showtime_id = ? AND seat_id = ?", showtimeID, seatID).
		First(&lock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (t *gormTx) SaveLock(l *model.SeatLock) error {
	return t.db.Save(l).Error
}

func (t *gormTx) DeleteLock(showtimeID, seatID uint) error {
	return t.db.
		Where("showtime_id = ? AND seat_id = ?", showtimeID, seatID).
		Delete(&model.SeatLock{}).Error
}

func (t *gormTx) LocksByShowtime(showtimeID uint) ([]model.SeatLock, error) {
	var locks []model.SeatLock
	err := t.db.Where("showtime_id = ?", showtimeID).Find(&locks).Error
	return locks, err
}

func (t *gormTx) ExpiredLocks(now time.Time) ([]model.SeatLock, error) {
	var locks []model.SeatLock
	err := t.db.Where("expires_at <= ?", now).Find(&locks).Error
	return locks, err
}

func (t *gormTx) SoldSeatIDs(showtimeID uint) ([]uint, error) {
	var ids []uint
	err := t.db.Model(&model.BookingSeat{}).
		Joins("JOIN bookings ON bookings.id = booking_seats.booking_id").
		Where("bookings.showtime_id = ? AND bookings.status IN ?",
			showtimeID, []string{model.BookingPending, model.BookingConfirmed}).
		Pluck("booking_seats.seat_id", &ids).Error
	return ids, err
}

func (t *gormTx) ShowtimeByCode(code string) (*model.Showtime, error) {
	var st model.Showtime
	if err := t.db.Preload("Room").Where("public_code = ?", code).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (t *gormTx) ShowtimeByID(id uint) (*model.Showtime, error) {
	var st model.Showtime
	if err := t.db.Preload("Room").First(&st, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (t *gormTx) SeatsByIDs(ids []uint) ([]model.Seat, error) {
	var seats []model.Seat
	err := t.db.Preload("SeatType").Where("id IN ?", ids).Find(&seats).Error
	return seats, err
}

func (t *gormTx) CombosByIDs(ids []uint) ([]model.Combo, error) {
	var combos []model.Combo
	err := t.db.Where("id IN ? AND is_active IS TRUE", ids).Find(&combos).Error
	return combos, err
}

func (t *gormTx) CreateBooking(b *model.Booking) error {
	return t.db.Create(b).Error
}

func (t *gormTx) BookingByID(id uint) (*model.Booking, error) {
	return t.firstBooking("bookings.id = ?", id)
}

func (t *gormTx) BookingByCode(code string) (*model.Booking, error) {
	return t.firstBooking("public_code = ?", code)
}

func (t *gormTx) firstBooking(cond string, arg any) (*model.Booking, error) {
	var b model.Booking
	err := t.db.
		Preload("Seats").
		Preload("Combos").
		Preload("Showtime").
		Where(cond, arg).
		First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *gormTx) SaveBooking(b *model.Booking) error {
	return t.db.Omit("Seats", "Combos", "Showtime", "Customer").Save(b).Error
}

func (t *gormTx) StaleCashBookings(startingBefore time.Time) ([]model.Booking, error) {
	var bookings []model.Booking
	err := t.db.
		Preload("Seats").
		Joins("JOIN showtimes ON showtimes.id = bookings.showtime_id").
		Where("bookings.payment_method = ? AND bookings.status = ? AND showtimes.start_time <= ?",
			model.MethodCash, model.BookingPending, startingBefore).
		Find(&bookings).Error
	return bookings, err
}

func (t *gormTx) CreatePayment(p *model.Payment) error {
	return t.db.Create(p).Error
}

func (t *gormTx) PaymentByOrderRef(ref string) (*model.Payment, error) {
	var p model.Payment
	err := t.db.Where("order_ref = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) PendingPaymentByBooking(bookingID uint) (*model.Payment, error) {
	var p model.Payment
	err := t.db.
		Where("booking_id = ? AND status = ?", bookingID, model.PaymentRowPending).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) SavePayment(p *model.Payment) error {
	return t.db.Save(p).Error
}

func (t *gormTx) WalletForUpdate(customerID uint) (*model.Wallet, error) {
	var wallet model.Wallet
	err := t.db.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ?", customerID).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = model.Wallet{CustomerID: customerID}
		if err := t.db.Create(&wallet).Error; err != nil {
			return nil, err
		}
		return &wallet, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (t *gormTx) SaveWallet(w *model.Wallet) error {
	return t.db.Save(w).Error
}

func (t *gormTx) AppendWalletTransaction(txn *model.WalletTransaction) error {
	return t.db.Create(txn).Error
}
