package store

import (
	"context"
	"errors"
	"time"

	"cinema_booking/model"
)

var ErrNotFound = errors.New("store: record not found")

// Tx gom mọi thao tác đọc/ghi bên trong một đơn vị nguyên tử. Mọi ghi vào
// seat_locks và ví đều phải đi qua đây - không code nào khác được ghi thẳng.
type Tx interface {
	// seat locks
	LockForUpdate(showtimeID, seatID uint) (*model.SeatLock, error) // (nil, nil) khi không có lock
	SaveLock(l *model.SeatLock) error
	DeleteLock(showtimeID, seatID uint) error
	LocksByShowtime(showtimeID uint) ([]model.SeatLock, error)
	ExpiredLocks(now time.Time) ([]model.SeatLock, error)

	// ghế đã bán = ghế thuộc đơn chưa terminal (PENDING/CONFIRMED)
	SoldSeatIDs(showtimeID uint) ([]uint, error)

	// reference data
	ShowtimeByCode(code string) (*model.Showtime, error)
	ShowtimeByID(id uint) (*model.Showtime, error)
	SeatsByIDs(ids []uint) ([]model.Seat, error)
	CombosByIDs(ids []uint) ([]model.Combo, error)

	// bookings
	CreateBooking(b *model.Booking) error
	BookingByID(id uint) (*model.Booking, error)
	BookingByCode(code string) (*model.Booking, error)
	SaveBooking(b *model.Booking) error
	// đơn CASH còn PENDING có suất chiếu bắt đầu trước startingBefore
	StaleCashBookings(startingBefore time.Time) ([]model.Booking, error)

	// payments
	CreatePayment(p *model.Payment) error
	PaymentByOrderRef(ref string) (*model.Payment, error)
	PendingPaymentByBooking(bookingID uint) (*model.Payment, error)
	SavePayment(p *model.Payment) error

	// wallet + sổ cái
	WalletForUpdate(customerID uint) (*model.Wallet, error) // tạo ví 0đ nếu chưa có
	SaveWallet(w *model.Wallet) error
	AppendWalletTransaction(t *model.WalletTransaction) error
}

type Store interface {
	// Transact chạy fn như một đơn vị nguyên tử; lỗi trả về rollback toàn bộ.
	Transact(ctx context.Context, fn func(tx Tx) error) error

	// đọc ngoài transaction
	BookingsByCustomer(ctx context.Context, customerID uint) ([]model.Booking, error)
	CustomerByID(ctx context.Context, id uint) (*model.Customer, error)
	Wallet(ctx context.Context, customerID uint) (*model.Wallet, error)
	WalletTransactions(ctx context.Context, customerID uint, limit int) ([]model.WalletTransaction, error)
	PurgePendingPaymentsBefore(ctx context.Context, before time.Time) (int64, error)
}
