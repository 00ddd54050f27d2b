// Package sweeper dọn nền theo chu kỳ: xóa lease ghế đã chết và chuyển
// đơn CASH quá hạn sang EXPIRED. Sweeper chỉ là lưới an toàn - các đường
// đọc tự né lock chết bằng cùng một predicate.
package sweeper

import (
	"context"
	"log"

	"github.com/jonboulle/clockwork"

	"cinema_booking/booking"
	"cinema_booking/lock"
	"cinema_booking/model"
	"cinema_booking/notify"
	"cinema_booking/store"
)

type Sweeper struct {
	store    store.Store
	clock    clockwork.Clock
	notifier notify.Notifier
	bookings *booking.Service
}

func New(st store.Store, clock clockwork.Clock, notifier notify.Notifier, bookings *booking.Service) *Sweeper {
	return &Sweeper{store: st, clock: clock, notifier: notifier, bookings: bookings}
}

// Run chạy một lượt quét; chạy lại ngay sau đó là no-op. Lỗi từng đơn
// không chặn phần còn lại của lượt - đơn hỏng sẽ được thử lại lượt sau.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepLocks(ctx)
	s.sweepCashBookings(ctx)
}

func (s *Sweeper) sweepLocks(ctx context.Context) {
	now := s.clock.Now()
	var dead []model.SeatLock

	err := s.store.Transact(ctx, func(tx store.Tx) error {
		dead = dead[:0]
		expired, err := tx.ExpiredLocks(now)
		if err != nil {
			return err
		}
		for i := range expired {
			if lock.IsLive(&expired[i], now) {
				continue
			}
			if err := tx.DeleteLock(expired[i].ShowtimeId, expired[i].SeatId); err != nil {
				return err
			}
			dead = append(dead, expired[i])
		}
		return nil
	})
	if err != nil {
		log.Println("sweeper: dọn seat lock thất bại:", err)
		return
	}

	for _, l := range dead {
		s.notifier.PublishSeatEvent(notify.SeatEvent{
			ShowtimeID: l.ShowtimeId,
			SeatID:     l.SeatId,
			State:      notify.SeatUnlocked,
		})
	}
}

// đơn CASH còn PENDING mà suất chiếu bắt đầu trong vòng 30 phút (kể cả
// đã bắt đầu) coi như khách không đến lấy vé
func (s *Sweeper) sweepCashBookings(ctx context.Context) {
	cutoff := s.clock.Now().Add(booking.CancelCutoff)

	var stale []model.Booking
	err := s.store.Transact(ctx, func(tx store.Tx) error {
		var err error
		stale, err = tx.StaleCashBookings(cutoff)
		return err
	})
	if err != nil {
		log.Println("sweeper: quét đơn CASH thất bại:", err)
		return
	}

	for _, b := range stale {
		if err := s.bookings.Expire(ctx, b.ID); err != nil {
			log.Printf("sweeper: expire đơn %s thất bại: %v", b.PublicCode, err)
		}
	}
}
