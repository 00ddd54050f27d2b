// Package lock là trọng tài giữ ghế: mỗi (suất chiếu, ghế) chỉ có tối đa
// một lease còn sống tại mọi thời điểm.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"cinema_booking/model"
	"cinema_booking/notify"
	"cinema_booking/store"
)

// DefaultTTL là thời hạn lease cố định; muốn giữ tiếp client phải acquire
// lại (cùng holder acquire lại sẽ reset hạn) - không có heartbeat riêng.
const DefaultTTL = 10 * time.Minute

var (
	ErrSeatSold        = errors.New("seat already sold")
	ErrSeatHeldByOther = errors.New("seat held by another shopper")
	ErrShowtimeStarted = errors.New("showtime already started")
)

// IsLive là predicate sống/chết duy nhất cho lease, dùng chung bởi mọi
// đường đọc lẫn sweeper để hai bên không bao giờ lệch nhau về "hết hạn".
// Lock có expires_at <= now coi như không tồn tại dù chưa bị xóa.
func IsLive(l *model.SeatLock, now time.Time) bool {
	return l != nil && l.ExpiresAt.After(now)
}

// Availability là snapshot sơ đồ ghế cho render lần đầu và polling.
type Availability struct {
	Sold   []uint             `json:"sold"`
	Locked map[uint]time.Time `json:"locked"`
}

type Manager struct {
	store    store.Store
	clock    clockwork.Clock
	notifier notify.Notifier
	ttl      time.Duration
}

func NewManager(st store.Store, clock clockwork.Clock, notifier notify.Notifier) *Manager {
	return &Manager{store: st, clock: clock, notifier: notifier, ttl: DefaultTTL}
}

// Acquire giữ cả loạt ghế trong một đơn vị nguyên tử: lỗi một ghế thì
// không ghế nào được giữ. Mỗi ghế: đã bán -> ErrSeatSold; đang có lease
// sống của người khác -> ErrSeatHeldByOther; lease hết hạn hoặc của chính
// mình -> ghi đè lease mới; chưa có -> tạo. Đọc-rồi-ghi phải nằm trong
// cùng transaction với SELECT ... FOR UPDATE, nếu không hai người cùng
// thấy "chưa có lock" và cùng insert.
func (m *Manager) Acquire(ctx context.Context, showtimeID uint, seatIDs []uint, holder model.Holder) (time.Time, error) {
	expiresAt, err := m.tryAcquire(ctx, showtimeID, seatIDs, holder)
	if err != nil && retryable(err) {
		// đụng unique index khi hai phiên cùng insert, hoặc lỗi hạ tầng
		// thoáng qua: thử lại đúng một lần, lần hai sẽ thấy lock của đối
		// phương và trả lỗi nghiệp vụ
		expiresAt, err = m.tryAcquire(ctx, showtimeID, seatIDs, holder)
	}
	if err != nil {
		return time.Time{}, err
	}

	for _, seatID := range seatIDs {
		exp := expiresAt
		m.notifier.PublishSeatEvent(notify.SeatEvent{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			State:      notify.SeatLocked,
			HeldBy:     holder.Label(),
			ExpiresAt:  &exp,
		})
	}
	return expiresAt, nil
}

func (m *Manager) tryAcquire(ctx context.Context, showtimeID uint, seatIDs []uint, holder model.Holder) (time.Time, error) {
	now := m.clock.Now()
	expiresAt := now.Add(m.ttl)

	err := m.store.Transact(ctx, func(tx store.Tx) error {
		showtime, err := tx.ShowtimeByID(showtimeID)
		if err != nil {
			return err
		}
		if showtime.StartTime.Before(now) {
			return ErrShowtimeStarted
		}

		sold, err := tx.SoldSeatIDs(showtimeID)
		if err != nil {
			return err
		}
		soldSet := make(map[uint]bool, len(sold))
		for _, id := range sold {
			soldSet[id] = true
		}

		for _, seatID := range seatIDs {
			if soldSet[seatID] {
				return fmt.Errorf("seat %d: %w", seatID, ErrSeatSold)
			}

			existing, err := tx.LockForUpdate(showtimeID, seatID)
			if err != nil {
				return err
			}
			if IsLive(existing, now) && !existing.Holder().Same(holder) {
				return fmt.Errorf("seat %d: %w", seatID, ErrSeatHeldByOther)
			}

			fresh := model.SeatLock{
				ShowtimeId: showtimeID,
				SeatId:     seatID,
				CustomerId: holder.CustomerID,
				Session:    holder.Session,
				ExpiresAt:  expiresAt,
			}
			if existing != nil {
				// ghi đè lease hết hạn / lease của chính holder
				fresh.DTO = existing.DTO
			}
			if err := tx.SaveLock(&fresh); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return time.Time{}, err
	}
	return expiresAt, nil
}

// Release xóa lock nếu và chỉ nếu nó thuộc về caller; mọi trường hợp khác
// là no-op, không bao giờ trả lỗi cho thao tác thừa.
func (m *Manager) Release(ctx context.Context, showtimeID uint, seatIDs []uint, holder model.Holder) error {
	var released []uint
	err := m.store.Transact(ctx, func(tx store.Tx) error {
		released = released[:0]
		for _, seatID := range seatIDs {
			existing, err := tx.LockForUpdate(showtimeID, seatID)
			if err != nil {
				return err
			}
			if existing == nil || !existing.Holder().Same(holder) {
				continue
			}
			if err := tx.DeleteLock(showtimeID, seatID); err != nil {
				return err
			}
			released = append(released, seatID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, seatID := range released {
		m.notifier.PublishSeatEvent(notify.SeatEvent{
			ShowtimeID: showtimeID,
			SeatID:     seatID,
			State:      notify.SeatUnlocked,
		})
	}
	return nil
}

// Availability dọn lock chết (expires_at <= now) ngay trong lần đọc rồi
// mới trả snapshot - sweeper chạy theo chu kỳ nên không thể là nguồn sự
// thật duy nhất cho UI.
func (m *Manager) Availability(ctx context.Context, showtimeID uint) (*Availability, error) {
	now := m.clock.Now()
	av := &Availability{Locked: map[uint]time.Time{}}

	err := m.store.Transact(ctx, func(tx store.Tx) error {
		av.Sold = av.Sold[:0]
		for k := range av.Locked {
			delete(av.Locked, k)
		}

		locks, err := tx.LocksByShowtime(showtimeID)
		if err != nil {
			return err
		}
		for i := range locks {
			if !IsLive(&locks[i], now) {
				if err := tx.DeleteLock(showtimeID, locks[i].SeatId); err != nil {
					return err
				}
				continue
			}
			av.Locked[locks[i].SeatId] = locks[i].ExpiresAt
		}

		av.Sold, err = tx.SoldSeatIDs(showtimeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return av, nil
}

// retryable: lỗi nghiệp vụ trả thẳng cho client, phần còn lại coi là lỗi
// hạ tầng thoáng qua
func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrSeatSold),
		errors.Is(err, ErrSeatHeldByOther),
		errors.Is(err, ErrShowtimeStarted),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
