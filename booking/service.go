// Package booking là sổ cái đơn đặt vé và tầng chốt tiền: mọi chuyển
// trạng thái đơn và mọi bút toán ví đều đi qua đây trong một đơn vị
// nguyên tử.
package booking

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"cinema_booking/helper"
	"cinema_booking/lock"
	"cinema_booking/model"
	"cinema_booking/notify"
	"cinema_booking/store"
)

// Mailer gửi mail xác nhận sau khi đơn chốt CONFIRMED; gửi bất đồng bộ,
// lỗi gửi không ảnh hưởng đơn.
type Mailer interface {
	SendBookingConfirmation(b *model.Booking)
}

type Service struct {
	store    store.Store
	clock    clockwork.Clock
	notifier notify.Notifier
	gateway  PaymentGateway
	mailer   Mailer
}

func NewService(st store.Store, clock clockwork.Clock, notifier notify.Notifier, gateway PaymentGateway, mailer Mailer) *Service {
	return &Service{store: st, clock: clock, notifier: notifier, gateway: gateway, mailer: mailer}
}

type CheckoutResult struct {
	Booking    *model.Booking `json:"booking"`
	PaymentURL string         `json:"paymentUrl,omitempty"`
}

// Checkout đổi các lease ghế còn sống của holder thành một đơn: kiểm tra
// lease, chụp giá ghế/combo vào line item, tiêu thụ lock và chốt tiền
// theo phương thức - tất cả trong một transaction. Mất bất kỳ lease nào
// là hỏng cả đơn (ErrReservationLost), không có đơn một nửa.
func (s *Service) Checkout(ctx context.Context, in model.CreateBookingInput, holder model.Holder, ipAddr string) (*CheckoutResult, error) {
	now := s.clock.Now()
	var b *model.Booking
	var orderRef string

	err := s.store.Transact(ctx, func(tx store.Tx) error {
		showtime, err := tx.ShowtimeByCode(in.ShowtimeCode)
		if err != nil {
			return err
		}
		if showtime.StartTime.Before(now) {
			return lock.ErrShowtimeStarted
		}

		// lease nào cũng phải còn sống và thuộc đúng holder
		for _, seatID := range in.SeatIds {
			l, err := tx.LockForUpdate(showtime.ID, seatID)
			if err != nil {
				return err
			}
			if !lock.IsLive(l, now) || !l.Holder().Same(holder) {
				return fmt.Errorf("seat %d: %w", seatID, ErrReservationLost)
			}
		}

		seats, err := tx.SeatsByIDs(in.SeatIds)
		if err != nil {
			return err
		}
		if len(seats) != len(in.SeatIds) {
			return store.ErrNotFound
		}

		var seatSubtotal float64
		lines := make([]model.BookingSeat, 0, len(seats))
		for _, seat := range seats {
			// chụp giá tại thời điểm bán, đổi giá sau không ảnh hưởng đơn
			price := helper.SeatPrice(showtime.Price, seat.SeatType.PriceModifier)
			seatSubtotal += price
			lines = append(lines, model.BookingSeat{
				SeatId:  seat.ID,
				SeatRow: seat.Row,
				SeatCol: seat.Column,
				Price:   price,
			})
		}

		var comboSubtotal float64
		comboLines := make([]model.BookingCombo, 0, len(in.Combos))
		if len(in.Combos) > 0 {
			ids := make([]uint, 0, len(in.Combos))
			for _, c := range in.Combos {
				ids = append(ids, c.ComboId)
			}
			combos, err := tx.CombosByIDs(ids)
			if err != nil {
				return err
			}
			byID := make(map[uint]model.Combo, len(combos))
			for _, c := range combos {
				byID[c.ID] = c
			}
			for _, cl := range in.Combos {
				combo, ok := byID[cl.ComboId]
				if !ok {
					return store.ErrNotFound
				}
				comboSubtotal += combo.Price * float64(cl.Quantity)
				comboLines = append(comboLines, model.BookingCombo{
					ComboId:  combo.ID,
					Quantity: cl.Quantity,
					Price:    combo.Price,
				})
			}
		}

		total := seatSubtotal + comboSubtotal

		// ví: kiểm tra số dư trước khi tạo đơn để fail nhanh
		var wallet *model.Wallet
		if in.PaymentMethod == model.MethodWallet {
			if !holder.Authenticated() {
				return ErrWalletRequiresAccount
			}
			wallet, err = tx.WalletForUpdate(*holder.CustomerID)
			if err != nil {
				return err
			}
			if wallet.Balance < total {
				return ErrInsufficientBalance
			}
		}

		b = &model.Booking{
			PublicCode:    newBookingCode(),
			CustomerID:    holder.CustomerID,
			Session:       holder.Session,
			ShowtimeID:    showtime.ID,
			SeatSubtotal:  seatSubtotal,
			ComboSubtotal: comboSubtotal,
			TotalAmount:   total,
			PaymentMethod: in.PaymentMethod,
			PaymentStatus: model.PaymentPending,
			Status:        model.BookingPending,
			CustomerName:  in.CustomerName,
			Phone:         in.Phone,
			Email:         in.Email,
			Seats:         lines,
			Combos:        comboLines,
		}
		if err := tx.CreateBooking(b); err != nil {
			return err
		}

		// tiêu thụ lease: ghế giờ thuộc sold-set qua chính đơn này
		for _, seatID := range in.SeatIds {
			if err := tx.DeleteLock(showtime.ID, seatID); err != nil {
				return err
			}
		}

		switch in.PaymentMethod {
		case model.MethodCash:
			// trả tại quầy: ghi nhận đã thu, đơn đợi quầy xác nhận
			b.PaymentStatus = model.PaymentPaid
			paidAt := now
			b.PaidAt = &paidAt

		case model.MethodWallet:
			before := wallet.Balance
			wallet.Balance -= total
			if err := tx.SaveWallet(wallet); err != nil {
				return err
			}
			if err := tx.AppendWalletTransaction(&model.WalletTransaction{
				CustomerID:    *holder.CustomerID,
				Type:          model.WalletPayment,
				Amount:        total,
				BalanceBefore: before,
				BalanceAfter:  wallet.Balance,
				Reason:        "Thanh toán đơn " + b.PublicCode,
				BookingID:     &b.ID,
			}); err != nil {
				return err
			}
			b.PaymentStatus = model.PaymentPaid
			b.Status = model.BookingConfirmed
			paidAt := now
			b.PaidAt = &paidAt

		case model.MethodVNPay:
			orderRef = s.newOrderRef(b.ID)
			if err := tx.CreatePayment(&model.Payment{
				BookingId: b.ID,
				Amount:    total,
				OrderRef:  orderRef,
				Status:    model.PaymentRowPending,
				Method:    model.MethodVNPay,
			}); err != nil {
				return err
			}
		}

		b.Showtime = *showtime
		return tx.SaveBooking(b)
	})
	if err != nil {
		return nil, err
	}

	for _, line := range b.Seats {
		s.notifier.PublishSeatEvent(notify.SeatEvent{
			ShowtimeID: b.ShowtimeID,
			SeatID:     line.SeatId,
			State:      notify.SeatSold,
		})
	}

	result := &CheckoutResult{Booking: b}
	if orderRef != "" {
		paymentURL, err := s.gateway.PaymentURL(model.PaymentRequest{
			Amount:    int64(b.TotalAmount),
			OrderInfo: "Thanh toan don " + b.PublicCode,
			TxnRef:    orderRef,
			IPAddr:    ipAddr,
		})
		if err != nil {
			// đơn và Payment PENDING đã commit: trả kèm đơn để client còn mã
			// mà phát lại URL qua CreatePayment hoặc hủy, không checkout lại
			return result, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		result.PaymentURL = paymentURL
	}

	if b.Status == model.BookingConfirmed && s.mailer != nil {
		s.mailer.SendBookingConfirmation(b)
	}
	return result, nil
}

// HandleCallback xử lý kết quả từ cổng thanh toán, idempotent theo trạng
// thái bản ghi Payment: callback lặp (return lẫn IPN về cùng mã) là no-op.
func (s *Service) HandleCallback(ctx context.Context, orderRef string, ok bool) error {
	now := s.clock.Now()
	var confirmed, orphaned *model.Booking

	err := s.store.Transact(ctx, func(tx store.Tx) error {
		confirmed, orphaned = nil, nil
		p, err := tx.PaymentByOrderRef(orderRef)
		if err != nil {
			return err
		}
		if p.Status != model.PaymentRowPending {
			return nil // đã xử lý rồi
		}

		if !ok {
			p.Status = model.PaymentRowFailed
			return tx.SavePayment(p) // đơn giữ PENDING, client thử thanh toán lại
		}

		p.Status = model.PaymentRowSuccess
		if err := tx.SavePayment(p); err != nil {
			return err
		}

		b, err := tx.BookingByID(p.BookingId)
		if err != nil {
			return err
		}
		if !model.CanTransition(b.Status, model.BookingConfirmed) {
			orphaned = b // đơn đã hết hạn/hủy trước khi tiền về
			return nil
		}
		b.Status = model.BookingConfirmed
		b.PaymentStatus = model.PaymentPaid
		paidAt := now
		b.PaidAt = &paidAt
		if err := tx.SaveBooking(b); err != nil {
			return err
		}
		confirmed = b
		return nil
	})
	if err != nil {
		return err
	}

	if orphaned != nil {
		// tiền đã thu nhưng không áp được vào đơn, để đối soát hoàn thủ công
		log.Printf("payment: %s đã thu nhưng đơn %s đang %s, cần đối soát hoàn tiền", orderRef, orphaned.PublicCode, orphaned.Status)
	}
	if confirmed != nil && s.mailer != nil {
		s.mailer.SendBookingConfirmation(confirmed)
	}
	return nil
}

// Cancel hủy đơn của chính holder trước mốc 30 phút. Đơn đã thanh toán
// qua ví/cổng được hoàn tiền vào ví ngay trong cùng transaction: hoặc cả
// REFUNDED lẫn bút toán hoàn cùng vào, hoặc không gì cả.
func (s *Service) Cancel(ctx context.Context, code string, holder model.Holder, reason string) (*model.Booking, error) {
	now := s.clock.Now()
	var b *model.Booking
	var freedSeats []uint

	err := s.store.Transact(ctx, func(tx store.Tx) error {
		freedSeats = freedSeats[:0]
		var err error
		b, err = tx.BookingByCode(code)
		if err != nil {
			return err
		}
		if !b.Holder().Same(holder) {
			return store.ErrNotFound
		}
		if model.TerminalStatus(b.Status) {
			return ErrNotCancellable
		}
		if now.Add(CancelCutoff).After(b.Showtime.StartTime) {
			return ErrCancelWindowClosed
		}

		cancelledAt := now
		b.CancelledAt = &cancelledAt
		b.RefundReason = reason

		refundable := b.PaymentStatus == model.PaymentPaid && b.PaymentMethod != model.MethodCash
		if refundable {
			if b.CustomerID != nil {
				wallet, err := tx.WalletForUpdate(*b.CustomerID)
				if err != nil {
					return err
				}
				before := wallet.Balance
				wallet.Balance += b.TotalAmount
				if err := tx.SaveWallet(wallet); err != nil {
					return err
				}
				if err := tx.AppendWalletTransaction(&model.WalletTransaction{
					CustomerID:    *b.CustomerID,
					Type:          model.WalletRefund,
					Amount:        b.TotalAmount,
					BalanceBefore: before,
					BalanceAfter:  wallet.Balance,
					Reason:        "Hoàn tiền đơn " + b.PublicCode,
					BookingID:     &b.ID,
				}); err != nil {
					return err
				}
			}
			refund := b.TotalAmount
			b.RefundAmount = &refund
			refundedAt := now
			b.RefundedAt = &refundedAt
			b.Status = model.BookingRefunded
		} else {
			b.Status = model.BookingCancelled
		}

		// dọn lease sót (đơn bình thường đã tiêu thụ lock lúc checkout)
		for _, line := range b.Seats {
			existing, err := tx.LockForUpdate(b.ShowtimeID, line.SeatId)
			if err != nil {
				return err
			}
			if existing != nil && existing.Holder().Same(b.Holder()) {
				if err := tx.DeleteLock(b.ShowtimeID, line.SeatId); err != nil {
					return err
				}
			}
			freedSeats = append(freedSeats, line.SeatId)
		}

		return tx.SaveBooking(b)
	})
	if err != nil {
		return nil, err
	}

	// đơn terminal rơi khỏi sold-set, ghế mở lại cho người khác
	for _, seatID := range freedSeats {
		s.notifier.PublishSeatEvent(notify.SeatEvent{
			ShowtimeID: b.ShowtimeID,
			SeatID:     seatID,
			State:      notify.SeatUnlocked,
		})
	}
	return b, nil
}

// Expire do sweeper gọi: chỉ chuyển đơn CASH còn PENDING sang EXPIRED,
// mọi trường hợp khác là no-op.
func (s *Service) Expire(ctx context.Context, bookingID uint) error {
	var b *model.Booking
	expired := false

	err := s.store.Transact(ctx, func(tx store.Tx) error {
		expired = false
		var err error
		b, err = tx.BookingByID(bookingID)
		if err != nil {
			return err
		}
		if b.PaymentMethod != model.MethodCash || b.Status != model.BookingPending {
			return nil
		}
		b.Status = model.BookingExpired

		// dọn lease sót như Cancel
		for _, line := range b.Seats {
			existing, err := tx.LockForUpdate(b.ShowtimeID, line.SeatId)
			if err != nil {
				return err
			}
			if existing != nil && existing.Holder().Same(b.Holder()) {
				if err := tx.DeleteLock(b.ShowtimeID, line.SeatId); err != nil {
					return err
				}
			}
		}

		expired = true
		return tx.SaveBooking(b)
	})
	if err != nil || !expired {
		return err
	}

	for _, line := range b.Seats {
		s.notifier.PublishSeatEvent(notify.SeatEvent{
			ShowtimeID: b.ShowtimeID,
			SeatID:     line.SeatId,
			State:      notify.SeatUnlocked,
		})
	}
	return nil
}

// CreatePayment phát lại URL thanh toán cho đơn VNPAY còn PENDING: dùng
// lại bản ghi Payment đang chờ với mã tham chiếu mới, mỗi đơn chỉ có một
// bản ghi Payment sống.
func (s *Service) CreatePayment(ctx context.Context, code string, holder model.Holder, ipAddr string) (string, error) {
	var b *model.Booking
	var orderRef string

	err := s.store.Transact(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.BookingByCode(code)
		if err != nil {
			return err
		}
		if !b.Holder().Same(holder) {
			return store.ErrNotFound
		}
		if b.PaymentMethod != model.MethodVNPay || b.Status != model.BookingPending || b.PaymentStatus != model.PaymentPending {
			return ErrNotPayable
		}

		orderRef = s.newOrderRef(b.ID)
		p, err := tx.PendingPaymentByBooking(b.ID)
		if err != nil {
			return err
		}
		if p == nil {
			return tx.CreatePayment(&model.Payment{
				BookingId: b.ID,
				Amount:    b.TotalAmount,
				OrderRef:  orderRef,
				Status:    model.PaymentRowPending,
				Method:    model.MethodVNPay,
			})
		}
		p.OrderRef = orderRef
		return tx.SavePayment(p)
	})
	if err != nil {
		return "", err
	}

	paymentURL, err := s.gateway.PaymentURL(model.PaymentRequest{
		Amount:    int64(b.TotalAmount),
		OrderInfo: "Thanh toan don " + b.PublicCode,
		TxnRef:    orderRef,
		IPAddr:    ipAddr,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return paymentURL, nil
}

// Booking trả chi tiết đơn cho đúng chủ đơn.
func (s *Service) Booking(ctx context.Context, code string, holder model.Holder) (*model.Booking, error) {
	var b *model.Booking
	err := s.store.Transact(ctx, func(tx store.Tx) error {
		var err error
		b, err = tx.BookingByCode(code)
		if err != nil {
			return err
		}
		if !b.Holder().Same(holder) {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Deposit nạp ví kèm bút toán sổ cái trong cùng transaction.
func (s *Service) Deposit(ctx context.Context, customerID uint, amount float64) (*model.Wallet, error) {
	var wallet *model.Wallet
	err := s.store.Transact(ctx, func(tx store.Tx) error {
		var err error
		wallet, err = tx.WalletForUpdate(customerID)
		if err != nil {
			return err
		}
		before := wallet.Balance
		wallet.Balance += amount
		if err := tx.SaveWallet(wallet); err != nil {
			return err
		}
		return tx.AppendWalletTransaction(&model.WalletTransaction{
			CustomerID:    customerID,
			Type:          model.WalletDeposit,
			Amount:        amount,
			BalanceBefore: before,
			BalanceAfter:  wallet.Balance,
			Reason:        "Nạp ví",
		})
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

func newBookingCode() string {
	return "BKG-" + strings.ToUpper(uuid.NewString()[:8])
}

func (s *Service) newOrderRef(bookingID uint) string {
	return fmt.Sprintf("PAY-%d-%d", bookingID, s.clock.Now().UnixNano())
}
