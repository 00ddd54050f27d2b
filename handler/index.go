package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cinema_booking/booking"
	"cinema_booking/lock"
	"cinema_booking/model"
	"cinema_booking/store"
)

var (
	Store    store.Store
	Locks    *lock.Manager
	Bookings *booking.Service
)

func Setup(st store.Store, locks *lock.Manager, bookings *booking.Service, gateway booking.PaymentGateway) {
	Store = st
	Locks = locks
	Bookings = bookings
	Gateway = gateway
}

// holderFromCtx dựng danh tính từ token (nếu đăng nhập) và session id
// client gửi kèm; guest chưa có session thì cấp mới để client giữ lại.
func holderFromCtx(c *fiber.Ctx, sessionId string) model.Holder {
	if sessionId == "" {
		sessionId = c.Get("X-Session-Id")
	}
	if customerID, ok := c.Locals("customerId").(uint); ok && customerID > 0 {
		return model.CustomerHolder(customerID, sessionId)
	}
	if sessionId == "" {
		sessionId = uuid.NewString()
	}
	return model.GuestHolder(sessionId)
}
