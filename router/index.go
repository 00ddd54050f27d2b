package router

import (
	"cinema_booking/handler"
	"cinema_booking/middleware"
	"cinema_booking/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	showtimes := v1.Group("/showtimes", logger.New())
	showtimes.Post("/:code/seats/hold", middleware.OptionalAuth(), validate.HoldSeats(), handler.HoldSeat)
	showtimes.Post("/:code/seats/release", middleware.OptionalAuth(), validate.HoldSeats(), handler.ReleaseSeat)
	showtimes.Get("/:code/seats", middleware.OptionalAuth(), handler.GetAvailability)

	bookings := v1.Group("/bookings", logger.New())
	bookings.Post("/", middleware.OptionalAuth(), validate.CreateBooking(), handler.CreateBooking)
	bookings.Get("/me", middleware.Protected(), handler.GetMyBookings)
	bookings.Get("/:bookingCode", middleware.OptionalAuth(), handler.GetBookingDetail)
	bookings.Post("/:bookingCode/cancel", middleware.OptionalAuth(), validate.CancelBooking(), handler.CancelBooking)

	payments := v1.Group("/payments", logger.New())
	payments.Post("/", middleware.OptionalAuth(), validate.CreatePayment(), handler.CreatePayment)

	wallet := v1.Group("/wallet", logger.New())
	wallet.Get("/", middleware.Protected(), handler.GetWallet)
	wallet.Post("/deposit", middleware.Protected(), validate.Deposit(), handler.Deposit)

	// Callback từ VNPay
	app.Get("/vnpay/return", handler.VNPayCallback)
	app.Post("/vnpay/ipn", handler.VNPayIPN)

	// realtime sơ đồ ghế theo suất chiếu
	ws := app.Group("/ws")
	ws.Get("/showtimes/:id/seats", validate.GetById("id"), websocket.New(handler.SeatWebsocket))
}
