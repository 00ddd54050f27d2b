package handler

import (
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"

	"cinema_booking/booking"
	"cinema_booking/constants"
	"cinema_booking/lock"
	"cinema_booking/model"
	"cinema_booking/store"
	"cinema_booking/utils"
)

func CreateBooking(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateBookingInput)
	holder := holderFromCtx(c, input.SessionId)

	result, err := Bookings.Checkout(c.Context(), input, holder, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrReservationLost):
			return utils.ErrorResponse(c, 409, constants.RESERVATION_LOST, err)
		case errors.Is(err, booking.ErrInsufficientBalance):
			return utils.ErrorResponse(c, 402, constants.INSUFFICIENT_BALANCE, err)
		case errors.Is(err, booking.ErrWalletRequiresAccount):
			return utils.ErrorResponse(c, 401, constants.UNAUTHORIZED, err)
		case errors.Is(err, booking.ErrGatewayUnavailable):
			// đơn đã tạo, trả mã để client phát lại URL hoặc hủy
			if result != nil {
				return c.Status(502).JSON(fiber.Map{
					"status":      "error",
					"message":     constants.GATEWAY_UNAVAILABLE,
					"error":       err.Error(),
					"bookingCode": result.Booking.PublicCode,
				})
			}
			return utils.ErrorResponse(c, 502, constants.GATEWAY_UNAVAILABLE, err)
		case errors.Is(err, lock.ErrShowtimeStarted):
			return utils.ErrorResponse(c, 400, constants.ERROR_INPUT, err)
		case errors.Is(err, store.ErrNotFound):
			return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, 500, constants.ERROR_CREATE, err)
	}

	return utils.SuccessResponse(c, 201, fiber.Map{
		"bookingCode": result.Booking.PublicCode,
		"status":      result.Booking.Status,
		"totalAmount": result.Booking.TotalAmount,
		"redirectUrl": result.PaymentURL,
	})
}

func GetBookingDetail(c *fiber.Ctx) error {
	code := c.Params("bookingCode")
	holder := holderFromCtx(c, c.Query("sessionId"))

	b, err := Bookings.Booking(c.Context(), code, holder)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	qr, err := utils.CheckInQRCode(b.PublicCode)
	if err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, 200, fiber.Map{
		"booking": b,
		"qrCode":  base64.StdEncoding.EncodeToString(qr),
	})
}

type BookingSummary struct {
	PublicCode    string         `json:"bookingCode"`
	Status        string         `json:"status"`
	PaymentMethod string         `json:"paymentMethod"`
	PaymentStatus string         `json:"paymentStatus"`
	TotalAmount   float64        `json:"totalAmount"`
	RefundAmount  *float64       `json:"refundAmount,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	Showtime      model.Showtime `json:"showtime"`
}

func GetMyBookings(c *fiber.Ctx) error {
	customerID, ok := c.Locals("customerId").(uint)
	if !ok || customerID == 0 {
		return utils.ErrorResponse(c, 401, constants.UNAUTHORIZED, nil)
	}

	bookings, err := Store.BookingsByCustomer(c.Context(), customerID)
	if err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	summaries := make([]BookingSummary, 0, len(bookings))
	if err := copier.Copy(&summaries, &bookings); err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, 200, summaries)
}

func CancelBooking(c *fiber.Ctx) error {
	code := c.Params("bookingCode")
	input, _ := c.Locals("input").(model.CancelBookingInput)
	holder := holderFromCtx(c, input.SessionId)

	b, err := Bookings.Cancel(c.Context(), code, holder, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrCancelWindowClosed):
			return utils.ErrorResponse(c, 409, constants.CANCEL_WINDOW_CLOSED, err)
		case errors.Is(err, booking.ErrNotCancellable):
			return utils.ErrorResponse(c, 409, constants.ERROR_INPUT, err)
		case errors.Is(err, store.ErrNotFound):
			return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, 200, fiber.Map{
		"bookingCode":  b.PublicCode,
		"status":       b.Status,
		"refundAmount": b.RefundAmount,
	})
}
