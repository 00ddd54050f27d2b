package handler

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"cinema_booking/booking"
	"cinema_booking/config"
	"cinema_booking/constants"
	"cinema_booking/model"
	"cinema_booking/store"
	"cinema_booking/utils"
)

var Gateway booking.PaymentGateway

// CreatePayment phát lại URL thanh toán cho đơn VNPAY còn chờ.
func CreatePayment(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreatePaymentInput)
	holder := holderFromCtx(c, input.SessionId)

	paymentURL, err := Bookings.CreatePayment(c.Context(), input.BookingCode, holder, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotPayable):
			return utils.ErrorResponse(c, 409, constants.ERROR_INPUT, err)
		case errors.Is(err, booking.ErrGatewayUnavailable):
			return utils.ErrorResponse(c, 502, constants.GATEWAY_UNAVAILABLE, err)
		case errors.Is(err, store.ErrNotFound):
			return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, 200, fiber.Map{"paymentUrl": paymentURL})
}

func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

// VNPayCallback: cổng redirect user-agent về đây sau khi thanh toán.
func VNPayCallback(c *fiber.Ctx) error {
	result := Gateway.VerifyCallback(queryValues(c))
	if result.TxnRef == "" {
		return utils.ErrorResponse(c, 400, constants.ERROR_INPUT, errors.New(result.Message))
	}

	if err := Bookings.HandleCallback(c.Context(), result.TxnRef, result.IsSuccess); err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	frontend := config.ConfigOr("FRONTEND_URL", "")
	if frontend != "" {
		status := "failed"
		if result.IsSuccess {
			status = "success"
		}
		return c.Redirect(frontend + "/payment/result?status=" + status + "&ref=" + result.TxnRef)
	}
	return utils.SuccessResponse(c, 200, result)
}

// VNPayIPN: xác nhận server-to-server, nguồn sự thật cuối cùng về tiền.
func VNPayIPN(c *fiber.Ctx) error {
	result := Gateway.VerifyIPN(queryValues(c))
	if result.TxnRef == "" {
		return c.JSON(fiber.Map{"RspCode": "97", "Message": "Invalid signature"})
	}

	if err := Bookings.HandleCallback(c.Context(), result.TxnRef, result.IsSuccess); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(fiber.Map{"RspCode": "01", "Message": "Order not found"})
		}
		return c.JSON(fiber.Map{"RspCode": "99", "Message": "Unknown error"})
	}
	return c.JSON(fiber.Map{"RspCode": "00", "Message": "Confirm success"})
}
