package validate

import (
	"cinema_booking/constants"
	"cinema_booking/model"
	"cinema_booking/utils"

	"github.com/gofiber/fiber/v2"
)

func CreateBooking() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateBookingInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, 400, constants.ERROR_INPUT, err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, 400, err.Error(), err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func CancelBooking() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CancelBookingInput
		// body rỗng vẫn hợp lệ, lý do hủy là tùy chọn
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&input); err != nil {
				return utils.ErrorResponse(c, 400, constants.ERROR_INPUT, err)
			}
		}
		c.Locals("input", input)
		return c.Next()
	}
}
