package handler

import (
	"github.com/gofiber/fiber/v2"

	"cinema_booking/constants"
	"cinema_booking/model"
	"cinema_booking/utils"
)

// activeCustomerID: token hợp lệ chưa đủ, tài khoản phải còn active.
func activeCustomerID(c *fiber.Ctx) (uint, bool) {
	customerID, ok := c.Locals("customerId").(uint)
	if !ok || customerID == 0 {
		return 0, false
	}
	if _, err := Store.CustomerByID(c.Context(), customerID); err != nil {
		return 0, false
	}
	return customerID, true
}

func GetWallet(c *fiber.Ctx) error {
	customerID, ok := activeCustomerID(c)
	if !ok {
		return utils.ErrorResponse(c, 401, constants.UNAUTHORIZED, nil)
	}

	wallet, err := Store.Wallet(c.Context(), customerID)
	if err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}
	transactions, err := Store.WalletTransactions(c.Context(), customerID, 20)
	if err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, 200, fiber.Map{
		"balance":      wallet.Balance,
		"transactions": transactions,
	})
}

func Deposit(c *fiber.Ctx) error {
	customerID, ok := activeCustomerID(c)
	if !ok {
		return utils.ErrorResponse(c, 401, constants.UNAUTHORIZED, nil)
	}
	input := c.Locals("input").(model.DepositInput)

	wallet, err := Bookings.Deposit(c.Context(), customerID, input.Amount)
	if err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, 200, fiber.Map{"balance": wallet.Balance})
}
