package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"cinema_booking/constants"
	"cinema_booking/lock"
	"cinema_booking/model"
	"cinema_booking/store"
	"cinema_booking/utils"
)

func showtimeIDByCode(c *fiber.Ctx, code string) (uint, error) {
	var id uint
	err := Store.Transact(c.Context(), func(tx store.Tx) error {
		showtime, err := tx.ShowtimeByCode(code)
		if err != nil {
			return err
		}
		id = showtime.ID
		return nil
	})
	return id, err
}

func HoldSeat(c *fiber.Ctx) error {
	code := c.Params("code")
	input := c.Locals("input").(model.HoldSeatsInput)
	holder := holderFromCtx(c, input.SessionId)

	showtimeID, err := showtimeIDByCode(c, code)
	if err != nil {
		return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
	}

	expiresAt, err := Locks.Acquire(c.Context(), showtimeID, input.SeatIds, holder)
	if err != nil {
		switch {
		case errors.Is(err, lock.ErrSeatSold):
			return utils.ErrorResponse(c, 409, constants.SEAT_SOLD, err)
		case errors.Is(err, lock.ErrSeatHeldByOther):
			return utils.ErrorResponse(c, 409, constants.SEAT_HELD_BY_OTHER, err)
		case errors.Is(err, lock.ErrShowtimeStarted):
			return utils.ErrorResponse(c, 400, constants.ERROR_INPUT, err)
		case errors.Is(err, store.ErrNotFound):
			return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
		}
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, 200, fiber.Map{
		"heldSeatIds": input.SeatIds,
		"expiresAt":   expiresAt,
		"heldBy":      holder.Label(),
		"sessionId":   holder.Session, // guest giữ lại để release/checkout
	})
}

func ReleaseSeat(c *fiber.Ctx) error {
	code := c.Params("code")
	input := c.Locals("input").(model.HoldSeatsInput)
	holder := holderFromCtx(c, input.SessionId)

	showtimeID, err := showtimeIDByCode(c, code)
	if err != nil {
		return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
	}

	if err := Locks.Release(c.Context(), showtimeID, input.SeatIds, holder); err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, 200, "Released")
}

func GetAvailability(c *fiber.Ctx) error {
	code := c.Params("code")

	showtimeID, err := showtimeIDByCode(c, code)
	if err != nil {
		return utils.ErrorResponse(c, 404, constants.NOT_FOUND, err)
	}

	av, err := Locks.Availability(c.Context(), showtimeID)
	if err != nil {
		return utils.ErrorResponse(c, 500, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, 200, av)
}
