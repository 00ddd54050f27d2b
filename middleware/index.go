package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"cinema_booking/config"
	"cinema_booking/utils"
)

func tokenFromRequest(c *fiber.Ctx) string {
	token := c.Cookies("access_token")
	if token == "" {
		// check header Authorization: Bearer xxx
		auth := c.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
	}
	return token
}

func customerIDFromToken(token string) (uint, error) {
	jwtToken, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil || !jwtToken.Valid {
		return 0, errors.New("invalid token")
	}
	claims, ok := jwtToken.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	id, ok := claims["customerId"].(float64)
	if !ok || id <= 0 {
		return 0, errors.New("missing customerId claim")
	}
	return uint(id), nil
}

func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return utils.ErrorResponse(c, 401, "Missing token", errors.New("no token"))
		}
		customerID, err := customerIDFromToken(token)
		if err != nil {
			return utils.ErrorResponse(c, 401, "Invalid token", err)
		}
		c.Locals("customerId", customerID)
		return c.Next()
	}
}

// OptionalAuth: có token hợp lệ thì gán customerId, không thì đi tiếp
// như khách vãng lai (customerId = 0).
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("customerId", uint(0))
		token := tokenFromRequest(c)
		if token == "" {
			return c.Next()
		}
		if customerID, err := customerIDFromToken(token); err == nil {
			c.Locals("customerId", customerID)
		}
		return c.Next()
	}
}
