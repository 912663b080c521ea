package middleware

import (
	"fmt"
	"os"
	"strconv"

	"github.com/crisvard/kitoai-booking/booking"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

// Protected validates the bearer token and stores the caller identity in
// locals. The engine never guesses who is calling; every request carries
// an explicit tenant, actor type and optional professional id.
func Protected() fiber.Handler {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "solid_secret_key" // Replace with secure key in production
	}

	return jwtware.New(jwtware.Config{
		SigningKey:   []byte(secret),
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			userToken := c.Locals("user")
			token, ok := userToken.(*jwt.Token)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid token",
				})
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid token claims",
				})
			}

			userID, err := claimUint(claims, "id")
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid user ID in token",
				})
			}

			actor := booking.ActorProfessional
			if role, _ := claims["role"].(string); role == "admin" {
				actor = booking.ActorAdmin
			}
			franchiseID, _ := claimUint(claims, "franchise_id")
			professionalID, _ := claimUint(claims, "professional_id")

			c.Locals("identity", booking.CallerIdentity{
				UserID:         userID,
				FranchiseID:    franchiseID,
				Actor:          actor,
				ProfessionalID: professionalID,
			})
			return c.Next()
		},
	})
}

// Identity returns the caller identity stored by Protected.
func Identity(c *fiber.Ctx) booking.CallerIdentity {
	ident, _ := c.Locals("identity").(booking.CallerIdentity)
	return ident
}

// claimUint handles the number formats JWT libraries emit for ids.
func claimUint(claims jwt.MapClaims, key string) (uint, error) {
	val := claims[key]
	if val == nil {
		return 0, fmt.Errorf("no %s found in claims", key)
	}
	switch v := val.(type) {
	case float64:
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse %s: %v", key, err)
		}
		return uint(parsed), nil
	case uint:
		return v, nil
	case int:
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported %s type: %T", key, v)
	}
}

// jwtError handles JWT errors
func jwtError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   "Unauthorized",
		"message": "Invalid or expired token",
	})
}
