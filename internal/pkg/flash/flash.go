package flash

import (
	"github.com/gofiber/fiber/v2"
	sflash "github.com/sujit-baniya/flash"
)

// Flash message key in locals
const FlashKey = "flash"

const (
	TypeSuccess = "success"
	TypeError   = "error"
	TypeInfo    = "info"
)

// Set sets a flash message for the page rendered by this request
func Set(c *fiber.Ctx, message fiber.Map) {
	c.Locals(FlashKey, message)
}

// Get returns the message set for this request or, failing that, the one
// carried over from the previous redirect.
func Get(c *fiber.Ctx) fiber.Map {
	if m, ok := c.Locals(FlashKey).(fiber.Map); ok && m != nil {
		return m
	}
	m := sflash.Get(c)
	if len(m) == 0 {
		return nil
	}
	return m
}

// Success redirects to path with a success message
func Success(c *fiber.Ctx, path, message string) error {
	return sflash.WithSuccess(c, fiber.Map{"type": TypeSuccess, "message": message}).Redirect(path)
}

// Error redirects to path with an error message
func Error(c *fiber.Ctx, path, message string) error {
	return sflash.WithError(c, fiber.Map{"type": TypeError, "message": message}).Redirect(path)
}

// Info redirects to path with an informational message
func Info(c *fiber.Ctx, path, message string) error {
	return sflash.WithInfo(c, fiber.Map{"type": TypeInfo, "message": message}).Redirect(path)
}
