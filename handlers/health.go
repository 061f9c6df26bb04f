package handlers

import (
	"github.com/clinisim/simulator-api/database"
	"github.com/gofiber/fiber/v2"
)

func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
