package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agriarche/price-intel/internal/store"
)

func RegisterRoutes(app *fiber.App, h *Handler, st store.Store) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if st != nil {
			if err := st.HealthCheck(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
			}
		}
		return c.Status(fiber.StatusOK).SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	v1.Get("/records", h.ListRecords)
	v1.Get("/commodities", h.ListCommodities)
	v1.Get("/commodities/:commodity/profile", h.GetProfile)
	v1.Get("/trend", h.GetTrend)
	v1.Get("/summary", h.GetSummary)
	v1.Get("/ranking", h.GetRanking)
	v1.Get("/gap", h.GetGap)
	v1.Get("/compare", h.GetCompare)
	v1.Get("/reports/:month", h.GetReport)
}
