package controllers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

type settingsRequest struct {
	BillsFetchCount     int `json:"bills_fetch_count" form:"bills_fetch_count"`
	CustomersFetchCount int `json:"customers_fetch_count" form:"customers_fetch_count"`
}

// HandleSettings returns the current batch sizes.
func (sc *SyncController) HandleSettings(c *fiber.Ctx) error {
	settings, err := sc.repos.FetchSettings.Get()
	if err != nil {
		log.Errorf("[Settings] Loading fetch settings failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load fetch settings"})
	}
	return c.JSON(settings)
}

// HandleSettingsUpdate stores new batch sizes. Values outside 1..1000 are rejected.
func (sc *SyncController) HandleSettingsUpdate(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	settings, err := sc.repos.FetchSettings.Update(req.BillsFetchCount, req.CustomersFetchCount)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": verrs.Error()})
		}
		log.Errorf("[Settings] Saving fetch settings failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not save fetch settings"})
	}

	log.Infof("[Settings] Batch sizes set to bills=%d customers=%d", settings.BillsFetchCount, settings.CustomersFetchCount)
	return c.JSON(settings)
}

// HandleReset deletes every stored bill and customer, forgets the session's
// run and clears the ingestion counters. Vendors and currencies are kept.
func (sc *SyncController) HandleReset(c *fiber.Ctx) error {
	ctx := c.UserContext()
	err := sc.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Bill.DeleteAll(); err != nil {
			return err
		}
		return tx.Customer.DeleteAll()
	})
	if err != nil {
		log.Errorf("[Reset] Deleting data failed: %v", err)
		return flash.WithError(c, fiber.Map{"type": "error", "message": "Error resetting data: " + err.Error()}).Redirect(quickbooks.RouteHome)
	}
	if err := sc.forgetRun(ctx, c); err != nil {
		log.Warnf("[Reset] Clearing run failed: %v", err)
	}
	if sc.metrics != nil {
		if err := sc.metrics.Reset(ctx); err != nil {
			log.Warnf("[Reset] Clearing ingestion counters failed: %v", err)
		}
	}

	log.Info("[Reset] Bills and customers deleted")
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "All bills and customers deleted"}).Redirect(quickbooks.RouteHome)
}
