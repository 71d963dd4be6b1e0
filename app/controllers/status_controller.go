package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// HandleStatus reports stored record counts, the session's run cursors and,
// when Redis backs the run store, cache health and ingestion counters.
func (sc *SyncController) HandleStatus(c *fiber.Ctx) error {
	counts := fiber.Map{}
	counters := map[string]func() (int64, error){
		"bills":      sc.repos.Bill.Count,
		"customers":  sc.repos.Customer.Count,
		"vendors":    sc.repos.Vendor.Count,
		"currencies": sc.repos.Currency.Count,
	}
	for name, count := range counters {
		n, err := count()
		if err != nil {
			log.Errorf("[Status] Counting %s failed: %v", name, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not count " + name})
		}
		counts[name] = n
	}

	resp := fiber.Map{
		"counts":           counts,
		"is_authenticated": sc.isAuthenticated(c),
		"run":              nil,
	}
	if sc.cacheHealth != nil {
		resp["cache"] = "ok"
		if err := sc.cacheHealth(c.UserContext()); err != nil {
			log.Warnf("[Status] Cache unreachable: %v", err)
			resp["cache"] = "unavailable"
		}
	}
	if sc.metrics != nil {
		ingested, err := sc.metrics.Snapshot(c.UserContext())
		if err != nil {
			log.Warnf("[Status] Reading ingestion counters failed: %v", err)
		} else {
			resp["ingested"] = ingested
		}
	}

	run, err := sc.currentRun(c.UserContext(), c)
	if err != nil {
		log.Warnf("[Status] Loading run failed: %v", err)
	}
	if run != nil {
		resp["run"] = fiber.Map{
			"id":         run.ID,
			"bills":      run.Bills.String(),
			"customers":  run.Customers.String(),
			"done":       run.Done(),
			"started_at": run.StartedAt,
			"updated_at": run.UpdatedAt,
		}
	}
	return c.JSON(resp)
}
