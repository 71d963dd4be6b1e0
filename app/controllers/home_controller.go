package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
)

type pageInfo struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func newPageInfo(page, perPage int, total int64) pageInfo {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return pageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: pages}
}

func pageParam(c *fiber.Ctx, key string) int {
	page := c.QueryInt(key, 1)
	if page < 1 {
		return 1
	}
	return page
}

// HandleHome lists the stored bills (newest first) and customers (by name).
// Both lists use the bills fetch count as page size.
func (sc *SyncController) HandleHome(c *fiber.Ctx) error {
	settings, err := sc.repos.FetchSettings.Get()
	if err != nil {
		log.Errorf("[Home] Loading fetch settings failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load fetch settings"})
	}
	perPage := settings.BillsFetchCount
	billPage := pageParam(c, "bill_page")
	customerPage := pageParam(c, "customer_page")

	bills, err := sc.repos.Bill.List((billPage-1)*perPage, perPage)
	if err != nil {
		log.Errorf("[Home] Listing bills failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load bills"})
	}
	totalBills, err := sc.repos.Bill.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not count bills"})
	}

	customers, err := sc.repos.Customer.List((customerPage-1)*perPage, perPage)
	if err != nil {
		log.Errorf("[Home] Listing customers failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not load customers"})
	}
	totalCustomers, err := sc.repos.Customer.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not count customers"})
	}

	return c.JSON(fiber.Map{
		"bills":            bills,
		"bills_page":       newPageInfo(billPage, perPage, totalBills),
		"customers":        customers,
		"customers_page":   newPageInfo(customerPage, perPage, totalCustomers),
		"fetch_settings":   settings,
		"is_authenticated": sc.isAuthenticated(c),
		"flash":            flash.Get(c),
		"error":            c.Query("error"),
		"csrf":             c.Locals("csrf"),
	})
}
