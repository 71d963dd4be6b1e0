package controllers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/QBSync/app/models"
	"github.com/ManuelReschke/QBSync/internal/pkg/ingest"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

const defaultDisplayCount = 10

// HandleFetchAll initiates a run, or resumes the session's run when both
// streams are still pending, and hands over to the worker route.
func (sc *SyncController) HandleFetchAll(c *fiber.Ctx) error {
	ctx := c.UserContext()
	run, err := sc.currentRun(ctx, c)
	if err != nil {
		log.Errorf("[Fetch] Loading run failed: %v", err)
		return fetchError(c, err)
	}
	if run == nil {
		run = ingest.NewRun()
	}

	fresh := sc.ingestController(c).StartRun(run)
	if err := sc.runs.Save(ctx, run); err != nil {
		return fetchError(c, err)
	}
	if err := sc.rememberRun(c, run); err != nil {
		return fetchError(c, err)
	}

	msg := "Continuing data fetch..."
	if fresh {
		msg = "Initiating data fetch..."
		log.Infof("[Fetch] Started run %s", run.ID)
	}
	return flash.WithInfo(c, fiber.Map{"type": "info", "message": msg}).Redirect(quickbooks.RouteFetchAllWorker)
}

// HandleFetchAllWorker performs one step of the session's run and redirects
// to itself until both streams are exhausted.
func (sc *SyncController) HandleFetchAllWorker(c *fiber.Ctx) error {
	ctx := c.UserContext()
	run, err := sc.currentRun(ctx, c)
	if err != nil {
		return fetchError(c, err)
	}
	if run == nil || (run.Bills == ingest.CursorUnset && run.Customers == ingest.CursorUnset) {
		return c.Redirect("/fetch-all")
	}

	res, stepErr := sc.ingestController(c).Step(ctx, run)
	if err := sc.runs.Save(ctx, run); err != nil {
		log.Errorf("[Fetch] Saving run %s failed: %v", run.ID, err)
		if stepErr == nil {
			stepErr = err
		}
	}
	if stepErr != nil {
		if needsLogin(stepErr) {
			return redirectToLogin(c, quickbooks.StateFetchAll)
		}
		return fetchError(c, stepErr)
	}

	if res.Done {
		log.Infof("[Fetch] Run %s finished", run.ID)
		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": "All data fetched successfully!"}).Redirect(quickbooks.RouteHome)
	}
	return c.Redirect(quickbooks.RouteFetchAllWorker)
}

// HandleFetchBillsWorker ingests one page of bills at the position carried
// in the query string.
func (sc *SyncController) HandleFetchBillsWorker(c *fiber.Ctx) error {
	return sc.streamWorker(c, quickbooks.EntityBill, quickbooks.StateBills, quickbooks.RouteBillsWorker)
}

// HandleFetchCustomersWorker ingests one page of customers at the position
// carried in the query string.
func (sc *SyncController) HandleFetchCustomersWorker(c *fiber.Ctx) error {
	return sc.streamWorker(c, quickbooks.EntityCustomer, quickbooks.StateCustomers, quickbooks.RouteCustomersWorker)
}

func (sc *SyncController) streamWorker(c *fiber.Ctx, entity quickbooks.Entity, kind, route string) error {
	params, err := sc.streamParams(c, kind)
	if err != nil {
		return fetchError(c, err)
	}

	cursor := ingest.Cursor(params.QBStartPosition)
	res, err := sc.ingestController(c).StepStream(c.UserContext(), "", entity, &cursor, params.FetchCount)
	if err != nil {
		if needsLogin(err) {
			return redirectToLogin(c, params.String())
		}
		return fetchError(c, err)
	}

	if cursor.Exhausted() {
		msg := fmt.Sprintf("All %s records fetched successfully!", entity)
		return flash.WithSuccess(c, fiber.Map{"type": "success", "message": msg}).Redirect(quickbooks.RouteHome)
	}

	params.QBStartPosition = res.Cursor.Position()
	return c.Redirect(params.Target().URL())
}

// streamParams reads the single-stream continuation from the query string.
// fetch_count defaults to the stored setting for the stream.
func (sc *SyncController) streamParams(c *fiber.Ctx, kind string) (quickbooks.CallbackState, error) {
	state := quickbooks.CallbackState{
		Kind:            kind,
		QBStartPosition: c.QueryInt("qb_start_position", 1),
		DisplayCount:    c.QueryInt("display_count", defaultDisplayCount),
		DisplayStart:    c.QueryInt("display_start", 1),
	}
	if raw := c.Query("fetch_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return state, fmt.Errorf("invalid fetch_count %q", raw)
		}
		state.FetchCount = n
	} else {
		settings, err := sc.repos.FetchSettings.Get()
		if err != nil {
			return state, err
		}
		state.FetchCount = settings.BillsFetchCount
		if kind == quickbooks.StateCustomers {
			state.FetchCount = settings.CustomersFetchCount
		}
	}

	if state.FetchCount < 1 || state.FetchCount > models.MaxFetchCount {
		return state, fmt.Errorf("fetch_count must be between 1 and %d", models.MaxFetchCount)
	}
	if state.QBStartPosition < 1 {
		return state, fmt.Errorf("qb_start_position must be at least 1")
	}
	return state, nil
}

// StreamContinuation renders the OAuth state that resumes a single-stream
// worker with the current query parameters.
func (sc *SyncController) StreamContinuation(c *fiber.Ctx, kind string) string {
	state, err := sc.streamParams(c, kind)
	if err != nil {
		return quickbooks.StateAuthFlow
	}
	return state.String()
}

func needsLogin(err error) bool {
	var refreshErr *quickbooks.TokenRefreshError
	return errors.Is(err, quickbooks.ErrNotAuthenticated) || errors.As(err, &refreshErr)
}

func redirectToLogin(c *fiber.Ctx, state string) error {
	return c.Redirect("/login?state=" + url.QueryEscape(state))
}

func fetchError(c *fiber.Ctx, err error) error {
	log.Errorf("[Fetch] %v", err)
	return flash.WithError(c, fiber.Map{"type": "error", "message": "Error during fetch: " + err.Error()}).Redirect(quickbooks.RouteHome)
}
