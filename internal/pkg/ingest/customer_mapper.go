package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/app/models"
	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// MapCustomers writes one page of raw customer records through repos and
// returns the number of customers written. Records without an Id are skipped;
// a record with an Id that cannot be decoded fails the page.
// Every scalar is overwritten, so a field missing from the record is cleared.
func MapCustomers(repos *repository.Repositories, records []json.RawMessage, now time.Time) (int, error) {
	written := 0
	for i, raw := range records {
		id := recordID(raw)
		if id == "" {
			log.Debugf("[Ingest] Skipping customer record %d without Id", i)
			continue
		}
		var rec quickbooks.CustomerRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return written, fmt.Errorf("decode customer %s: %w", id, err)
		}
		if err := mapCustomer(repos, id, &rec, now); err != nil {
			return written, fmt.Errorf("customer %s: %w", id, err)
		}
		written++
	}
	return written, nil
}

func mapCustomer(repos *repository.Repositories, id string, rec *quickbooks.CustomerRecord, now time.Time) error {
	customer, _, err := repos.Customer.Upsert(id, func(c *models.Customer, _ bool) {
		c.SyncToken = rec.SyncToken.Ptr()
		c.Domain = rec.Domain.Ptr()
		c.GivenName = rec.GivenName.Ptr()
		c.DisplayName = rec.DisplayName.Ptr()
		c.BillWithParent = boolOr(rec.BillWithParent, false)
		c.FullyQualifiedName = rec.FullyQualifiedName.Ptr()
		c.CompanyName = rec.CompanyName.Ptr()
		c.FamilyName = rec.FamilyName.Ptr()
		c.Sparse = boolOr(rec.Sparse, false)
		c.PrimaryPhoneFreeFormNumber = nil
		if rec.PrimaryPhone != nil {
			c.PrimaryPhoneFreeFormNumber = rec.PrimaryPhone.FreeFormNumber.Ptr()
		}
		c.PrimaryEmailAddr = nil
		if rec.PrimaryEmailAddr != nil {
			c.PrimaryEmailAddr = rec.PrimaryEmailAddr.Address.Ptr()
		}
		c.Active = boolOr(rec.Active, true)
		c.Job = boolOr(rec.Job, false)
		c.BalanceWithJobs = rec.BalanceWithJobs.Float64()
		c.PreferredDeliveryMethod = rec.PreferredDeliveryMethod.Ptr()
		c.Taxable = boolOr(rec.Taxable, false)
		c.PrintOnCheckName = rec.PrintOnCheckName.Ptr()
		c.Balance = rec.Balance.Float64()
		c.FetchDate = now
	})
	if err != nil {
		return err
	}

	if addr := rec.BillAddr; addr != nil {
		_, err := repos.Customer.UpsertAddress(customer.ID, func(a *models.CustomerAddress) {
			// the provider's address id is recorded once, when the row is created
			if a.ID == 0 {
				a.QBAddressID = addr.ID.Ptr()
			}
			a.Line1 = addr.Line1.Ptr()
			a.City = addr.City.Ptr()
			a.CountrySubDivisionCode = addr.CountrySubDivisionCode.Ptr()
			a.PostalCode = addr.PostalCode.Ptr()
			a.Lat = addr.Lat.Ptr()
			a.Lon = addr.Lon.Ptr()
		})
		if err != nil {
			return err
		}
	}

	if meta := rec.MetaData; meta != nil {
		_, err := repos.Customer.UpsertMetadata(customer.ID, func(m *models.CustomerMetadata) {
			m.CreateTime = parseTimestamp(string(meta.CreateTime))
			m.LastUpdatedTime = parseTimestamp(string(meta.LastUpdatedTime))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func boolOr(v *quickbooks.Flag, def bool) bool {
	if v == nil {
		return def
	}
	return bool(*v)
}
