package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/QBSync/app/models"
	"github.com/ManuelReschke/QBSync/app/repository"
	"github.com/ManuelReschke/QBSync/internal/pkg/quickbooks"
)

// MapBills writes one page of raw bill records through repos and returns the
// number of bills written. Records without an Id are skipped; a record with
// an Id that cannot be decoded fails the page.
//
// Existing bills keep their dates and metadata unless the incoming value
// parses; amounts and fetch date are always replaced. Line items are appended
// on every call, so re-ingesting a bill duplicates its lines.
func MapBills(repos *repository.Repositories, records []json.RawMessage, now time.Time) (int, error) {
	written := 0
	for i, raw := range records {
		id := recordID(raw)
		if id == "" {
			log.Debugf("[Ingest] Skipping bill record %d without Id", i)
			continue
		}
		var rec quickbooks.BillRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return written, fmt.Errorf("decode bill %s: %w", id, err)
		}
		if err := mapBill(repos, id, &rec, now); err != nil {
			return written, fmt.Errorf("bill %s: %w", id, err)
		}
		written++
	}
	return written, nil
}

func mapBill(repos *repository.Repositories, id string, rec *quickbooks.BillRecord, now time.Time) error {
	vendor, err := resolveVendor(repos, rec)
	if err != nil {
		return err
	}
	currency, err := resolveCurrency(repos, rec.CurrencyRef)
	if err != nil {
		return err
	}

	txnDate := parseDate(string(rec.TxnDate))
	dueDate := parseDate(string(rec.DueDate))
	var createTime, lastUpdated *time.Time
	if rec.MetaData != nil {
		createTime = parseTimestamp(string(rec.MetaData.CreateTime))
		lastUpdated = parseTimestamp(string(rec.MetaData.LastUpdatedTime))
	}

	bill, created, err := repos.Bill.Upsert(id, func(b *models.Bill, _ bool) {
		if txnDate != nil {
			b.TxnDate = txnDate
		}
		if dueDate != nil {
			b.DueDate = dueDate
		}
		b.TotalAmt = rec.TotalAmt.Float64()
		b.Balance = rec.Balance.Float64()
		if vendor != nil {
			b.VendorID = &vendor.ID
		}
		if currency != nil {
			b.CurrencyID = &currency.ID
		}
		b.FetchDate = now
	})
	if err != nil {
		return err
	}

	// new bills always get a metadata row; existing ones only when a timestamp parsed
	createMeta := created || createTime != nil || lastUpdated != nil
	_, err = repos.Bill.UpsertMetadata(bill.ID, createMeta, func(m *models.BillMetadata) {
		if createTime != nil {
			m.CreateTime = createTime
		}
		if lastUpdated != nil {
			m.LastUpdatedTime = lastUpdated
		}
	})
	if err != nil {
		return err
	}

	items := make([]models.BillLineItem, 0, len(rec.Line))
	for _, line := range rec.Line {
		items = append(items, lineItem(bill.ID, line))
	}
	return repos.Bill.AddLineItems(items)
}

// resolveVendor finds the referenced vendor, creating it when both reference
// and name are known, and merges the bill's vendor address into it.
func resolveVendor(repos *repository.Repositories, rec *quickbooks.BillRecord) (*models.Vendor, error) {
	if rec.VendorRef == nil || strings.TrimSpace(string(rec.VendorRef.Value)) == "" {
		return nil, nil
	}
	vendor, err := repos.Vendor.GetOrCreate(string(rec.VendorRef.Value), string(rec.VendorRef.Name))
	if err != nil || vendor == nil {
		return nil, err
	}

	if addr := rec.VendorAddr; addr != nil {
		_, err := repos.Vendor.UpsertAddress(vendor.ID, func(a *models.VendorAddress) {
			a.Line1 = addr.Line1.Ptr()
			a.City = addr.City.Ptr()
			a.CountrySubDivisionCode = addr.CountrySubDivisionCode.Ptr()
			a.PostalCode = addr.PostalCode.Ptr()
		})
		if err != nil {
			return nil, err
		}
	}
	return vendor, nil
}

func resolveCurrency(repos *repository.Repositories, ref *quickbooks.Ref) (*models.Currency, error) {
	if ref == nil || strings.TrimSpace(string(ref.Value)) == "" {
		return nil, nil
	}
	var name *string
	if ref.Name != "" {
		name = ref.Name.Ptr()
	}
	return repos.Currency.GetOrCreate(string(ref.Value), name)
}

func lineItem(billPK uint, line quickbooks.BillLine) models.BillLineItem {
	item := models.BillLineItem{
		BillID:      billPK,
		Description: line.Description.Ptr(),
		Amount:      line.Amount.Float64(),
	}
	if line.LineNum != nil {
		n := int(line.LineNum.Float64())
		item.LineNum = &n
	}
	if detail := line.ItemBasedExpenseLineDetail; detail != nil {
		item.Qty = detail.Qty.Float64()
		item.UnitPrice = detail.UnitPrice.Float64()
		if ref := detail.ItemRef; ref != nil {
			if ref.Value != "" {
				item.ItemRef = ref.Value.Ptr()
			}
			if ref.Name != "" {
				item.ItemName = ref.Name.Ptr()
			}
		}
	}
	return item
}
