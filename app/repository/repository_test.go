package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/QBSync/app/models"
	"github.com/ManuelReschke/QBSync/internal/pkg/database"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	return NewRepositories(db)
}

func strPtr(s string) *string { return &s }

func TestBillUpsertCreatesThenUpdates(t *testing.T) {
	repos := newTestRepositories(t)

	bill, created, err := repos.Bill.Upsert("42", func(b *models.Bill, created bool) {
		b.TotalAmt = 10
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, bill.ID)

	again, created, err := repos.Bill.Upsert("42", func(b *models.Bill, created bool) {
		b.TotalAmt = 25
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, bill.ID, again.ID)

	count, err := repos.Bill.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repos.Bill.GetByBillID("42")
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.TotalAmt)
}

func TestBillMetadataCreateIfMissing(t *testing.T) {
	repos := newTestRepositories(t)
	bill, _, err := repos.Bill.Upsert("1", nil)
	require.NoError(t, err)

	meta, err := repos.Bill.UpsertMetadata(bill.ID, false, func(m *models.BillMetadata) {})
	require.NoError(t, err)
	assert.Nil(t, meta)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	meta, err = repos.Bill.UpsertMetadata(bill.ID, true, func(m *models.BillMetadata) {
		m.CreateTime = &now
	})
	require.NoError(t, err)
	require.NotNil(t, meta)

	meta2, err := repos.Bill.UpsertMetadata(bill.ID, false, func(m *models.BillMetadata) {
		m.LastUpdatedTime = &now
	})
	require.NoError(t, err)
	assert.Equal(t, meta.ID, meta2.ID)
	assert.NotNil(t, meta2.CreateTime)
}

func TestVendorGetOrCreateNeedsName(t *testing.T) {
	repos := newTestRepositories(t)

	vendor, err := repos.Vendor.GetOrCreate("56", "")
	require.NoError(t, err)
	assert.Nil(t, vendor)

	vendor, err = repos.Vendor.GetOrCreate("56", "Bob's Burger Joint")
	require.NoError(t, err)
	require.NotNil(t, vendor)

	// existing vendor is resolved without a name and is not renamed
	same, err := repos.Vendor.GetOrCreate("56", "")
	require.NoError(t, err)
	require.NotNil(t, same)
	assert.Equal(t, vendor.ID, same.ID)
	assert.Equal(t, "Bob's Burger Joint", same.Name)

	_, err = repos.Vendor.UpsertAddress(vendor.ID, func(a *models.VendorAddress) { a.City = strPtr("Bayshore") })
	require.NoError(t, err)
	_, err = repos.Vendor.UpsertAddress(vendor.ID, func(a *models.VendorAddress) { a.PostalCode = strPtr("94326") })
	require.NoError(t, err)

	loaded, err := repos.Vendor.GetByRef("56")
	require.NoError(t, err)
	require.NotNil(t, loaded.Address)
	assert.Equal(t, "Bayshore", *loaded.Address.City)
	assert.Equal(t, "94326", *loaded.Address.PostalCode)
}

func TestCurrencyGetOrCreateIsIdempotent(t *testing.T) {
	repos := newTestRepositories(t)

	usd, err := repos.Currency.GetOrCreate("USD", strPtr("United States Dollar"))
	require.NoError(t, err)
	again, err := repos.Currency.GetOrCreate("USD", nil)
	require.NoError(t, err)

	assert.Equal(t, usd.ID, again.ID)
	count, err := repos.Currency.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBillDeleteCascades(t *testing.T) {
	repos := newTestRepositories(t)

	bill, _, err := repos.Bill.Upsert("7", nil)
	require.NoError(t, err)
	_, err = repos.Bill.UpsertMetadata(bill.ID, true, func(m *models.BillMetadata) {})
	require.NoError(t, err)
	require.NoError(t, repos.Bill.AddLineItems([]models.BillLineItem{{BillID: bill.ID, Amount: 1}, {BillID: bill.ID, Amount: 2}}))

	require.NoError(t, repos.Bill.Delete(bill.ID))

	items, err := repos.Bill.GetLineItems(bill.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	meta, err := repos.Bill.UpsertMetadata(bill.ID, false, func(m *models.BillMetadata) {})
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestCustomerListOrderAndDeleteAll(t *testing.T) {
	repos := newTestRepositories(t)

	for id, name := range map[string]string{"1": "Zed", "2": "Amy", "3": "Kim"} {
		customer, _, err := repos.Customer.Upsert(id, func(c *models.Customer, created bool) {
			c.DisplayName = strPtr(name)
		})
		require.NoError(t, err)
		_, err = repos.Customer.UpsertAddress(customer.ID, func(a *models.CustomerAddress) { a.City = strPtr("X") })
		require.NoError(t, err)
	}

	customers, err := repos.Customer.List(0, 2)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Amy", *customers[0].DisplayName)
	assert.Equal(t, "Kim", *customers[1].DisplayName)
	assert.NotNil(t, customers[0].BillAddr)

	require.NoError(t, repos.Customer.DeleteAll())
	count, err := repos.Customer.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransactionRollsBack(t *testing.T) {
	repos := newTestRepositories(t)
	boom := errors.New("boom")

	err := repos.Transaction(context.Background(), func(tx *Repositories) error {
		if _, _, err := tx.Bill.Upsert("99", nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repos.Bill.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFetchSettingsUpdateValidates(t *testing.T) {
	repos := newTestRepositories(t)

	settings, err := repos.FetchSettings.Get()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBillsFetchCount, settings.BillsFetchCount)

	_, err = repos.FetchSettings.Update(0, 5)
	assert.Error(t, err)

	updated, err := repos.FetchSettings.Update(10, 20)
	require.NoError(t, err)
	assert.Equal(t, settings.ID, updated.ID)

	reloaded, err := repos.FetchSettings.Get()
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.BillsFetchCount)
	assert.Equal(t, 20, reloaded.CustomersFetchCount)
}

func TestTokenSaveReplaces(t *testing.T) {
	repos := newTestRepositories(t)

	missing, err := repos.Token.GetByRealm("123")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repos.Token.Save("123", "a1", "r1", nil)
	require.NoError(t, err)
	_, err = repos.Token.Save("123", "a2", "r2", nil)
	require.NoError(t, err)

	token, err := repos.Token.GetByRealm("123")
	require.NoError(t, err)
	assert.Equal(t, "a2", token.AccessToken)
	assert.Equal(t, "r2", token.RefreshToken)
}
