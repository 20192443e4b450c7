package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"propertiku_backend/internals/testutil"

	model "propertiku_backend/internals/features/properties/model"
)

func seedPendingListing(t *testing.T, db *gorm.DB, fee int64) *model.PropertyModel {
	t.Helper()
	p := &model.PropertyModel{
		PropertyOwnerUserID:      uuid.New(),
		PropertyStatus:           model.PropertyStatusPending,
		PropertyTitle:            "Rumah Baru Diajukan",
		PropertyServiceFeeAmount: decimal.NewFromInt(fee),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestApplyServiceFeePartialKeepsListingPending(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewCatalogService(db)
	p := seedPendingListing(t, db, 1_000_000)

	wentLive, err := svc.ApplyServiceFee(context.Background(), p.PropertyID, decimal.NewFromInt(400_000))
	require.NoError(t, err)
	assert.False(t, wentLive)

	fresh, err := svc.GetByID(context.Background(), p.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusPending, fresh.PropertyStatus)
	assert.True(t, fresh.PropertyServiceFeeCollectedAmount.Equal(decimal.NewFromInt(400_000)))

	out, err := svc.ServiceFeeOutstanding(context.Background(), p.PropertyID)
	require.NoError(t, err)
	assert.True(t, out.Equal(decimal.NewFromInt(600_000)))
}

func TestApplyServiceFeeCoveringPaymentGoesLiveOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewCatalogService(db)
	p := seedPendingListing(t, db, 1_000_000)

	_, err := svc.ApplyServiceFee(context.Background(), p.PropertyID, decimal.NewFromInt(400_000))
	require.NoError(t, err)

	wentLive, err := svc.ApplyServiceFee(context.Background(), p.PropertyID, decimal.NewFromInt(600_000))
	require.NoError(t, err)
	assert.True(t, wentLive, "the covering payment flips the listing live")

	fresh, err := svc.GetByID(context.Background(), p.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusAvailable, fresh.PropertyStatus)

	// a later stray settlement only tops up the counter
	wentLive, err = svc.ApplyServiceFee(context.Background(), p.PropertyID, decimal.NewFromInt(100_000))
	require.NoError(t, err)
	assert.False(t, wentLive)

	out, err := svc.ServiceFeeOutstanding(context.Background(), p.PropertyID)
	require.NoError(t, err)
	assert.True(t, out.IsZero(), "overpayment never reports negative outstanding")
}

func TestSetStatus(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := NewCatalogService(db)
	p := seedPendingListing(t, db, 0)

	require.NoError(t, svc.SetStatus(context.Background(), p.PropertyID, model.PropertyStatusRented))

	fresh, err := svc.GetByID(context.Background(), p.PropertyID)
	require.NoError(t, err)
	assert.Equal(t, model.PropertyStatusRented, fresh.PropertyStatus)
}
