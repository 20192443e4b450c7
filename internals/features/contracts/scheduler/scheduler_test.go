package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"propertiku_backend/internals/testutil"

	"propertiku_backend/internals/features/contracts/model"

	notifmodel "propertiku_backend/internals/features/notifications/model"
	paymentmodel "propertiku_backend/internals/features/payments/model"
	paymentsvc "propertiku_backend/internals/features/payments/service"
	propertymodel "propertiku_backend/internals/features/properties/model"
	propertysvc "propertiku_backend/internals/features/properties/service"
)

var testNow = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

type cronFixture struct {
	db       *gorm.DB
	gateway  *testutil.FakeGateway
	notifier *testutil.FakeNotifier
	ledger   *paymentsvc.LedgerService
	rent     *RentScheduler
	sweep    *CompletionScheduler
	remind   *ReminderScheduler
	owner    uuid.UUID
	prop     *propertymodel.PropertyModel
}

func newCronFixture(t *testing.T) *cronFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	gw := &testutil.FakeGateway{}
	nf := &testutil.FakeNotifier{}
	ledger := paymentsvc.NewLedgerService(db, gw)
	catalog := propertysvc.NewCatalogService(db)

	owner := uuid.New()
	prop := &propertymodel.PropertyModel{
		PropertyOwnerUserID: owner,
		PropertyStatus:      propertymodel.PropertyStatusRented,
		PropertyTitle:       "Kost Cron",
	}
	require.NoError(t, db.Create(prop).Error)

	return &cronFixture{
		db:       db,
		gateway:  gw,
		notifier: nf,
		ledger:   ledger,
		rent:     NewRentScheduler(db, ledger, nf),
		sweep:    NewCompletionScheduler(db, catalog, nf),
		remind:   NewReminderScheduler(db, nf),
		owner:    owner,
		prop:     prop,
	}
}

// activeRental starts `monthsAgo` calendar months before testNow so the
// sweep sees installment monthsAgo+1 as current.
func (f *cronFixture) activeRental(t *testing.T, monthsAgo, monthCount int) *model.ContractModel {
	t.Helper()
	start := testNow.AddDate(0, -monthsAgo, 0)
	end := start.AddDate(0, monthCount, 0)
	rent := decimal.NewFromInt(7_000_000)
	rate := decimal.NewFromFloat(0.05)
	m := &model.ContractModel{
		ContractType:                   model.ContractTypeRental,
		ContractPropertyID:             f.prop.PropertyID,
		ContractCustomerUserID:         uuid.New(),
		ContractStatus:                 model.ContractStatusActive,
		ContractStartDate:              &start,
		ContractEndDate:                &end,
		ContractMonthCount:             &monthCount,
		ContractMonthlyRentAmount:      &rent,
		ContractLatePaymentPenaltyRate: &rate,
	}
	require.NoError(t, f.db.Create(m).Error)
	return m
}

func (f *cronFixture) reload(t *testing.T, id uuid.UUID) *model.ContractModel {
	t.Helper()
	var m model.ContractModel
	require.NoError(t, f.db.First(&m, "contract_id = ?", id).Error)
	return &m
}

// monthlyRow seeds an installment row directly, bypassing the gateway.
func (f *cronFixture) monthlyRow(t *testing.T, contractID uuid.UUID, installment int, status paymentmodel.PaymentStatus, due time.Time) *paymentmodel.PaymentModel {
	t.Helper()
	n := installment
	p := &paymentmodel.PaymentModel{
		PaymentContractID:        &contractID,
		PaymentPropertyID:        f.prop.PropertyID,
		PaymentPayerUserID:       uuid.New(),
		PaymentType:              paymentmodel.PaymentTypeMonthly,
		PaymentStatus:            status,
		PaymentAmount:            decimal.NewFromInt(7_000_000),
		PaymentCurrency:          "IDR",
		PaymentDueDate:           &due,
		PaymentInstallmentNumber: &n,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p
}

func (f *cronFixture) monthlyCount(t *testing.T, contractID uuid.UUID, installment int) int64 {
	t.Helper()
	var n int64
	err := f.db.Model(&paymentmodel.PaymentModel{}).
		Where("payment_contract_id = ? AND payment_type = ? AND payment_installment_number = ?",
			contractID, paymentmodel.PaymentTypeMonthly, installment).
		Count(&n).Error
	require.NoError(t, err)
	return n
}

/* ===================== monthly generation ===================== */

func TestMonthlySweepOpensCurrentInstallment(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 1, 12)
	f.monthlyRow(t, m.ContractID, 1, paymentmodel.PaymentStatusSuccess, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	assert.EqualValues(t, 1, f.monthlyCount(t, m.ContractID, 2))
	assert.Equal(t, 1, f.notifier.CountType(notifmodel.NotificationTypePaymentDue))

	fresh := f.reload(t, m.ContractID)
	assert.Equal(t, 0, fresh.ContractUnpaidMonthsCount, "previous month was settled")
	assert.True(t, fresh.ContractAccumulatedUnpaidPenalty.IsZero())
}

func TestMonthlySweepIsIdempotent(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 1, 12)
	f.monthlyRow(t, m.ContractID, 1, paymentmodel.PaymentStatusSuccess, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))
	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	assert.EqualValues(t, 1, f.monthlyCount(t, m.ContractID, 2), "rerun must not duplicate the intent")
	assert.Equal(t, 1, f.gateway.SessionCount())
}

func TestMonthlySweepSkipsFirstInstallment(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 0, 12)

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	assert.EqualValues(t, 0, f.monthlyCount(t, m.ContractID, 1), "installment 1 belongs to paperwork completion")
	assert.Equal(t, 0, f.gateway.SessionCount())
}

func TestMonthlySweepStopsAfterLastMonth(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 6, 6)
	f.monthlyRow(t, m.ContractID, 6, paymentmodel.PaymentStatusSuccess, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	assert.EqualValues(t, 0, f.monthlyCount(t, m.ContractID, 7), "term is over, no new installment")
}

/* ===================== penalty accrual ===================== */

func TestMonthlySweepAccruesPenaltyOnUnpaidMonth(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)
	f.monthlyRow(t, m.ContractID, 1, paymentmodel.PaymentStatusSuccess, testNow.AddDate(0, -2, 0))
	f.monthlyRow(t, m.ContractID, 2, paymentmodel.PaymentStatusPending, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	fresh := f.reload(t, m.ContractID)
	assert.Equal(t, 1, fresh.ContractUnpaidMonthsCount)
	// 5% of 7.000.000
	assert.True(t, fresh.ContractAccumulatedUnpaidPenalty.Equal(decimal.NewFromInt(350_000)),
		"accumulated=%s", fresh.ContractAccumulatedUnpaidPenalty)

	assert.EqualValues(t, 1, f.monthlyCount(t, m.ContractID, 3), "current installment still opens")
}

func TestMonthlySweepDailyRerunsAccrueOnce(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)
	f.monthlyRow(t, m.ContractID, 2, paymentmodel.PaymentStatusPending, testNow.AddDate(0, -1, 0))

	// the daily sweep lands on the same month four times
	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))
	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))
	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow.AddDate(0, 0, 1)))
	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow.AddDate(0, 0, 2)))

	fresh := f.reload(t, m.ContractID)
	assert.Equal(t, 1, fresh.ContractUnpaidMonthsCount, "one missed month counts once, not per day")
	assert.True(t, fresh.ContractAccumulatedUnpaidPenalty.Equal(decimal.NewFromInt(350_000)),
		"accumulated=%s", fresh.ContractAccumulatedUnpaidPenalty)
	assert.EqualValues(t, 1, f.monthlyCount(t, m.ContractID, 3))
}

func TestMonthlySweepPenaltyGrowsPerMissedMonth(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)
	f.monthlyRow(t, m.ContractID, 2, paymentmodel.PaymentStatusPending, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))
	// installment 3 opened above stays unpaid into the next month
	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow.AddDate(0, 1, 0)))

	fresh := f.reload(t, m.ContractID)
	assert.Equal(t, 2, fresh.ContractUnpaidMonthsCount)
	assert.True(t, fresh.ContractAccumulatedUnpaidPenalty.Equal(decimal.NewFromInt(700_000)),
		"rent x rate x missed months")
	assert.EqualValues(t, 1, f.monthlyCount(t, m.ContractID, 4))
}

func TestMonthlySweepResetsStreakWhenPreviousSettled(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 3, 12)
	require.NoError(t, f.db.Model(m).Updates(map[string]interface{}{
		"contract_unpaid_months_count":        2,
		"contract_accumulated_unpaid_penalty": decimal.NewFromInt(700_000),
	}).Error)
	f.monthlyRow(t, m.ContractID, 3, paymentmodel.PaymentStatusSuccess, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	fresh := f.reload(t, m.ContractID)
	assert.Equal(t, 0, fresh.ContractUnpaidMonthsCount, "a settled month clears the streak")
	assert.True(t, fresh.ContractAccumulatedUnpaidPenalty.Equal(decimal.NewFromInt(700_000)),
		"the accumulated penalty itself stays owed")
}

func TestMonthlySweepAlertsOwnerAtThreshold(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 4, 12)
	require.NoError(t, f.db.Model(m).Update("contract_unpaid_months_count", 2).Error)
	f.monthlyRow(t, m.ContractID, 4, paymentmodel.PaymentStatusPending, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	fresh := f.reload(t, m.ContractID)
	require.Equal(t, 3, fresh.ContractUnpaidMonthsCount)
	require.Equal(t, 1, f.notifier.CountType(notifmodel.NotificationTypeUnpaidRentWarning))
	var warned *testutil.Notice
	for i := range f.notifier.Notices {
		if f.notifier.Notices[i].Type == notifmodel.NotificationTypeUnpaidRentWarning {
			warned = &f.notifier.Notices[i]
		}
	}
	require.NotNil(t, warned)
	assert.Equal(t, f.owner, warned.UserID, "the property owner gets the warning")
}

func TestMonthlySweepNoAlertBelowThreshold(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)
	f.monthlyRow(t, m.ContractID, 2, paymentmodel.PaymentStatusPending, testNow.AddDate(0, -1, 0))

	require.NoError(t, f.rent.RunMonthlyGeneration(context.Background(), testNow))

	assert.Equal(t, 1, f.reload(t, m.ContractID).ContractUnpaidMonthsCount)
	assert.Equal(t, 0, f.notifier.CountType(notifmodel.NotificationTypeUnpaidRentWarning))
}

/* ===================== completion sweep ===================== */

func TestCompletionSweepClosesEndedRental(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 7, 6)

	require.NoError(t, f.sweep.RunCompletionSweep(context.Background(), testNow))

	fresh := f.reload(t, m.ContractID)
	assert.Equal(t, model.ContractStatusCompleted, fresh.ContractStatus)

	var prop propertymodel.PropertyModel
	require.NoError(t, f.db.First(&prop, "property_id = ?", f.prop.PropertyID).Error)
	assert.Equal(t, propertymodel.PropertyStatusAvailable, prop.PropertyStatus)

	assert.Equal(t, 1, f.notifier.CountType(notifmodel.NotificationTypeContractCompleted))
}

func TestCompletionSweepNotifiesHeldDeposit(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 7, 6)
	held := model.SecurityDepositHeld
	require.NoError(t, f.db.Model(m).Update("contract_security_deposit_status", held).Error)

	require.NoError(t, f.sweep.RunCompletionSweep(context.Background(), testNow))

	assert.Equal(t, 1, f.notifier.CountType(notifmodel.NotificationTypeSecurityDeposit))
}

func TestCompletionSweepLeavesRunningRentalAlone(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)

	require.NoError(t, f.sweep.RunCompletionSweep(context.Background(), testNow))

	assert.Equal(t, model.ContractStatusActive, f.reload(t, m.ContractID).ContractStatus)
}

func TestCompletionSweepRerunDoesNotRenotify(t *testing.T) {
	f := newCronFixture(t)
	f.activeRental(t, 7, 6)

	require.NoError(t, f.sweep.RunCompletionSweep(context.Background(), testNow))
	require.NoError(t, f.sweep.RunCompletionSweep(context.Background(), testNow))

	assert.Equal(t, 1, f.notifier.CountType(notifmodel.NotificationTypeContractCompleted))
}

/* ===================== overdue reminders ===================== */

func TestOverdueRemindersFireWeekly(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)

	f.monthlyRow(t, m.ContractID, 2, paymentmodel.PaymentStatusPending, testNow.AddDate(0, 0, -7))
	f.monthlyRow(t, m.ContractID, 3, paymentmodel.PaymentStatusPending, testNow.AddDate(0, 0, -3))
	f.monthlyRow(t, m.ContractID, 1, paymentmodel.PaymentStatusSuccess, testNow.AddDate(0, 0, -14))

	require.NoError(t, f.remind.RunOverdueReminders(context.Background(), testNow))

	assert.Equal(t, 1, f.notifier.CountType(notifmodel.NotificationTypePaymentDue),
		"only the 7-day-old pending installment gets the nag")
}

func TestOverdueRemindersSkipOffcycleDays(t *testing.T) {
	f := newCronFixture(t)
	m := f.activeRental(t, 2, 12)
	f.monthlyRow(t, m.ContractID, 2, paymentmodel.PaymentStatusPending, testNow.AddDate(0, 0, -8))

	require.NoError(t, f.remind.RunOverdueReminders(context.Background(), testNow))

	assert.Equal(t, 0, f.notifier.CountType(notifmodel.NotificationTypePaymentDue))
}
