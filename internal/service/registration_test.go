package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/model"
	"github.com/vuhle/lingocenter/internal/repository"
)

type regFixture struct {
	regs    *fakeRegStore
	coupons *fakeCouponStore
	catalog *fakeCatalog
	events  *fakeDispatcher
	svc     *RegistrationService
}

func newRegFixture() *regFixture {
	f := &regFixture{
		regs:    newFakeRegStore(),
		coupons: newFakeCouponStore(validCoupon()),
		catalog: newFakeCatalog(),
		events:  &fakeDispatcher{},
	}
	f.catalog.users[1] = &model.User{ID: 1, Code: "HV001", FullName: "Nguyễn Văn An", Email: "an@example.com", Role: "STUDENT"}
	f.catalog.courses[1] = &model.Course{ID: 1, Code: "ENG-B1", Name: "English B1", Tuition: 1_000_000}
	f.catalog.courses[2] = &model.Course{ID: 2, Code: "ENG-C1", Name: "English C1", Tuition: 2_000_000, DiscountPercent: 20}
	f.catalog.sessions[10] = &model.ClassSession{ID: 10, CourseID: 1, Days: "Mon/Wed/Fri", TimeSlot: "18:00-20:00"}
	f.svc = NewRegistrationService(f.regs, f.coupons, f.catalog, f.events, zap.NewNop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

func TestCreateGatewayRegistration(t *testing.T) {
	f := newRegFixture()
	reg, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: model.PaymentGateway,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000), reg.OriginalAmount)
	assert.Equal(t, int64(1_000_000), reg.FinalAmount)
	assert.False(t, reg.IsPaid)
	assert.Nil(t, reg.Status, "status stays unset without a class session")
}

func TestCreateUsesCourseDiscountedPrice(t *testing.T) {
	f := newRegFixture()
	reg, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        1,
		CourseID:      2,
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_600_000), reg.OriginalAmount)
}

func TestCreateWithSessionStartsPending(t *testing.T) {
	f := newRegFixture()
	reg, err := f.svc.Create(context.Background(), CreateInput{
		UserID:         1,
		CourseID:       1,
		ClassSessionID: ptrU64(10),
		PaymentMethod:  model.PaymentGateway,
	})
	require.NoError(t, err)
	require.NotNil(t, reg.Status)
	assert.Equal(t, model.StatusPending, *reg.Status)
}

func TestCreateRejectsSessionFromOtherCourse(t *testing.T) {
	f := newRegFixture()
	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:         1,
		CourseID:       2,
		ClassSessionID: ptrU64(10),
		PaymentMethod:  model.PaymentGateway,
	})
	assert.ErrorIs(t, err, ErrSessionCourseMismatch)
}

func TestCreateRejectsInvalidPaymentMethod(t *testing.T) {
	f := newRegFixture()
	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: "credit",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestCreateRejectsDuplicateActiveRegistration(t *testing.T) {
	f := newRegFixture()
	in := CreateInput{UserID: 1, CourseID: 1, PaymentMethod: model.PaymentGateway}

	_, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, repository.ErrAlreadyRegistered)
}

func TestCreateAllowsReRegisterAfterCancelledStatus(t *testing.T) {
	f := newRegFixture()
	cancelled := model.StatusCancelled
	f.regs.add(&model.Registration{UserID: 1, CourseID: 1, Status: &cancelled, PaymentMethod: model.PaymentGateway})

	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: model.PaymentGateway,
	})
	assert.NoError(t, err)
}

func TestCreateWithCouponPersistsDiscount(t *testing.T) {
	f := newRegFixture()
	reg, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: model.PaymentGateway,
		CouponID:      ptrU64(1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), reg.DiscountAmount)
	assert.Equal(t, int64(900_000), reg.FinalAmount)
	assert.Equal(t, 1, f.coupons.coupons[1].UsageCount)
}

func TestCreateReleasesCouponWhenInsertFails(t *testing.T) {
	f := newRegFixture()
	f.regs.createErr = errors.New("deadlock")

	_, err := f.svc.Create(context.Background(), CreateInput{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: model.PaymentGateway,
		CouponID:      ptrU64(1),
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.coupons.coupons[1].UsageCount, "usage slot must be returned")
}

func TestCancelReleasesCouponForCashReservation(t *testing.T) {
	f := newRegFixture()
	f.coupons.coupons[1].UsageCount = 1
	reg := f.regs.add(&model.Registration{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: model.PaymentCash,
		CouponID:      ptrU64(1),
	})

	require.NoError(t, f.svc.Cancel(context.Background(), reg.ID))
	assert.Equal(t, 0, f.coupons.coupons[1].UsageCount)
	_, err := f.regs.Get(context.Background(), reg.ID)
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)
}

func TestCancelKeepsCouponForUnpaidGateway(t *testing.T) {
	f := newRegFixture()
	f.coupons.coupons[1].UsageCount = 1
	reg := f.regs.add(&model.Registration{
		UserID:        1,
		CourseID:      1,
		PaymentMethod: model.PaymentGateway,
		CouponID:      ptrU64(1),
	})

	require.NoError(t, f.svc.Cancel(context.Background(), reg.ID))
	assert.Equal(t, 1, f.coupons.coupons[1].UsageCount,
		"unpaid gateway cancel does not roll back usage")
}

func TestCancelMissingRegistration(t *testing.T) {
	f := newRegFixture()
	err := f.svc.Cancel(context.Background(), 404)
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)
}

func TestCancelBatchRejectsWhenAnyPaid(t *testing.T) {
	f := newRegFixture()
	a := f.regs.add(&model.Registration{UserID: 1, CourseID: 1})
	b := f.regs.add(&model.Registration{UserID: 2, CourseID: 1, IsPaid: true})
	c := f.regs.add(&model.Registration{UserID: 3, CourseID: 1})

	_, err := f.svc.CancelBatch(context.Background(), []uint64{a.ID, b.ID, c.ID})
	assert.ErrorIs(t, err, ErrBatchContainsPaid)

	// Nothing was deleted.
	for _, id := range []uint64{a.ID, b.ID, c.ID} {
		_, err := f.regs.Get(context.Background(), id)
		assert.NoError(t, err)
	}
}

func TestCancelBatchDeletesAllUnpaid(t *testing.T) {
	f := newRegFixture()
	a := f.regs.add(&model.Registration{UserID: 1, CourseID: 1})
	b := f.regs.add(&model.Registration{UserID: 2, CourseID: 1})

	n, err := f.svc.CancelBatch(context.Background(), []uint64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func paidFixtureReg(f *regFixture) *model.Registration {
	reg := f.regs.add(&model.Registration{
		UserID:         1,
		CourseID:       1,
		PaymentMethod:  model.PaymentCash,
		OriginalAmount: 1_000_000,
		FinalAmount:    1_000_000,
	})
	f.regs.infos[reg.ID] = &repository.PaymentInfo{
		ID:         reg.ID,
		UserID:     1,
		UserCode:   "HV001",
		UserName:   "Nguyễn Văn An",
		UserEmail:  "an@example.com",
		CourseCode: "ENG-B1",
		CourseName: "English B1",
		Amount:     1_000_000,
	}
	return reg
}

func TestConfirmPaymentMarksPaidAndDispatchesOnce(t *testing.T) {
	f := newRegFixture()
	reg := paidFixtureReg(f)

	got, err := f.svc.ConfirmPayment(context.Background(), reg.ID, nil)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	require.NotNil(t, got.PaymentDate)
	assert.Equal(t, 1, f.events.count())

	// Second confirmation is a no-op and dispatches nothing new.
	again, err := f.svc.ConfirmPayment(context.Background(), reg.ID, nil)
	require.NoError(t, err)
	assert.True(t, again.IsPaid)
	assert.Equal(t, 1, f.events.count())
}

func TestConfirmPaymentScopedToOwner(t *testing.T) {
	f := newRegFixture()
	reg := paidFixtureReg(f)

	_, err := f.svc.ConfirmPayment(context.Background(), reg.ID, ptrU64(999))
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)

	got, err := f.svc.ConfirmPayment(context.Background(), reg.ID, ptrU64(1))
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
}

func TestConfirmPaymentSurvivesDispatchFailure(t *testing.T) {
	f := newRegFixture()
	reg := paidFixtureReg(f)
	f.events.err = errors.New("broker down")

	got, err := f.svc.ConfirmPayment(context.Background(), reg.ID, nil)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
}
