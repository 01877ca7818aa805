package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/model"
	"github.com/vuhle/lingocenter/internal/repository"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func validCoupon() *model.Coupon {
	return &model.Coupon{
		ID:            1,
		Code:          "SALE10",
		DiscountType:  model.DiscountPercent,
		DiscountValue: 10,
		StartsAt:      testNow.Add(-24 * time.Hour),
		ExpiresAt:     testNow.Add(24 * time.Hour),
		IsActive:      true,
	}
}

func TestComputeDiscountPercent(t *testing.T) {
	c := validCoupon()
	discount, err := ComputeDiscount(c, 1_000_000, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), discount)
}

func TestComputeDiscountPercentCapped(t *testing.T) {
	c := validCoupon()
	c.MaxDiscountAmount = ptrI64(50_000)
	discount, err := ComputeDiscount(c, 1_000_000, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), discount)
}

func TestComputeDiscountPercentRoundsHalfUp(t *testing.T) {
	c := validCoupon()
	c.DiscountValue = 15
	discount, err := ComputeDiscount(c, 333, testNow)
	require.NoError(t, err)
	// 333 * 15 / 100 = 49.95, rounds to 50.
	assert.Equal(t, int64(50), discount)
}

func TestComputeDiscountFixedClampedToTotal(t *testing.T) {
	c := validCoupon()
	c.DiscountType = model.DiscountFixed
	c.DiscountValue = 200_000
	discount, err := ComputeDiscount(c, 150_000, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(150_000), discount)
}

func TestComputeDiscountValidationOrder(t *testing.T) {
	limit := 5

	cases := []struct {
		name    string
		mutate  func(*model.Coupon)
		total   int64
		wantErr error
	}{
		{"inactive", func(c *model.Coupon) { c.IsActive = false }, 1_000_000, ErrCouponInactive},
		{"not started", func(c *model.Coupon) { c.StartsAt = testNow.Add(time.Hour) }, 1_000_000, ErrCouponNotStarted},
		{"expired", func(c *model.Coupon) { c.ExpiresAt = testNow.Add(-time.Hour) }, 1_000_000, ErrCouponExpired},
		{"exhausted", func(c *model.Coupon) { c.UsageLimit = &limit; c.UsageCount = 5 }, 1_000_000, repository.ErrCouponExhausted},
		{"below minimum", func(c *model.Coupon) { c.MinOrderValue = 2_000_000 }, 1_000_000, ErrCouponMinOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCoupon()
			tc.mutate(c)
			_, err := ComputeDiscount(c, tc.total, testNow)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestComputeDiscountInactiveWinsOverExpired(t *testing.T) {
	c := validCoupon()
	c.IsActive = false
	c.ExpiresAt = testNow.Add(-time.Hour)
	_, err := ComputeDiscount(c, 1_000_000, testNow)
	assert.ErrorIs(t, err, ErrCouponInactive)
}

func newCouponService(regs *fakeRegStore, coupons *fakeCouponStore) *CouponService {
	svc := NewCouponService(regs, coupons, zap.NewNop())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestApplyRepricesRegistration(t *testing.T) {
	regs := newFakeRegStore()
	reg := regs.add(&model.Registration{
		UserID:         1,
		CourseID:       1,
		PaymentMethod:  model.PaymentGateway,
		OriginalAmount: 1_000_000,
		FinalAmount:    1_000_000,
	})
	coupons := newFakeCouponStore(validCoupon())
	svc := newCouponService(regs, coupons)

	res, err := svc.Apply(context.Background(), reg.ID, "sale10")
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), res.DiscountAmount)
	assert.Equal(t, int64(900_000), res.FinalAmount)
	assert.Equal(t, "SALE10", res.CouponCode)

	stored, err := regs.Get(context.Background(), reg.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CouponID)
	assert.Equal(t, uint64(1), *stored.CouponID)
	assert.Equal(t, int64(900_000), stored.FinalAmount)
	assert.Equal(t, 1, coupons.coupons[1].UsageCount)
}

func TestApplyRejectsPaidRegistration(t *testing.T) {
	regs := newFakeRegStore()
	reg := regs.add(&model.Registration{IsPaid: true, OriginalAmount: 1_000_000})
	svc := newCouponService(regs, newFakeCouponStore(validCoupon()))

	_, err := svc.Apply(context.Background(), reg.ID, "SALE10")
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestApplyRejectsSecondCoupon(t *testing.T) {
	regs := newFakeRegStore()
	reg := regs.add(&model.Registration{CouponID: ptrU64(7), OriginalAmount: 1_000_000})
	svc := newCouponService(regs, newFakeCouponStore(validCoupon()))

	_, err := svc.Apply(context.Background(), reg.ID, "SALE10")
	assert.ErrorIs(t, err, ErrCouponAlreadyApplied)
}

func TestApplyUnknownCode(t *testing.T) {
	regs := newFakeRegStore()
	reg := regs.add(&model.Registration{OriginalAmount: 1_000_000})
	svc := newCouponService(regs, newFakeCouponStore())

	_, err := svc.Apply(context.Background(), reg.ID, "NOPE")
	assert.ErrorIs(t, err, repository.ErrCouponNotFound)
}

func TestApplyReleasesSlotWhenUpdateLosesRace(t *testing.T) {
	regs := newFakeRegStore()
	reg := regs.add(&model.Registration{OriginalAmount: 1_000_000})
	coupons := newFakeCouponStore(validCoupon())
	svc := newCouponService(regs, coupons)

	// Simulate a concurrent apply winning between the service's read and
	// its conditional update: the update matches no row.
	regs.setCouponDenied = true

	_, err := svc.Apply(context.Background(), reg.ID, "SALE10")
	assert.ErrorIs(t, err, ErrCouponAlreadyApplied)
	assert.Equal(t, 0, coupons.coupons[1].UsageCount, "claimed slot must be released")
}

func TestApplyAtLastUsageSlot(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = ptrInt(3)
	c.UsageCount = 2
	regs := newFakeRegStore()
	reg := regs.add(&model.Registration{OriginalAmount: 1_000_000})
	coupons := newFakeCouponStore(c)
	svc := newCouponService(regs, coupons)

	_, err := svc.Apply(context.Background(), reg.ID, "SALE10")
	require.NoError(t, err)
	assert.Equal(t, 3, coupons.coupons[1].UsageCount)
}
