package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/model"
	"github.com/vuhle/lingocenter/internal/repository"
)

// ComputeDiscount validates a coupon against an order total at a given
// instant and returns the discount amount.  Checks run in a fixed order:
// active flag, validity window, usage inventory, minimum order value.
// The computed discount never exceeds the order total; percent discounts
// round half-up and honor the optional cap.
func ComputeDiscount(c *model.Coupon, orderTotal int64, now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, ErrCouponInactive
	}
	if now.Before(c.StartsAt) {
		return 0, ErrCouponNotStarted
	}
	if now.After(c.ExpiresAt) {
		return 0, ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return 0, repository.ErrCouponExhausted
	}
	if orderTotal < c.MinOrderValue {
		return 0, ErrCouponMinOrder
	}

	var discount int64
	switch c.DiscountType {
	case model.DiscountPercent:
		discount = (orderTotal*c.DiscountValue + 50) / 100
		if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
			discount = *c.MaxDiscountAmount
		}
	default: // fixed
		discount = c.DiscountValue
	}
	if discount > orderTotal {
		discount = orderTotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

// CouponService applies coupons to existing registrations.
type CouponService struct {
	regs    RegistrationStore
	coupons CouponStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewCouponService constructs a CouponService.
func NewCouponService(regs RegistrationStore, coupons CouponStore, logger *zap.Logger) *CouponService {
	return &CouponService{regs: regs, coupons: coupons, logger: logger, now: time.Now}
}

// ApplyResult is returned to the client after a successful application.
type ApplyResult struct {
	DiscountAmount int64  `json:"discount_amount"`
	FinalAmount    int64  `json:"final_amount"`
	CouponCode     string `json:"coupon_code"`
}

// Apply re-prices a registration with the given coupon code.  The usage
// slot is claimed atomically before the registration is updated; when the
// update then matches no row (paid or re-priced concurrently) the slot is
// released again as a compensating action.
func (s *CouponService) Apply(ctx context.Context, registrationID uint64, code string) (*ApplyResult, error) {
	reg, err := s.regs.Get(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.IsPaid {
		return nil, ErrAlreadyPaid
	}
	if reg.CouponID != nil {
		return nil, ErrCouponAlreadyApplied
	}
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	discount, err := ComputeDiscount(coupon, reg.OriginalAmount, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.coupons.Consume(ctx, coupon.ID); err != nil {
		return nil, err
	}
	ok, err := s.regs.SetCoupon(ctx, reg.ID, coupon.ID, discount, reg.OriginalAmount-discount)
	if err == nil && !ok {
		err = ErrCouponAlreadyApplied
	}
	if err != nil {
		if relErr := s.coupons.Release(ctx, coupon.ID); relErr != nil {
			s.logger.Error("coupon release after failed apply",
				zap.Uint64("coupon_id", coupon.ID), zap.Error(relErr))
		}
		return nil, err
	}
	return &ApplyResult{
		DiscountAmount: discount,
		FinalAmount:    reg.OriginalAmount - discount,
		CouponCode:     coupon.Code,
	}, nil
}
