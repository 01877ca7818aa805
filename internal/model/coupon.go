package model

import "time"

// Coupon discount types.
const (
	DiscountPercent = "percent" // discount_value is a percentage of the order
	DiscountFixed   = "fixed"   // discount_value is a flat VND amount
)

// Coupon is a limited-use discount code.  Usage inventory is tracked in
// usage_count; when UsageLimit is set the repository only consumes a slot
// through a conditional update so the count can never pass the limit.
//
// Fields:
//  ID                – primary key identifier.
//  Code              – unique uppercase code entered by the student.
//  DiscountType      – "percent" or "fixed".
//  DiscountValue     – percent (0-100) or flat VND amount.
//  MinOrderValue     – minimum order total the coupon applies to.
//  MaxDiscountAmount – cap for percent discounts (nil = uncapped).
//  StartsAt          – first instant the coupon is valid.
//  ExpiresAt         – last instant the coupon is valid.
//  UsageLimit        – total redemptions allowed (nil = unlimited).
//  UsageCount        – redemptions so far.
//  IsActive          – kill switch independent of the validity window.
type Coupon struct {
	ID                uint64    // coupons.id
	Code              string    // coupons.code
	DiscountType      string    // coupons.discount_type
	DiscountValue     int64     // coupons.discount_value
	MinOrderValue     int64     // coupons.min_order_value
	MaxDiscountAmount *int64    // coupons.max_discount_amount (nullable)
	StartsAt          time.Time // coupons.starts_at
	ExpiresAt         time.Time // coupons.expires_at
	UsageLimit        *int      // coupons.usage_limit (nullable)
	UsageCount        int       // coupons.usage_count
	IsActive          bool      // coupons.is_active
	CreatedAt         time.Time // coupons.created_at
}
