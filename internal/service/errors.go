package service

import "errors"

// Domain-rule violations surfaced to handlers as 400 responses.
var (
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrAlreadyPaid           = errors.New("registration is already paid")
	ErrBatchContainsPaid     = errors.New("batch contains a paid registration")
	ErrCouponInactive        = errors.New("coupon is not active")
	ErrCouponNotStarted      = errors.New("coupon is not valid yet")
	ErrCouponExpired         = errors.New("coupon has expired")
	ErrCouponMinOrder        = errors.New("order total below coupon minimum")
	ErrCouponAlreadyApplied  = errors.New("registration already has a coupon")
	ErrSessionCourseMismatch = errors.New("class session does not belong to course")
	ErrInvalidAction         = errors.New("unknown decision action")
	ErrNotPendingBucket      = errors.New("only pending registrations can be decided")
)
