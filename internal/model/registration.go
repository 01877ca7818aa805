package model

import "time"

// Payment methods accepted for a registration.
const (
	PaymentGateway = "gateway" // online payment via the VNPay redirect flow
	PaymentCash    = "cash"    // on-site cash settlement
)

// Registration statuses.  Status is only meaningful once a class session
// is attached; pending is the sole non-terminal state.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Registration is a student's enrollment in a course, optionally tied to a
// class session and a coupon.  IsPaid is orthogonal to Status: an admin
// decision never resets the payment flag.
//
// Invariants:
//  - IsPaid implies PaymentDate is set.
//  - At most one active (non-cancelled) registration per (user, course).
//  - Status is NULL until a class session is attached.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – enrolling student.
//  CourseID       – course being enrolled in.
//  ClassSessionID – chosen time slot (nullable).
//  CouponID       – applied coupon (nullable).
//  PaymentMethod  – "gateway" or "cash".
//  IsPaid         – payment settled.
//  PaymentDate    – when payment was confirmed (nullable).
//  EnrolledAt     – when the registration was created.
//  OriginalAmount – course price before coupon, in VND.
//  DiscountAmount – coupon discount, in VND.
//  FinalAmount    – amount due after discount, in VND.
//  Status         – pending/confirmed/cancelled (nullable).
type Registration struct {
	ID             uint64     // registrations.id
	UserID         uint64     // registrations.user_id
	CourseID       uint64     // registrations.course_id
	ClassSessionID *uint64    // registrations.class_session_id (nullable)
	CouponID       *uint64    // registrations.coupon_id (nullable)
	PaymentMethod  string     // registrations.payment_method
	IsPaid         bool       // registrations.is_paid
	PaymentDate    *time.Time // registrations.payment_date (nullable)
	EnrolledAt     time.Time  // registrations.enrolled_at
	OriginalAmount int64      // registrations.original_amount
	DiscountAmount int64      // registrations.discount_amount
	FinalAmount    int64      // registrations.final_amount
	Status         *string    // registrations.status (nullable)
}
