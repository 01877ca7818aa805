// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without inspecting SQL errors. For example,
// ErrCouponExhausted signals that the conditional usage update matched
// no row because the coupon's limit is reached, while
// ErrAlreadyRegistered signals a duplicate active enrollment for the
// same user and course.
package repository

import "errors"

// ErrRegistrationNotFound is returned when no registration matches the
// requested id within the caller's scope. Ownership violations are
// deliberately reported through this error as well, so a foreign
// registration is indistinguishable from a missing one.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrAlreadyRegistered is returned when an active registration already
// exists for the same user and course. Handlers should translate this
// into an HTTP 400 response.
var ErrAlreadyRegistered = errors.New("already registered for this course")

// ErrCouponNotFound is returned when no coupon exists for the given code
// or id.
var ErrCouponNotFound = errors.New("coupon not found")

// ErrCouponExhausted is returned when consuming a usage slot fails
// because the coupon is inactive or its usage limit is reached.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

// ErrCourseNotFound is returned when the referenced course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// ErrClassSessionNotFound is returned when the referenced class session
// does not exist.
var ErrClassSessionNotFound = errors.New("class session not found")

// ErrUserNotFound is returned when the referenced user does not exist.
var ErrUserNotFound = errors.New("user not found")
