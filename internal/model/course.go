package model

import "time"

// Course is a language course offered by the center.  Courses are managed
// by the catalog service; the enrollment core reads them to price
// registrations.
//
// Fields:
//  ID              – primary key identifier.
//  Code            – short course code used in gateway order info (e.g. "ENG-B1").
//  Name            – human readable course name.
//  Tuition         – full tuition in VND.
//  DiscountPercent – permanent course-level discount (0 when none).
//  CreatedAt       – creation timestamp.
type Course struct {
	ID              uint64    // courses.id
	Code            string    // courses.code
	Name            string    // courses.name
	Tuition         int64     // courses.tuition
	DiscountPercent int       // courses.discount_percent
	CreatedAt       time.Time // courses.created_at
}

// DiscountedPrice returns the effective order price for the course: the
// tuition reduced by the course-level discount percent.  This is the
// amount coupons are applied against.
func (c Course) DiscountedPrice() int64 {
	if c.DiscountPercent <= 0 {
		return c.Tuition
	}
	return c.Tuition - c.Tuition*int64(c.DiscountPercent)/100
}
