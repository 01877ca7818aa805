package model

import "time"

// User identifies a student or staff member.  Account creation and
// credential handling live in a separate auth service; this core only
// reads user rows for rosters and gateway order descriptions.
//
// Fields:
//  ID        – primary key identifier.
//  Code      – short student code printed on invoices (e.g. "HV00042").
//  FullName  – display name, may contain Vietnamese diacritics.
//  Email     – contact address used by the invoice mailer.
//  Role      – access role ("STUDENT", "ADMIN").
//  CreatedAt – creation timestamp.
type User struct {
	ID        uint64    // users.id
	Code      string    // users.code
	FullName  string    // users.full_name
	Email     string    // users.email
	Role      string    // users.role
	CreatedAt time.Time // users.created_at
}
