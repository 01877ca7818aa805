// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into invoice notifications.
package queue

// InvoicePaidEvent is published when a registration's payment is
// confirmed, either by an admin or by a verified gateway notification.
// It carries enough information for the invoice mailer to render and send
// the receipt without querying the primary database.  EventID is unique
// per confirmation so downstream consumers can deduplicate redeliveries.
type InvoicePaidEvent struct {
	EventID        string `json:"event_id"`
	RegistrationID uint64 `json:"registration_id"`
	UserCode       string `json:"user_code"`
	UserName       string `json:"user_name"`
	Email          string `json:"email"`
	CourseCode     string `json:"course_code"`
	CourseName     string `json:"course_name"`
	Amount         int64  `json:"amount"`
	PaidAt         string `json:"paid_at"`
}
