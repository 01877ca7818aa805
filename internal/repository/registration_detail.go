package repository

import (
	"context"
	"database/sql"
	"time"
)

// RegistrationDetail is a registration joined with its user, course,
// class session and coupon for read endpoints.  Nullable references are
// pointers and omitted from JSON when absent.
type RegistrationDetail struct {
	ID             uint64     `json:"id"`
	UserID         uint64     `json:"user_id"`
	UserCode       string     `json:"user_code"`
	UserName       string     `json:"user_name"`
	CourseID       uint64     `json:"course_id"`
	CourseCode     string     `json:"course_code"`
	CourseName     string     `json:"course_name"`
	ClassSessionID *uint64    `json:"class_session_id,omitempty"`
	SessionDays    *string    `json:"session_days,omitempty"`
	SessionTime    *string    `json:"session_time,omitempty"`
	CouponCode     *string    `json:"coupon_code,omitempty"`
	PaymentMethod  string     `json:"payment_method"`
	IsPaid         bool       `json:"is_paid"`
	PaymentDate    *time.Time `json:"payment_date,omitempty"`
	EnrolledAt     time.Time  `json:"enrolled_at"`
	OriginalAmount int64      `json:"original_amount"`
	DiscountAmount int64      `json:"discount_amount"`
	FinalAmount    int64      `json:"final_amount"`
	Status         *string    `json:"status,omitempty"`
}

const detailQuery = `SELECT r.id, r.user_id, u.code, u.full_name,
	       r.course_id, c.code, c.name,
	       r.class_session_id, cs.days, cs.time_slot,
	       cp.code,
	       r.payment_method, r.is_paid, r.payment_date, r.enrolled_at,
	       r.original_amount, r.discount_amount, r.final_amount, r.status
	FROM registrations r
	JOIN users u ON u.id = r.user_id
	JOIN courses c ON c.id = r.course_id
	LEFT JOIN class_sessions cs ON cs.id = r.class_session_id
	LEFT JOIN coupons cp ON cp.id = r.coupon_id`

type detailScanner interface {
	Scan(dest ...interface{}) error
}

func scanDetail(row detailScanner) (*RegistrationDetail, error) {
	var d RegistrationDetail
	var sessionID sql.NullInt64
	var days, timeSlot, couponCode, status sql.NullString
	var paymentDate sql.NullTime
	err := row.Scan(
		&d.ID, &d.UserID, &d.UserCode, &d.UserName,
		&d.CourseID, &d.CourseCode, &d.CourseName,
		&sessionID, &days, &timeSlot,
		&couponCode,
		&d.PaymentMethod, &d.IsPaid, &paymentDate, &d.EnrolledAt,
		&d.OriginalAmount, &d.DiscountAmount, &d.FinalAmount, &status,
	)
	if err != nil {
		return nil, err
	}
	if sessionID.Valid {
		v := uint64(sessionID.Int64)
		d.ClassSessionID = &v
	}
	if days.Valid {
		v := days.String
		d.SessionDays = &v
	}
	if timeSlot.Valid {
		v := timeSlot.String
		d.SessionTime = &v
	}
	if couponCode.Valid {
		v := couponCode.String
		d.CouponCode = &v
	}
	if paymentDate.Valid {
		t := paymentDate.Time
		d.PaymentDate = &t
	}
	if status.Valid {
		v := status.String
		d.Status = &v
	}
	return &d, nil
}

// GetDetail loads one registration with its joined references.
func (r *RegistrationRepo) GetDetail(ctx context.Context, id uint64) (*RegistrationDetail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx, detailQuery+` WHERE r.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *RegistrationRepo) listDetails(ctx context.Context, where string, args ...interface{}) ([]RegistrationDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailQuery+where+` ORDER BY r.enrolled_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]RegistrationDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListAll returns every registration, newest first.
func (r *RegistrationRepo) ListAll(ctx context.Context) ([]RegistrationDetail, error) {
	return r.listDetails(ctx, ``)
}

// ListByUser returns the registrations of one user, newest first.
func (r *RegistrationRepo) ListByUser(ctx context.Context, userID uint64) ([]RegistrationDetail, error) {
	return r.listDetails(ctx, ` WHERE r.user_id = ?`, userID)
}

// ListByCourse returns the registrations of one course, newest first.
func (r *RegistrationRepo) ListByCourse(ctx context.Context, courseID uint64) ([]RegistrationDetail, error) {
	return r.listDetails(ctx, ` WHERE r.course_id = ?`, courseID)
}

// PaymentInfo carries what the payment adapter and the invoice mailer
// need about a registration: identity strings for the gateway order info
// and the amount due.
type PaymentInfo struct {
	ID         uint64
	UserID     uint64
	UserCode   string
	UserName   string
	UserEmail  string
	CourseCode string
	CourseName string
	Amount     int64
	IsPaid     bool
}

// PaymentDetail loads the payment view of a registration.
func (r *RegistrationRepo) PaymentDetail(ctx context.Context, id uint64) (*PaymentInfo, error) {
	const q = `SELECT r.id, r.user_id, u.code, u.full_name, u.email,
	                  c.code, c.name, r.final_amount, r.is_paid
	           FROM registrations r
	           JOIN users u ON u.id = r.user_id
	           JOIN courses c ON c.id = r.course_id
	           WHERE r.id = ?`
	var p PaymentInfo
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.UserID, &p.UserCode, &p.UserName, &p.UserEmail,
		&p.CourseCode, &p.CourseName, &p.Amount, &p.IsPaid,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &p, nil
}
