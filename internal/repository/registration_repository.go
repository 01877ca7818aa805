package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vuhle/lingocenter/internal/model"
)

// RegistrationRepo provides CRUD operations for registrations.  A
// registration references collaborator-owned rows (user, course, class
// session, coupon); detail queries join those tables so handlers can
// respond without extra round trips.  All timestamps are stored in UTC.
type RegistrationRepo struct {
	db *sql.DB
}

// NewRegistrationRepo returns a new RegistrationRepo bound to the given database.
func NewRegistrationRepo(db *sql.DB) *RegistrationRepo { return &RegistrationRepo{db: db} }

// ActiveExists reports whether the user already has an active (not
// cancelled) registration for the course.  Cancelled rows left behind by
// an admin bucket decision do not block re-enrollment.
func (r *RegistrationRepo) ActiveExists(ctx context.Context, userID, courseID uint64) (bool, error) {
	const q = `SELECT EXISTS(
	             SELECT 1 FROM registrations
	             WHERE user_id = ? AND course_id = ?
	               AND (status IS NULL OR status <> 'cancelled'))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, userID, courseID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a new registration and populates the generated id and
// the database-assigned enrollment timestamp on the provided record.
func (r *RegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	const q = `INSERT INTO registrations
	           (user_id, course_id, class_session_id, coupon_id, payment_method,
	            original_amount, discount_amount, final_amount, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		reg.UserID, reg.CourseID, reg.ClassSessionID, reg.CouponID, reg.PaymentMethod,
		reg.OriginalAmount, reg.DiscountAmount, reg.FinalAmount, reg.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	reg.ID = uint64(id)
	// Query back the row to pick up enrolled_at set by the database.
	const sel = `SELECT enrolled_at FROM registrations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, reg.ID).Scan(&reg.EnrolledAt)
}

const registrationColumns = `id, user_id, course_id, class_session_id, coupon_id,
	payment_method, is_paid, payment_date, enrolled_at,
	original_amount, discount_amount, final_amount, status`

func scanRegistration(row *sql.Row) (*model.Registration, error) {
	var reg model.Registration
	var sessionID, couponID sql.NullInt64
	var paymentDate sql.NullTime
	var status sql.NullString
	err := row.Scan(
		&reg.ID, &reg.UserID, &reg.CourseID, &sessionID, &couponID,
		&reg.PaymentMethod, &reg.IsPaid, &paymentDate, &reg.EnrolledAt,
		&reg.OriginalAmount, &reg.DiscountAmount, &reg.FinalAmount, &status,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if sessionID.Valid {
		v := uint64(sessionID.Int64)
		reg.ClassSessionID = &v
	}
	if couponID.Valid {
		v := uint64(couponID.Int64)
		reg.CouponID = &v
	}
	if paymentDate.Valid {
		t := paymentDate.Time
		reg.PaymentDate = &t
	}
	if status.Valid {
		s := status.String
		reg.Status = &s
	}
	return &reg, nil
}

// Get loads a registration by id without ownership scoping.
func (r *RegistrationRepo) Get(ctx context.Context, id uint64) (*model.Registration, error) {
	const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ?`
	return scanRegistration(r.db.QueryRowContext(ctx, q, id))
}

// GetForUser loads a registration scoped to its owner.  A nil owner
// skips the scoping (admin access).  A registration belonging to someone
// else is reported as not found, never as forbidden.
func (r *RegistrationRepo) GetForUser(ctx context.Context, id uint64, owner *uint64) (*model.Registration, error) {
	if owner == nil {
		return r.Get(ctx, id)
	}
	const q = `SELECT ` + registrationColumns + ` FROM registrations WHERE id = ? AND user_id = ?`
	return scanRegistration(r.db.QueryRowContext(ctx, q, id, *owner))
}

// MarkPaid flips is_paid within a single conditional update.  The owner
// scope, when given, is part of the WHERE clause so ownership and
// idempotency are enforced by the same statement.  It returns false when
// no unpaid row matched, either because the registration is already paid,
// missing, or outside the owner's scope.
func (r *RegistrationRepo) MarkPaid(ctx context.Context, id uint64, owner *uint64, when time.Time) (bool, error) {
	q := `UPDATE registrations SET is_paid = 1, payment_date = ? WHERE id = ? AND is_paid = 0`
	args := []interface{}{when.UTC(), id}
	if owner != nil {
		q += ` AND user_id = ?`
		args = append(args, *owner)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetCoupon attaches a coupon and the computed amounts to an existing
// registration.  Only unpaid registrations without a coupon can be
// re-priced; it returns false when no such row matched.
func (r *RegistrationRepo) SetCoupon(ctx context.Context, id, couponID uint64, discount, final int64) (bool, error) {
	const q = `UPDATE registrations
	           SET coupon_id = ?, discount_amount = ?, final_amount = ?
	           WHERE id = ? AND is_paid = 0 AND coupon_id IS NULL`
	res, err := r.db.ExecContext(ctx, q, couponID, discount, final, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a registration.  It returns false when the row did not
// exist.
func (r *RegistrationRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PaidCount returns how many of the given registrations are paid.  Used
// by the bulk cancel guard: a single paid target rejects the whole batch.
func (r *RegistrationRepo) PaidCount(ctx context.Context, ids []uint64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `SELECT COUNT(*) FROM registrations WHERE is_paid = 1 AND id IN (` + placeholders(len(ids)) + `)`
	var n int
	if err := r.db.QueryRowContext(ctx, q, idArgs(ids)...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteMany removes the given registrations and returns how many rows
// were deleted.  Callers must run the paid guard first.
func (r *RegistrationRepo) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `DELETE FROM registrations WHERE id IN (` + placeholders(len(ids)) + `)`
	res, err := r.db.ExecContext(ctx, q, idArgs(ids)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListExpiredGateway returns ids of unpaid gateway registrations created
// before the cutoff.  Cash registrations represent a physical commitment
// and are never reclaimed.
func (r *RegistrationRepo) ListExpiredGateway(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	const q = `SELECT id FROM registrations
	           WHERE is_paid = 0 AND payment_method = 'gateway' AND enrolled_at < ?`
	rows, err := r.db.QueryContext(ctx, q, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// placeholders builds "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idArgs(ids []uint64) []interface{} {
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return args
}
