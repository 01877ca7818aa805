package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/vuhle/lingocenter/internal/model"
)

// CouponRepo provides data access to the coupons table.  Usage inventory
// is mutated only through conditional updates so the usage count can
// never pass the limit, even under concurrent redemptions.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo returns a new CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{db: db} }

const couponColumns = `id, code, discount_type, discount_value, min_order_value,
	max_discount_amount, starts_at, expires_at, usage_limit, usage_count, is_active, created_at`

func scanCoupon(row *sql.Row) (*model.Coupon, error) {
	var c model.Coupon
	var maxDiscount sql.NullInt64
	var limit sql.NullInt64
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.MinOrderValue,
		&maxDiscount, &c.StartsAt, &c.ExpiresAt, &limit, &c.UsageCount, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	if maxDiscount.Valid {
		v := maxDiscount.Int64
		c.MaxDiscountAmount = &v
	}
	if limit.Valid {
		v := int(limit.Int64)
		c.UsageLimit = &v
	}
	return &c, nil
}

// GetByCode looks a coupon up by its code.  Codes are stored uppercase;
// the lookup folds the input so students can type them in any case.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code = ?`
	return scanCoupon(r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))))
}

// GetByID looks a coupon up by primary key.
func (r *CouponRepo) GetByID(ctx context.Context, id uint64) (*model.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE id = ?`
	return scanCoupon(r.db.QueryRowContext(ctx, q, id))
}

// Consume claims one usage slot.  The update only matches while the
// coupon is active and below its limit, so the claim either succeeds
// atomically or fails with ErrCouponExhausted; there is no window in
// which two concurrent claims can both take the last slot.
func (r *CouponRepo) Consume(ctx context.Context, id uint64) error {
	const q = `UPDATE coupons
	           SET usage_count = usage_count + 1
	           WHERE id = ? AND is_active = 1
	             AND (usage_limit IS NULL OR usage_count < usage_limit)`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCouponExhausted
	}
	return nil
}

// Release returns one previously consumed usage slot.  The count never
// drops below zero.  Used as the compensating action when a registration
// with a consumed coupon is cancelled or its creation fails mid-flight.
func (r *CouponRepo) Release(ctx context.Context, id uint64) error {
	const q = `UPDATE coupons SET usage_count = usage_count - 1 WHERE id = ? AND usage_count > 0`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
