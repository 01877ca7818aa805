// Package service contains the transactional orchestration of the
// enrollment core: registration lifecycle, coupon application and the
// payment gateway flows.  Services depend on narrow store interfaces,
// implemented in production by the repository package, so every rule can
// be exercised in tests against in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/vuhle/lingocenter/internal/model"
	"github.com/vuhle/lingocenter/internal/queue"
	"github.com/vuhle/lingocenter/internal/repository"
)

// RegistrationStore is the slice of the registration repository used by
// the services.
type RegistrationStore interface {
	ActiveExists(ctx context.Context, userID, courseID uint64) (bool, error)
	Create(ctx context.Context, reg *model.Registration) error
	Get(ctx context.Context, id uint64) (*model.Registration, error)
	// GetForUser scopes the lookup to the owner; nil owner skips scoping.
	GetForUser(ctx context.Context, id uint64, owner *uint64) (*model.Registration, error)
	// MarkPaid is a single conditional update: it returns false when no
	// unpaid row matched the id (and owner scope, when given).
	MarkPaid(ctx context.Context, id uint64, owner *uint64, when time.Time) (bool, error)
	SetCoupon(ctx context.Context, id, couponID uint64, discount, final int64) (bool, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	PaidCount(ctx context.Context, ids []uint64) (int, error)
	DeleteMany(ctx context.Context, ids []uint64) (int64, error)
	PaymentDetail(ctx context.Context, id uint64) (*repository.PaymentInfo, error)
}

// CouponStore is the slice of the coupon repository used by the services.
// Consume must be atomic with respect to the usage limit.
type CouponStore interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByID(ctx context.Context, id uint64) (*model.Coupon, error)
	Consume(ctx context.Context, id uint64) error
	Release(ctx context.Context, id uint64) error
}

// CatalogStore reads the collaborator-owned reference data.
type CatalogStore interface {
	GetCourse(ctx context.Context, id uint64) (*model.Course, error)
	GetClassSession(ctx context.Context, id uint64) (*model.ClassSession, error)
	GetUser(ctx context.Context, id uint64) (*model.User, error)
}

// InvoiceDispatcher hands a confirmed payment to the invoice/email
// collaborator.  Dispatch failures never roll back a payment.
type InvoiceDispatcher interface {
	DispatchInvoicePaid(ctx context.Context, event queue.InvoicePaidEvent) error
}
