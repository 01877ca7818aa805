package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vuhle/lingocenter/internal/model"
	"github.com/vuhle/lingocenter/internal/queue"
	"github.com/vuhle/lingocenter/internal/repository"
)

// RegistrationService owns the registration lifecycle: creation with
// inline coupon application, cancellation with coupon rollback, the bulk
// cancel guard and idempotent payment confirmation.
type RegistrationService struct {
	regs     RegistrationStore
	coupons  CouponStore
	catalog  CatalogStore
	invoices InvoiceDispatcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistrationService constructs a RegistrationService.
func NewRegistrationService(regs RegistrationStore, coupons CouponStore, catalog CatalogStore, invoices InvoiceDispatcher, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		regs:     regs,
		coupons:  coupons,
		catalog:  catalog,
		invoices: invoices,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateInput is the payload for a new registration.
type CreateInput struct {
	UserID         uint64
	CourseID       uint64
	ClassSessionID *uint64
	PaymentMethod  string
	CouponID       *uint64
}

// Create registers a user for a course.  The original price derives from
// the course's discounted price; a supplied coupon is validated, its
// usage slot claimed atomically, and the amounts persisted inline.
// Status is pending only when a class session is attached.  A second
// active registration for the same (user, course) is rejected.
func (s *RegistrationService) Create(ctx context.Context, in CreateInput) (*model.Registration, error) {
	if in.PaymentMethod != model.PaymentGateway && in.PaymentMethod != model.PaymentCash {
		return nil, ErrInvalidPaymentMethod
	}
	if _, err := s.catalog.GetUser(ctx, in.UserID); err != nil {
		return nil, err
	}
	course, err := s.catalog.GetCourse(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	if in.ClassSessionID != nil {
		session, err := s.catalog.GetClassSession(ctx, *in.ClassSessionID)
		if err != nil {
			return nil, err
		}
		if session.CourseID != in.CourseID {
			return nil, ErrSessionCourseMismatch
		}
	}
	exists, err := s.regs.ActiveExists(ctx, in.UserID, in.CourseID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrAlreadyRegistered
	}

	original := course.DiscountedPrice()
	reg := &model.Registration{
		UserID:         in.UserID,
		CourseID:       in.CourseID,
		ClassSessionID: in.ClassSessionID,
		PaymentMethod:  in.PaymentMethod,
		OriginalAmount: original,
		FinalAmount:    original,
	}
	if in.ClassSessionID != nil {
		pending := model.StatusPending
		reg.Status = &pending
	}
	if in.CouponID != nil {
		coupon, err := s.coupons.GetByID(ctx, *in.CouponID)
		if err != nil {
			return nil, err
		}
		discount, err := ComputeDiscount(coupon, original, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.coupons.Consume(ctx, coupon.ID); err != nil {
			return nil, err
		}
		reg.CouponID = &coupon.ID
		reg.DiscountAmount = discount
		reg.FinalAmount = original - discount
	}

	if err := s.regs.Create(ctx, reg); err != nil {
		// The usage slot was claimed before the insert; give it back.
		if reg.CouponID != nil {
			if relErr := s.coupons.Release(ctx, *reg.CouponID); relErr != nil {
				s.logger.Error("coupon release after failed create",
					zap.Uint64("coupon_id", *reg.CouponID), zap.Error(relErr))
			}
		}
		return nil, err
	}
	return reg, nil
}

// Cancel hard-deletes a registration.  When a consumed coupon backed a
// settled commitment (paid, or a cash reservation) its usage slot is
// released best-effort before the delete.
func (s *RegistrationService) Cancel(ctx context.Context, id uint64) error {
	reg, err := s.regs.Get(ctx, id)
	if err != nil {
		return err
	}
	if reg.CouponID != nil && (reg.IsPaid || reg.PaymentMethod == model.PaymentCash) {
		if err := s.coupons.Release(ctx, *reg.CouponID); err != nil {
			s.logger.Error("coupon release on cancel",
				zap.Uint64("registration_id", id),
				zap.Uint64("coupon_id", *reg.CouponID), zap.Error(err))
		}
	}
	ok, err := s.regs.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrRegistrationNotFound
	}
	return nil
}

// CancelBatch deletes several registrations at once under a hard rule:
// when any target is paid the entire batch is rejected and nothing is
// deleted.  It returns how many rows were removed.
func (s *RegistrationService) CancelBatch(ctx context.Context, ids []uint64) (int64, error) {
	paid, err := s.regs.PaidCount(ctx, ids)
	if err != nil {
		return 0, err
	}
	if paid > 0 {
		return 0, ErrBatchContainsPaid
	}
	return s.regs.DeleteMany(ctx, ids)
}

// ConfirmPayment marks a registration paid.  For non-admin callers the
// owner scope is part of every store query, so someone else's
// registration surfaces as not found.  The operation is idempotent: an
// already-paid registration is returned unchanged and no second invoice
// is dispatched.
func (s *RegistrationService) ConfirmPayment(ctx context.Context, id uint64, owner *uint64) (*model.Registration, error) {
	reg, err := s.regs.GetForUser(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if reg.IsPaid {
		return reg, nil
	}
	when := s.now().UTC()
	ok, err := s.regs.MarkPaid(ctx, id, owner, when)
	if err != nil {
		return nil, err
	}
	reg.IsPaid = true
	reg.PaymentDate = &when
	if !ok {
		// A concurrent confirmation won the conditional update; that
		// confirmation dispatched the invoice.
		return s.regs.GetForUser(ctx, id, owner)
	}
	s.dispatchInvoice(ctx, id, when)
	return reg, nil
}

// dispatchInvoice hands the confirmed payment to the invoice
// collaborator.  Failures are logged and swallowed; is_paid remains the
// financial source of truth.
func (s *RegistrationService) dispatchInvoice(ctx context.Context, id uint64, paidAt time.Time) {
	info, err := s.regs.PaymentDetail(ctx, id)
	if err != nil {
		s.logger.Error("load invoice details", zap.Uint64("registration_id", id), zap.Error(err))
		return
	}
	event := queue.InvoicePaidEvent{
		EventID:        uuid.NewString(),
		RegistrationID: info.ID,
		UserCode:       info.UserCode,
		UserName:       info.UserName,
		Email:          info.UserEmail,
		CourseCode:     info.CourseCode,
		CourseName:     info.CourseName,
		Amount:         info.Amount,
		PaidAt:         paidAt.Format(time.RFC3339),
	}
	if err := s.invoices.DispatchInvoicePaid(ctx, event); err != nil {
		s.logger.Error("invoice dispatch", zap.Uint64("registration_id", id), zap.Error(err))
	}
}
