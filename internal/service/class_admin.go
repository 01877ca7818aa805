package service

import (
	"context"

	"github.com/vuhle/lingocenter/internal/model"
)

// ClassDecisionStore is the slice of the registration repository used by
// bucket decisions.
type ClassDecisionStore interface {
	BulkUpdateStatus(ctx context.Context, courseID, sessionID uint64, from, to string) (int64, error)
}

// ClassAdminService executes the operator's bulk decision over one
// (course, session, status) bucket.
type ClassAdminService struct {
	regs ClassDecisionStore
}

// NewClassAdminService constructs a ClassAdminService.
func NewClassAdminService(regs ClassDecisionStore) *ClassAdminService {
	return &ClassAdminService{regs: regs}
}

// Decision actions accepted by Decide.
const (
	ActionOpen   = "open"
	ActionCancel = "cancel"
)

// Decide transitions a whole bucket: "open" confirms it, "cancel"
// cancels it, anything else is rejected.  Pending is the only
// non-terminal status, so only pending buckets can be decided.  The
// transition is a single statement; it returns the number of
// registrations affected.
func (s *ClassAdminService) Decide(ctx context.Context, courseID, sessionID uint64, currentStatus, action string) (int64, error) {
	if currentStatus != model.StatusPending {
		return 0, ErrNotPendingBucket
	}
	var target string
	switch action {
	case ActionOpen:
		target = model.StatusConfirmed
	case ActionCancel:
		target = model.StatusCancelled
	default:
		return 0, ErrInvalidAction
	}
	return s.regs.BulkUpdateStatus(ctx, courseID, sessionID, currentStatus, target)
}
