package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vuhle/lingocenter/internal/model"
	"github.com/vuhle/lingocenter/internal/queue"
	"github.com/vuhle/lingocenter/internal/repository"
)

// fakeRegStore is an in-memory RegistrationStore mirroring the conditional
// update semantics of the SQL repository.
type fakeRegStore struct {
	mu     sync.Mutex
	nextID uint64
	regs   map[uint64]*model.Registration
	infos  map[uint64]*repository.PaymentInfo

	createErr       error
	setCouponDenied bool
}

func newFakeRegStore() *fakeRegStore {
	return &fakeRegStore{
		nextID: 1,
		regs:   make(map[uint64]*model.Registration),
		infos:  make(map[uint64]*repository.PaymentInfo),
	}
}

func (f *fakeRegStore) add(reg *model.Registration) *model.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reg.ID == 0 {
		reg.ID = f.nextID
		f.nextID++
	}
	f.regs[reg.ID] = reg
	return reg
}

func (f *fakeRegStore) ActiveExists(_ context.Context, userID, courseID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if r.UserID != userID || r.CourseID != courseID {
			continue
		}
		if r.Status != nil && *r.Status == model.StatusCancelled {
			continue
		}
		return true, nil
	}
	return false, nil
}

func (f *fakeRegStore) Create(_ context.Context, reg *model.Registration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.add(reg)
	return nil
}

func (f *fakeRegStore) Get(_ context.Context, id uint64) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, repository.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegStore) GetForUser(ctx context.Context, id uint64, owner *uint64) (*model.Registration, error) {
	r, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if owner != nil && r.UserID != *owner {
		return nil, repository.ErrRegistrationNotFound
	}
	return r, nil
}

func (f *fakeRegStore) MarkPaid(_ context.Context, id uint64, owner *uint64, when time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok || r.IsPaid {
		return false, nil
	}
	if owner != nil && r.UserID != *owner {
		return false, nil
	}
	r.IsPaid = true
	r.PaymentDate = &when
	if info, ok := f.infos[id]; ok {
		info.IsPaid = true
	}
	return true, nil
}

func (f *fakeRegStore) SetCoupon(_ context.Context, id, couponID uint64, discount, final int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setCouponDenied {
		return false, nil
	}
	r, ok := f.regs[id]
	if !ok || r.IsPaid || r.CouponID != nil {
		return false, nil
	}
	r.CouponID = &couponID
	r.DiscountAmount = discount
	r.FinalAmount = final
	return true, nil
}

func (f *fakeRegStore) Delete(_ context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.regs[id]; !ok {
		return false, nil
	}
	delete(f.regs, id)
	return true, nil
}

func (f *fakeRegStore) PaidCount(_ context.Context, ids []uint64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range ids {
		if r, ok := f.regs[id]; ok && r.IsPaid {
			n++
		}
	}
	return n, nil
}

func (f *fakeRegStore) DeleteMany(_ context.Context, ids []uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := f.regs[id]; ok {
			delete(f.regs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRegStore) PaymentDetail(_ context.Context, id uint64) (*repository.PaymentInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[id]
	if !ok {
		return nil, repository.ErrRegistrationNotFound
	}
	cp := *info
	return &cp, nil
}

// fakeCouponStore mimics the conditional consume of the SQL repository.
type fakeCouponStore struct {
	mu      sync.Mutex
	coupons map[uint64]*model.Coupon

	consumeErr error
}

func newFakeCouponStore(coupons ...*model.Coupon) *fakeCouponStore {
	f := &fakeCouponStore{coupons: make(map[uint64]*model.Coupon)}
	for _, c := range coupons {
		f.coupons[c.ID] = c
	}
	return f
}

func (f *fakeCouponStore) GetByCode(_ context.Context, code string) (*model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := strings.ToUpper(strings.TrimSpace(code))
	for _, c := range f.coupons {
		if c.Code == want {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrCouponNotFound
}

func (f *fakeCouponStore) GetByID(_ context.Context, id uint64) (*model.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok {
		return nil, repository.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCouponStore) Consume(_ context.Context, id uint64) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok {
		return repository.ErrCouponNotFound
	}
	if !c.IsActive {
		return repository.ErrCouponExhausted
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return repository.ErrCouponExhausted
	}
	c.UsageCount++
	return nil
}

func (f *fakeCouponStore) Release(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok {
		return repository.ErrCouponNotFound
	}
	if c.UsageCount > 0 {
		c.UsageCount--
	}
	return nil
}

// fakeCatalog serves reference data from maps.
type fakeCatalog struct {
	users    map[uint64]*model.User
	courses  map[uint64]*model.Course
	sessions map[uint64]*model.ClassSession
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		users:    make(map[uint64]*model.User),
		courses:  make(map[uint64]*model.Course),
		sessions: make(map[uint64]*model.ClassSession),
	}
}

func (f *fakeCatalog) GetCourse(_ context.Context, id uint64) (*model.Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, repository.ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeCatalog) GetClassSession(_ context.Context, id uint64) (*model.ClassSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, repository.ErrClassSessionNotFound
	}
	return s, nil
}

func (f *fakeCatalog) GetUser(_ context.Context, id uint64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

// fakeDispatcher records dispatched invoice events.
type fakeDispatcher struct {
	mu     sync.Mutex
	events []queue.InvoicePaidEvent
	err    error
}

func (f *fakeDispatcher) DispatchInvoicePaid(_ context.Context, event queue.InvoicePaidEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func ptrU64(v uint64) *uint64 { return &v }
func ptrI64(v int64) *int64   { return &v }
func ptrInt(v int) *int       { return &v }
