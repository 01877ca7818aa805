package repository

import (
	"context"
	"database/sql"

	"github.com/vuhle/lingocenter/internal/model"
)

// CatalogRepo reads the collaborator-owned catalog tables: users, courses
// and class sessions.  The enrollment core never writes these; their CRUD
// lives in the catalog and auth services.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// GetCourse loads a course by id, including the pricing fields a
// registration is computed from.
func (r *CatalogRepo) GetCourse(ctx context.Context, id uint64) (*model.Course, error) {
	const q = `SELECT id, code, name, tuition, discount_percent, created_at FROM courses WHERE id = ?`
	var c model.Course
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Code, &c.Name, &c.Tuition, &c.DiscountPercent, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetClassSession loads a class session by id.
func (r *CatalogRepo) GetClassSession(ctx context.Context, id uint64) (*model.ClassSession, error) {
	const q = `SELECT id, course_id, days, time_slot, created_at FROM class_sessions WHERE id = ?`
	var s model.ClassSession
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.CourseID, &s.Days, &s.TimeSlot, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrClassSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetUser loads a user by id.
func (r *CatalogRepo) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT id, code, full_name, email, role, created_at FROM users WHERE id = ?`
	var u model.User
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Code, &u.FullName, &u.Email, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
