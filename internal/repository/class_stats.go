package repository

import (
	"context"
	"time"
)

// RosterEntry is one student inside a class bucket.
type RosterEntry struct {
	UserID     uint64    `json:"user_id"`
	UserCode   string    `json:"user_code"`
	UserName   string    `json:"user_name"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"`
	IsPaid     bool      `json:"is_paid"`
}

// ClassBucket groups the registrations of one (course, session, status)
// combination for the admin bulk-decision screen.
type ClassBucket struct {
	CourseID    uint64        `json:"course_id"`
	CourseCode  string        `json:"course_code"`
	CourseName  string        `json:"course_name"`
	SessionID   uint64        `json:"class_session_id"`
	SessionDays string        `json:"session_days"`
	SessionTime string        `json:"session_time"`
	Status      string        `json:"status"`
	Count       int           `json:"count"`
	Roster      []RosterEntry `json:"roster"`
}

// ClassStats groups registrations that have a class session by (course,
// session, status) and assembles the per-bucket roster.  Registrations
// without a session are excluded; they have no bucket to belong to.
func (r *RegistrationRepo) ClassStats(ctx context.Context) ([]ClassBucket, error) {
	const q = `SELECT r.course_id, c.code, c.name,
	                  r.class_session_id, cs.days, cs.time_slot,
	                  r.status,
	                  r.user_id, u.code, u.full_name, u.email, r.enrolled_at, r.is_paid
	           FROM registrations r
	           JOIN courses c ON c.id = r.course_id
	           JOIN class_sessions cs ON cs.id = r.class_session_id
	           JOIN users u ON u.id = r.user_id
	           WHERE r.class_session_id IS NOT NULL
	           ORDER BY r.course_id, r.class_session_id, r.status, r.enrolled_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := make([]ClassBucket, 0)
	type key struct {
		courseID  uint64
		sessionID uint64
		status    string
	}
	index := make(map[key]int)
	for rows.Next() {
		var b ClassBucket
		var e RosterEntry
		if err := rows.Scan(
			&b.CourseID, &b.CourseCode, &b.CourseName,
			&b.SessionID, &b.SessionDays, &b.SessionTime,
			&b.Status,
			&e.UserID, &e.UserCode, &e.UserName, &e.Email, &e.EnrolledAt, &e.IsPaid,
		); err != nil {
			return nil, err
		}
		k := key{b.CourseID, b.SessionID, b.Status}
		idx, ok := index[k]
		if !ok {
			b.Roster = []RosterEntry{}
			index[k] = len(buckets)
			buckets = append(buckets, b)
			idx = index[k]
		}
		buckets[idx].Roster = append(buckets[idx].Roster, e)
		buckets[idx].Count++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buckets, nil
}

// BulkUpdateStatus transitions every registration in one (course,
// session, status) bucket to the new status with a single statement.
// Rows arriving after the statement takes its snapshot are not included;
// re-running the decision simply matches zero rows.
func (r *RegistrationRepo) BulkUpdateStatus(ctx context.Context, courseID, sessionID uint64, from, to string) (int64, error) {
	const q = `UPDATE registrations SET status = ?
	           WHERE course_id = ? AND class_session_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, courseID, sessionID, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
