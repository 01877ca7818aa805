package model

import "time"

// ClassSession is a scheduled time slot of a course (days of week plus a
// daily time range).  A registration may exist without a session while the
// student is still choosing a slot.
//
// Fields:
//  ID        – primary key identifier.
//  CourseID  – course this slot belongs to.
//  Days      – weekday pattern, e.g. "Mon-Wed-Fri".
//  TimeSlot  – daily time range, e.g. "18:00-19:30".
//  CreatedAt – creation timestamp.
type ClassSession struct {
	ID        uint64    // class_sessions.id
	CourseID  uint64    // class_sessions.course_id
	Days      string    // class_sessions.days
	TimeSlot  string    // class_sessions.time_slot
	CreatedAt time.Time // class_sessions.created_at
}
