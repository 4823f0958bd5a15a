package model

import "time"

type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	CarID         int       `json:"car_id" bson:"car_id" validate:"required,min=1"`
	Username      string    `json:"username" bson:"username" validate:"required,min=2,max=20"`
	StartTime     time.Time `json:"start_time" bson:"start_time" validate:"required"`
	DurationHours int       `json:"duration" bson:"duration" validate:"required,min=1,max=168"`
	CalendarRef   string    `json:"calendar_ref,omitempty" bson:"calendar_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// EndTime is the exclusive end of the booking window [StartTime, EndTime).
func (b *Booking) EndTime() time.Time {
	return b.StartTime.Add(time.Duration(b.DurationHours) * time.Hour)
}

// Covers reports whether the booking window contains the given instant.
func (b *Booking) Covers(at time.Time) bool {
	return !at.Before(b.StartTime) && at.Before(b.EndTime())
}
