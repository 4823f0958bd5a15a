package model

import "time"

// FaceEncoding is one enrolled feature vector for a user. A user may have
// several encodings; matching votes across all of them.
type FaceEncoding struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	Username  string    `json:"username" bson:"username" validate:"required,min=2,max=20"`
	Vector    []float64 `json:"vector" bson:"vector" validate:"required,min=1"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
