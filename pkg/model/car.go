package model

type Car struct {
	ID          int    `json:"id" bson:"_id" validate:"required,min=1"`
	Make        string `json:"make" bson:"make" validate:"required,min=1,max=128"`
	BodyType    string `json:"body_type" bson:"body_type" validate:"required,min=1,max=128"`
	Colour      string `json:"colour" bson:"colour" validate:"required,min=1,max=128"`
	Seats       int    `json:"no_seats" bson:"no_seats" validate:"required,min=1,max=12"`
	CostPerHour int    `json:"cost_per_hour" bson:"cost_per_hour" validate:"required,min=0"`
	Location    string `json:"location,omitempty" bson:"location,omitempty"`
	Locked      bool   `json:"is_locked" bson:"is_locked"`
}
