package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"car_id",
			"username",
			"start_time",
			"duration",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"car_id": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"username": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 20,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"duration": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  168,
			},

			"calendar_ref": bson.M{
				"bsonType":  "string",
				"maxLength": 256,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
