package validators

import "go.mongodb.org/mongo-driver/bson"

var CarValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"make",
			"body_type",
			"colour",
			"no_seats",
			"cost_per_hour",
			"is_locked",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"make": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"body_type": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"colour": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 128,
			},

			"no_seats": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  12,
			},

			"cost_per_hour": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"location": bson.M{
				"bsonType":  "string",
				"maxLength": 256,
			},

			"is_locked": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
