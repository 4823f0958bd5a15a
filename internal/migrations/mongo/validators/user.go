package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"password",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 20,
			},

			"password": bson.M{
				"bsonType":  "string",
				"minLength": 8,
				"maxLength": 128,
			},

			"role": bson.M{
				"bsonType": "string",
				"enum": []string{
					"user",
					"engineer",
					"admin",
				},
			},

			"mac_address": bson.M{
				"bsonType": "string",
				"pattern":  "^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$",
			},
		},
	},
}
