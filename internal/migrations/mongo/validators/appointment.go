package validators

import "go.mongodb.org/mongo-driver/bson"

var AppointmentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"doctor_id",
			"patient_id",
			"date",
			"start_time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"patient_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  clockPattern,
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"status": bson.M{
				"enum": []string{"scheduled", "confirmed", "completed", "cancelled", "no_show"},
			},

			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"metadata": bson.M{
				"bsonType":      "object",
				"maxProperties": 20,
				"additionalProperties": bson.M{
					"bsonType": "string",
				},
			},

			"hold_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
