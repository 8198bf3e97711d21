package validators

import "go.mongodb.org/mongo-driver/bson"

const (
	datePattern  = `^\d{4}-\d{2}-\d{2}$`
	clockPattern = `^([01]\d|2[0-3]):[0-5]\d$`
)

var HoldValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"doctor_id",
			"date",
			"start_time",
			"end_time",
			"start_min",
			"end_min",
			"duration_min",
			"status",
			"owner_token",
			"expires_at",
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

			"date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},

			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  clockPattern,
			},

			// 24:00 is a legal end for a slot that runs to midnight.
			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  `^(([01]\d|2[0-3]):[0-5]\d|24:00)$`,
			},

			"start_min": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  1439,
			},

			"end_min": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  1440,
			},

			"duration_min": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  1440,
			},

			"status": bson.M{
				"enum": []string{"HELD", "CONFIRMED"},
			},

			"owner_token": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 256,
			},

			"expires_at": bson.M{
				"bsonType": "date",
			},

			"appointment_id": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"confirmed_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var HoldGuardValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"doctor_id", "date", "version"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"doctor_id": bson.M{
				"bsonType": "string",
			},
			"date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},
			"version": bson.M{
				"bsonType": []string{"int", "long"},
			},
			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
