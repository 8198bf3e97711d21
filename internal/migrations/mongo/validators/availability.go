package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityBlockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"doctor_id", "start_date", "end_date", "kind", "active"},
		"additionalProperties": true,

		"properties": bson.M{
			"doctor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},
			"start_date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},
			"end_date": bson.M{
				"bsonType": "string",
				"pattern":  datePattern,
			},
			"start_time": bson.M{
				"bsonType": "string",
				"pattern":  clockPattern,
			},
			"end_time": bson.M{
				"bsonType": "string",
				"pattern":  `^(([01]\d|2[0-3]):[0-5]\d|24:00)$`,
			},
			"kind": bson.M{
				"enum": []string{"BLOCK", "VACATION", "CONFERENCE", "PERSONAL", "EMERGENCY_ONLY"},
			},
			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},
			"active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}

var DoctorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "active"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 200,
			},
			"active": bson.M{
				"bsonType": "bool",
			},
		},
	},
}
