package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

const StatusActive = "active"

type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"` // uid из access JWT
	Label       string             `bson:"label" json:"label"`     // пользовательский ключ для update/delete
	Money       int64              `bson:"money" json:"money"`
	Description string             `bson:"description" json:"description"`
	Status      string             `bson:"status" json:"status"` // "active" | произвольный
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
