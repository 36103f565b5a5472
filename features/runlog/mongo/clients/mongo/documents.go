package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type eventDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	SessionID string             `bson:"session_id"`
	TurnID    string             `bson:"turn_id"`
	Type      string             `bson:"type"`
	Payload   []byte             `bson:"payload"`
	Timestamp time.Time          `bson:"timestamp"`
}
