package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agentcore/runtime/runtime/agent/hooks"
	"github.com/agentcore/runtime/runtime/agent/runlog"
)

func (c *client) List(ctx context.Context, turnID string, cursor string, limit int) (page runlog.Page, err error) {
	if turnID == "" {
		return runlog.Page{}, errors.New("turn id is required")
	}
	if limit <= 0 {
		return runlog.Page{}, errors.New("limit must be > 0")
	}

	filter, err := listFilter(turnID, cursor)
	if err != nil {
		return runlog.Page{}, err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	cur, err := c.coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit+1)),
	)
	if err != nil {
		return runlog.Page{}, err
	}
	defer func() {
		if cerr := cur.Close(ctx); err == nil && cerr != nil {
			err = cerr
		}
	}()

	events, err := decodeEvents(ctx, cur)
	if err != nil {
		return runlog.Page{}, err
	}
	if err := cur.Err(); err != nil {
		return runlog.Page{}, err
	}

	var next string
	if len(events) > limit {
		next = events[limit-1].ID
		events = events[:limit]
	}
	return runlog.Page{
		Events:     events,
		NextCursor: next,
	}, nil
}

func listFilter(turnID, cursor string) (bson.M, error) {
	filter := bson.M{"turn_id": turnID}
	if cursor == "" {
		return filter, nil
	}
	oid, err := primitive.ObjectIDFromHex(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	filter["_id"] = bson.M{"$gt": oid}
	return filter, nil
}

func decodeEvents(ctx context.Context, cur cursor) ([]*runlog.Event, error) {
	var events []*runlog.Event
	for cur.Next(ctx) {
		var doc eventDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		events = append(events, &runlog.Event{
			ID:        doc.ID.Hex(),
			SessionID: doc.SessionID,
			TurnID:    doc.TurnID,
			Type:      hooks.EventType(doc.Type),
			Payload:   append([]byte(nil), doc.Payload...),
			Timestamp: doc.Timestamp,
		})
	}
	return events, nil
}
