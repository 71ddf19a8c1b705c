// Package queue carries detached blob operations over a Redis stream so they
// never block the request/response cycle, and so a crashed worker re-runs
// them instead of losing them.
package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Task types understood by the worker.
const (
	TaskMirror    = "mirror"
	TaskExport    = "export"
	TaskPurge     = "purge"
	TaskReconcile = "reconcile"
)

type Task struct {
	Type     string
	Token    string
	UserID   string
	Filename string
	Key      string
}

type Producer struct {
	client *redis.Client
	stream string
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream}
}

func (p *Producer) Enqueue(ctx context.Context, task Task) error {
	values := map[string]any{
		"type":     task.Type,
		"token":    task.Token,
		"userId":   task.UserID,
		"filename": task.Filename,
		"key":      task.Key,
	}
	if _, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}).Result(); err != nil {
		return fmt.Errorf("enqueue %s: %w", task.Type, err)
	}
	return nil
}

func TaskFromMessage(msg redis.XMessage) Task {
	str := func(key string) string {
		if v, ok := msg.Values[key].(string); ok {
			return v
		}
		return ""
	}
	return Task{
		Type:     str("type"),
		Token:    str("token"),
		UserID:   str("userId"),
		Filename: str("filename"),
		Key:      str("key"),
	}
}
