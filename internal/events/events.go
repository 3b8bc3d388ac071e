package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeParticipantJoined marks a join-event message.
const TypeParticipantJoined = "participant.joined"

// JoinEvent is the payload recorded when a student joins a group.
type JoinEvent struct {
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	Position int    `json:"position"`
}

// Message is one unit of work for the audit worker.
type Message struct {
	Type string
	Body []byte
}

// NewJoinMessage encodes a join event.
func NewJoinMessage(ev JoinEvent) (Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: TypeParticipantJoined, Body: body}, nil
}

// DecodeJoin parses a join-event message body.
func DecodeJoin(msg Message) (JoinEvent, error) {
	var ev JoinEvent
	err := json.Unmarshal(msg.Body, &ev)
	return ev, err
}

// Queue is the abstraction over the delivery backends.
type Queue interface {
	Publish(ctx context.Context, msg Message) error
	Consume(ctx context.Context) (<-chan Message, error)
}

// InMemory is a channel-backed queue for dev/testing.
type InMemory struct {
	ch chan Message
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Message, size)}
}

// Publish enqueues a message.
func (q *InMemory) Publish(ctx context.Context, msg Message) error {
	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns a channel for workers.
func (q *InMemory) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-q.ch:
				out <- msg
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue delivers messages through a Redis list (LPUSH/BRPOP).
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a queue on the given list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "defqueue:events"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a message.
func (q *RedisQueue) Publish(ctx context.Context, msg Message) error {
	return q.client.LPush(ctx, q.key, serialize(msg)).Err()
}

// Consume streams messages using BRPOP.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Message, error) {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) == 2 {
				out <- deserialize(res[1])
			}
		}
	}()
	return out, nil
}

// Messages are framed as Type|Body on the wire; the body itself is JSON.
func serialize(msg Message) string {
	return msg.Type + "|" + string(msg.Body)
}

func deserialize(s string) Message {
	for i, r := range s {
		if r == '|' {
			return Message{Type: s[:i], Body: []byte(s[i+1:])}
		}
	}
	return Message{Body: []byte(s)}
}
