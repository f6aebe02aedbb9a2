package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Zendevve/vscord/pkg/logger"
)

// Topic and key naming. The broker keyspace is the only cross-replica
// surface, so the shapes here are protocol, not implementation detail.
func PresenceTopic(username string) string { return "presence:" + username }
func ChannelTopic(channelID string) string { return "channel:" + channelID }

func resumeKey(token string) string    { return "session:" + token }
func statusKey(username string) string { return "status:" + username }

// ResumeRecord lets a client re-attach within the TTL window without
// observable offline/online flapping.
type ResumeRecord struct {
	Username  string `json:"username"`
	GithubID  int64  `json:"githubId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// StatusFields is the cached last-published status of a user, read by
// late subscribers and channel roster construction.
type StatusFields struct {
	Status   string
	Activity string
	Project  string
	Language string
}

type TopicMessage struct {
	Topic   string
	Payload []byte
}

// Broker is the Ephemeral Broker contract: short-lived KV plus topic
// pub/sub. The session manager only ever sees this interface.
type Broker interface {
	PutResume(ctx context.Context, token string, rec ResumeRecord) error
	// TakeResume consumes the record: a token resumes at most once.
	TakeResume(ctx context.Context, token string) (*ResumeRecord, error)

	PutStatusCache(ctx context.Context, username string, fields StatusFields) error
	GetStatusCache(ctx context.Context, username string) (*StatusFields, error)

	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe/Unsubscribe are reference-counted; the physical broker
	// subscription changes only on 0↔1 transitions.
	Subscribe(ctx context.Context, topic string) error
	Unsubscribe(ctx context.Context, topic string) error

	// Messages delivers traffic for every subscribed topic.
	Messages() <-chan TopicMessage

	Close() error
}

// RedisBroker holds one publisher handle (the client) and one
// subscriber handle (the PubSub) per process.
type RedisBroker struct {
	client *redis.Client
	pubsub *redis.PubSub

	refs *refCounter

	resumeTTL time.Duration
	statusTTL time.Duration

	messages chan TopicMessage
	done     chan struct{}
	logger   logger.Logger
}

type Options struct {
	ResumeTTL time.Duration
	StatusTTL time.Duration
}

func NewRedisBroker(ctx context.Context, client *redis.Client, opts Options, log logger.Logger) (*RedisBroker, error) {
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "broker.NewRedisBroker.Ping: ")
	}

	b := &RedisBroker{
		client:    client,
		pubsub:    client.Subscribe(ctx),
		refs:      newRefCounter(),
		resumeTTL: opts.ResumeTTL,
		statusTTL: opts.StatusTTL,
		messages:  make(chan TopicMessage, 256),
		done:      make(chan struct{}),
		logger:    log,
	}

	go b.receive()
	return b, nil
}

func (b *RedisBroker) receive() {
	ch := b.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				close(b.messages)
				return
			}
			select {
			case b.messages <- TopicMessage{Topic: msg.Channel, Payload: []byte(msg.Payload)}:
			case <-b.done:
				return
			}
		case <-b.done:
			return
		}
	}
}

func (b *RedisBroker) PutResume(ctx context.Context, token string, rec ResumeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "broker.PutResume.Marshal: ")
	}
	if err := b.client.Set(ctx, resumeKey(token), data, b.resumeTTL).Err(); err != nil {
		return errors.Wrap(err, "broker.PutResume.Set: ")
	}
	return nil
}

func (b *RedisBroker) TakeResume(ctx context.Context, token string) (*ResumeRecord, error) {
	data, err := b.client.GetDel(ctx, resumeKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "broker.TakeResume.GetDel: ")
	}

	rec := new(ResumeRecord)
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, errors.Wrap(err, "broker.TakeResume.Unmarshal: ")
	}
	return rec, nil
}

func (b *RedisBroker) PutStatusCache(ctx context.Context, username string, fields StatusFields) error {
	key := statusKey(username)

	pipe := b.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"s":   fields.Status,
		"act": fields.Activity,
		"p":   fields.Project,
		"l":   fields.Language,
	})
	pipe.Expire(ctx, key, b.statusTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "broker.PutStatusCache.Exec: ")
	}
	return nil
}

func (b *RedisBroker) GetStatusCache(ctx context.Context, username string) (*StatusFields, error) {
	vals, err := b.client.HGetAll(ctx, statusKey(username)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "broker.GetStatusCache.HGetAll: ")
	}
	if len(vals) == 0 {
		return nil, nil
	}
	return &StatusFields{
		Status:   vals["s"],
		Activity: vals["act"],
		Project:  vals["p"],
		Language: vals["l"],
	}, nil
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return errors.Wrap(err, "broker.Publish: ")
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, topic string) error {
	if !b.refs.inc(topic) {
		return nil
	}
	if err := b.pubsub.Subscribe(ctx, topic); err != nil {
		b.refs.dec(topic)
		return errors.Wrap(err, "broker.Subscribe: ")
	}
	return nil
}

func (b *RedisBroker) Unsubscribe(ctx context.Context, topic string) error {
	if !b.refs.dec(topic) {
		return nil
	}
	if err := b.pubsub.Unsubscribe(ctx, topic); err != nil {
		return errors.Wrap(err, "broker.Unsubscribe: ")
	}
	return nil
}

func (b *RedisBroker) Messages() <-chan TopicMessage {
	return b.messages
}

func (b *RedisBroker) Close() error {
	close(b.done)
	if err := b.pubsub.Close(); err != nil {
		return err
	}
	return b.client.Close()
}
