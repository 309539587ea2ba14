package gormstore

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"

	"github.com/redis/go-redis/v9"
)

const changeChannelPrefix = "docs:changed:"

// Notifier publishes and consumes collection change notifications over
// Redis so every process sharing the database refreshes its local
// subscriptions.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// ChangeChannel returns the pub/sub channel for a collection.
func ChangeChannel(collection string) string {
	return changeChannelPrefix + collection
}

// PublishChange announces that a collection changed.
func (n *Notifier) PublishChange(ctx context.Context, collection string) error {
	if n.rdb == nil {
		return fmt.Errorf("notifier: no redis client")
	}
	return n.rdb.Publish(ctx, ChangeChannel(collection), "1").Err()
}

// StartChangeSubscriber subscribes to the change pattern and calls
// onChange with the collection name for each notification. It returns
// once the subscription is established; delivery runs until ctx ends.
func (n *Notifier) StartChangeSubscriber(ctx context.Context, onChange func(collection string)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, changeChannelPrefix+"*")
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in ChangeSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onChange(strings.TrimPrefix(msg.Channel, changeChannelPrefix))
				}()
			}
		}
	}()

	return nil
}
