package changefeed

import (
	"context"
	"encoding/json"

	"notes-stream-be/internal/entity"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const DefaultTopic = "note-change-events"

// Feed is the broadcast channel carrying change events from the store to an
// arbitrary number of watch subscriptions. Fan-out and subscriber lifecycle
// ride on watermill's in-process gochannel pub/sub; on top of it each
// subscription gets its own unbounded delivery queue, acked at intake, so a
// slow consumer never delays Publish or any other subscriber.
//
// There is no backlog: a subscription only sees events published after
// Subscribe returned.
type Feed struct {
	pubsub *gochannel.GoChannel
	topic  string
	logger watermill.LoggerAdapter
}

func New(topic string, logger watermill.LoggerAdapter) *Feed {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Feed{
		// Blocking until the per-subscription intake acks keeps emission
		// order strict; the intake acks on receipt, so the wait never
		// depends on how fast end consumers drain.
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			BlockPublishUntilSubscriberAck: true,
		}, logger),
		topic:  topic,
		logger: logger,
	}
}

// Publish delivers event to every currently-active subscription. It returns
// once each subscription's intake has accepted the event, independent of how
// fast the end consumers drain their streams.
func (f *Feed) Publish(event entity.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	return f.pubsub.Publish(f.topic, msg)
}

// Subscribe opens an independent event stream. The returned channel yields
// events in emission order and closes when ctx is cancelled or the feed is
// closed; it is never closed mid-event. A payload that cannot be decoded
// terminates this one subscription.
func (f *Feed) Subscribe(ctx context.Context) (<-chan entity.ChangeEvent, error) {
	subCtx, unsubscribe := context.WithCancel(ctx)
	messages, err := f.pubsub.Subscribe(subCtx, f.topic)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	queue := newEventQueue()
	out := make(chan entity.ChangeEvent)

	// Intake: ack every message on receipt so the publisher never waits on
	// this subscription's consumer. Unsubscribing on exit deregisters the
	// underlying pub/sub subscriber, so an abandoned intake can never stall
	// later publishes.
	go func() {
		defer queue.close()
		defer unsubscribe()
		for msg := range messages {
			msg.Ack()
			var event entity.ChangeEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				f.logger.Error("dropping subscription on undecodable change event", err, watermill.LogFields{
					"message_uuid": msg.UUID,
				})
				return
			}
			queue.push(event)
		}
	}()

	// Drain: deliver queued events at the consumer's own pace.
	go func() {
		defer close(out)
		for {
			event, ok := queue.pop()
			if !ok {
				return
			}
			select {
			case out <- event:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Close tears the feed down: every active subscription's channel closes with
// no further events, and subsequent publishes fail. Safe to call twice.
func (f *Feed) Close() error {
	return f.pubsub.Close()
}
