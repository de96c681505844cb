package mqtt

import "go.uber.org/zap"

// DefaultBufferSize is how many messages are kept while disconnected.
const DefaultBufferSize = 256

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
	// latestOnly marks state messages: a newer one on the same topic
	// replaces a queued one instead of taking another slot.
	latestOnly bool
}

// outbox is a bounded FIFO of messages published while disconnected. When
// full, the oldest message is dropped.
// Not safe for concurrent use; the caller must synchronize.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	warned   bool // full was logged since the last drain
	dropped  int
	logger   *zap.SugaredLogger
}

func newOutbox(capacity int, logger *zap.SugaredLogger) *outbox {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &outbox{
		msgs:     make([]bufferedMsg, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	if msg.latestOnly {
		for i := range o.msgs {
			if o.msgs[i].latestOnly && o.msgs[i].topic == msg.topic {
				o.msgs[i] = msg
				return
			}
		}
	}
	if o.capacity == 0 {
		o.dropped++
		return
	}
	if len(o.msgs) == o.capacity {
		if !o.warned {
			o.logger.Warnw("mqtt buffer full, dropping oldest", "capacity", o.capacity)
			o.warned = true
		}
		o.dropped++
		o.msgs = append(o.msgs[:0], o.msgs[1:]...)
	}
	o.msgs = append(o.msgs, msg)
}

// drainAll returns the queued messages oldest first and empties the outbox.
func (o *outbox) drainAll() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := o.msgs
	o.msgs = make([]bufferedMsg, 0, o.capacity)
	o.warned = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
