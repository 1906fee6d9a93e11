package mqtt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/ibus.go/pkg/msgs"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Discover collects receivers announcing their meta on a connected Queue.
func Discover(ctx context.Context, q *Queue, timeout time.Duration) ([]Info, error) {
	found := make(map[string]Info)
	resCh := make(chan Info, 16)
	sub := q.Sub("+/+/meta", Handler(func(topic string, payload []byte) {
		info, ok := parseMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	}))
	defer sub.Close()

	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	deadline := time.After(timeout)
	for {
		select {
		case info := <-resCh:
			found[info.Ref.Name()] = info
		case <-deadline:
			res := make([]Info, 0, len(found))
			for _, info := range found {
				res = append(res, info)
			}
			sort.Slice(res, func(i, j int) bool { return res[i].Ref.Name() < res[j].Ref.Name() })
			return res, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// parseMeta parses a meta announcement. An empty payload means the
// receiver is gone.
func parseMeta(topic string, payload []byte) (info Info, ok bool) {
	if len(payload) == 0 || len(topic) <= len("/meta") {
		return
	}
	if info.Ref, ok = ParseRef(topic[:len(topic)-len("/meta")]); !ok {
		return
	}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: invalid meta: %v", topic, err)
		return info, false
	}
	return info, true
}

// Watch subscribes events and status of a receiver. Undecodable payloads
// are skipped. Close the returned subscriptions to stop.
func Watch(q *Queue, ref Ref, fn func(msgs.Message)) []*Subscription {
	handler := Handler(func(topic string, payload []byte) {
		msg, _, err := msgs.Decode(payload)
		if err != nil {
			glog.V(2).Infof("%s: decode error: %v", topic, err)
			return
		}
		fn(msg)
	})
	return []*Subscription{
		q.Sub(ref.StatusTopic(), handler),
		q.Sub(ref.MsgTopic(), handler),
	}
}
