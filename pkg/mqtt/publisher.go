package mqtt

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/ibus.go/pkg/msgs"
)

// DefaultPublishTimeout limits how long SendEvent waits for the broker.
const DefaultPublishTimeout = time.Second

// Connect retry backoff, doubled after each failure.
const (
	DefaultConnectRetryMin = 500 * time.Millisecond
	DefaultConnectRetryMax = 30 * time.Second
)

// Publisher publishes receiver events over MQTT.
//
// Topics (under the broker URL prefix):
//   TYPE/ID/meta    Meta in JSON, retained, cleared on exit
//   TYPE/ID/msg     Typed RCChannels
//   TYPE/ID/status  Typed RCStatus, retained
type Publisher struct {
	Queue   *Queue
	Info    Info
	Timeout time.Duration

	ConnectRetryMin time.Duration
	ConnectRetryMax time.Duration

	metaJSON []byte
	seq      uint32
	attempts uint32
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info Info) (*Publisher, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.MetaTopic(), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("ibus:" + info.Ref.Name())
	}
	p := &Publisher{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		Timeout:  DefaultPublishTimeout,

		ConnectRetryMin: DefaultConnectRetryMin,
		ConnectRetryMax: DefaultConnectRetryMax,

		metaJSON: meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.announce() }
	return p, nil
}

// Name implements framework.Named.
func (p *Publisher) Name() string {
	return "mqtt:" + p.Info.Ref.Name()
}

// SendEvent publishes an event message.
func (p *Publisher) SendEvent(ctx context.Context, msg msgs.Message) error {
	data, err := msgs.Encode(msg, atomic.AddUint32(&p.seq, 1))
	if err != nil {
		return err
	}
	if _, ok := msg.(*msgs.RCStatus); ok {
		return p.wait(ctx, p.Queue.PubWith(p.Info.Ref.StatusTopic(), data, 1, true))
	}
	return p.wait(ctx, p.Queue.Pub(p.Info.Ref.MsgTopic(), data))
}

// Connected indicates the broker is connected.
func (p *Publisher) Connected() bool {
	return p.Queue.Client.IsConnected()
}

// Run implements Runnable. The first connect is retried until it
// succeeds, the client reconnects automatically afterwards.
func (p *Publisher) Run(ctx context.Context) error {
	glog.Infof("publishing %s", p.Info.Ref.Name())
	if err := p.connect(ctx); err != nil {
		p.Queue.Close()
		return err
	}
	<-ctx.Done()
	token := p.Queue.PubWith(p.Info.Ref.MetaTopic(), nil, 1, true)
	token.WaitTimeout(p.timeout())
	p.Queue.Close()
	return ctx.Err()
}

func (p *Publisher) connect(ctx context.Context) error {
	backoff := p.ConnectRetryMin
	if backoff <= 0 {
		backoff = DefaultConnectRetryMin
	}
	for {
		atomic.AddUint32(&p.attempts, 1)
		token := p.Queue.Connect()
		for !token.WaitTimeout(100 * time.Millisecond) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		err := token.Error()
		if err == nil {
			return nil
		}
		glog.Warningf("mqtt connect error: %v, retry in %s", err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; p.ConnectRetryMax > 0 && backoff > p.ConnectRetryMax {
			backoff = p.ConnectRetryMax
		}
	}
}

func (p *Publisher) announce() {
	p.Queue.PubWith(p.Info.Ref.MetaTopic(), p.metaJSON, 1, true)
}

func (p *Publisher) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return DefaultPublishTimeout
}

func (p *Publisher) wait(ctx context.Context, token interface {
	WaitTimeout(time.Duration) bool
	Error() error
}) error {
	if !token.WaitTimeout(p.timeout()) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return context.DeadlineExceeded
	}
	return token.Error()
}
