package events

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectPrefix = "teamup.changes."
	originHeader  = "Teamup-Origin"
)

// NATS publishes change signals on teamup.changes.<collection> so that
// every process serving websocket clients sees writes made by the others.
// Local subscribers are notified directly; the process ignores its own
// messages when they come back from the server.
type NATS struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	local  *Local
	origin string
	log    *zap.Logger
}

func NewNATS(url string, log *zap.Logger, opts ...nats.Option) (*NATS, error) {
	opts = append([]nats.Option{nats.Name("teamup")}, opts...)
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}

	b := &NATS{
		conn:   nc,
		local:  NewLocal(),
		origin: uuid.NewString(),
		log:    log,
	}

	sub, err := nc.Subscribe(SubjectPrefix+">", b.receive)
	if err != nil {
		nc.Close()
		return nil, err
	}
	b.sub = sub
	return b, nil
}

func (b *NATS) receive(msg *nats.Msg) {
	if msg.Header.Get(originHeader) == b.origin {
		return
	}
	c := Collection(strings.TrimPrefix(msg.Subject, SubjectPrefix))
	_ = b.local.Publish(context.Background(), c)
}

func (b *NATS) Publish(ctx context.Context, collections ...Collection) error {
	_ = b.local.Publish(ctx, collections...)

	var result *multierror.Error
	for _, c := range collections {
		msg := nats.NewMsg(SubjectPrefix + string(c))
		msg.Header.Set(originHeader, b.origin)
		if err := b.conn.PublishMsg(msg); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		b.log.Warn("publish change events", zap.Error(err))
		return err
	}
	return nil
}

func (b *NATS) Subscribe(collections ...Collection) (<-chan Collection, func()) {
	return b.local.Subscribe(collections...)
}

func (b *NATS) Close() error {
	var result *multierror.Error
	if err := b.sub.Unsubscribe(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		result = multierror.Append(result, err)
	}
	if err := b.local.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}
