package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
)

// MockDeclarer is a testify mock of Declarer.
type MockDeclarer struct {
	mock.Mock
}

func (m *MockDeclarer) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	ret := m.Called(name, kind, durable, autoDelete, internal, noWait, args)

	return ret.Error(0)
}

func (m *MockDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	ret := m.Called(name, durable, autoDelete, exclusive, noWait, args)

	return ret.Get(0).(amqp.Queue), ret.Error(1)
}

func (m *MockDeclarer) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	ret := m.Called(name, key, exchange, noWait, args)

	return ret.Error(0)
}

// fakeChannel is an in-memory amqpChannel streaming deliveries pushed by the test.
type fakeChannel struct {
	mu        sync.Mutex
	calls     []string
	published []amqp.Publishing
	exchanges []string
	routing   []string

	qosErr      error
	exchangeErr error
	queueErr    error
	bindErr     error
	consumeErr  error
	publishErr  error

	deliveries chan amqp.Delivery
	notify     chan *amqp.Error
	closeOnce  sync.Once
	closed     atomic.Bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{deliveries: make(chan amqp.Delivery)}
}

func (c *fakeChannel) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, call)
}

func (c *fakeChannel) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.calls...)
}

func (c *fakeChannel) Published() []amqp.Publishing {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]amqp.Publishing(nil), c.published...)
}

func (c *fakeChannel) endStream() {
	c.closeOnce.Do(func() {
		close(c.deliveries)
	})
}

// brokerClose simulates the broker closing the channel with err.
func (c *fakeChannel) brokerClose(err *amqp.Error) {
	c.mu.Lock()
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify <- err
	}

	c.endStream()
}

func (c *fakeChannel) deliver(d amqp.Delivery) {
	c.deliveries <- d
}

func (c *fakeChannel) Close() error {
	c.record("close")
	c.closed.Store(true)
	c.endStream()

	return nil
}

func (c *fakeChannel) Cancel(consumer string, _ bool) error {
	c.record("cancel:" + consumer)
	c.endStream()

	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, _, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	c.record("consume:" + queue + ":" + consumer)
	if c.consumeErr != nil {
		return nil, c.consumeErr
	}

	return c.deliveries, nil
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	c.record("exchange:" + name + ":" + kind)

	return c.exchangeErr
}

func (c *fakeChannel) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notify = receiver

	return receiver
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.record("publish:" + exchange + ":" + key)
	if c.publishErr != nil {
		return c.publishErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.published = append(c.published, msg)
	c.exchanges = append(c.exchanges, exchange)
	c.routing = append(c.routing, key)

	return nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	c.record("bind:" + name + ":" + key + ":" + exchange)

	return c.bindErr
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.record("queue:" + name)

	return amqp.Queue{Name: name}, c.queueErr
}

func (c *fakeChannel) Qos(_, _ int, _ bool) error {
	c.record("qos")

	return c.qosErr
}

type fakeConnection struct {
	channel    *fakeChannel
	channelErr error

	closed     atomic.Bool
	closeCalls atomic.Int32
}

func (c *fakeConnection) Channel() (amqpChannel, error) {
	if c.channelErr != nil {
		return nil, c.channelErr
	}

	return c.channel, nil
}

func (c *fakeConnection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return receiver
}

func (c *fakeConnection) IsClosed() bool {
	return c.closed.Load()
}

func (c *fakeConnection) Close() error {
	c.closeCalls.Add(1)
	c.closed.Store(true)

	return nil
}

type fakeDialer struct {
	conn  *fakeConnection
	err   error
	dials atomic.Int32
}

func (d *fakeDialer) dial(Config) (amqpConnection, error) {
	d.dials.Add(1)
	if d.err != nil {
		return nil, d.err
	}

	return d.conn, nil
}

// fakeAcknowledger records acknowledgements made through amqp.Delivery.
type fakeAcknowledger struct {
	mu    sync.Mutex
	acked []uint64
	other int
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.acked = append(a.acked, tag)

	return nil
}

func (a *fakeAcknowledger) Nack(uint64, bool, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.other++

	return nil
}

func (a *fakeAcknowledger) Reject(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.other++

	return nil
}

func (a *fakeAcknowledger) Acked() []uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]uint64(nil), a.acked...)
}

// channelBoundAcknowledger refuses acknowledgements once the channel or its
// connection is closed, like amqp091 does.
type channelBoundAcknowledger struct {
	fakeAcknowledger

	channel *fakeChannel
	conn    *fakeConnection
}

func (a *channelBoundAcknowledger) Ack(tag uint64, multiple bool) error {
	if a.channel.closed.Load() || a.conn.IsClosed() {
		return amqp.ErrClosed
	}

	return a.fakeAcknowledger.Ack(tag, multiple)
}

// fakeSession is a scripted Session used by supervisor tests.
type fakeSession struct {
	run             func(ctx context.Context, stop <-chan struct{}) error
	wasConsuming    bool
	shouldReconnect bool

	stopOnce   sync.Once
	stopCh     chan struct{}
	stopCalls  atomic.Int32
	closeCalls atomic.Int32
}

func newFakeSession(wasConsuming, shouldReconnect bool) *fakeSession {
	return &fakeSession{
		wasConsuming:    wasConsuming,
		shouldReconnect: shouldReconnect,
		stopCh:          make(chan struct{}),
	}
}

func (s *fakeSession) Run(ctx context.Context) error {
	if s.run == nil {
		return nil
	}

	return s.run(ctx, s.stopCh)
}

func (s *fakeSession) Stop() {
	s.stopCalls.Add(1)
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *fakeSession) CloseConnection() error {
	s.closeCalls.Add(1)

	return nil
}

func (s *fakeSession) WasConsuming() bool {
	return s.wasConsuming
}

func (s *fakeSession) ShouldReconnect() bool {
	select {
	case <-s.stopCh:
		return false
	default:
		return s.shouldReconnect
	}
}

func immediately(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()

	return ch
}

func never(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}
