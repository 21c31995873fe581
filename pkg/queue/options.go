package queue

import (
	"time"
)

const (
	publishingTimeout = 3 * time.Second
	defaultPrefetch   = 1
)

// publisherOptions configure a NewPublisher call. publisherOptions are set by the PublisherOption
// values passed to NewPublisher.
type publisherOptions struct {
	timeout time.Duration
	dryRun  bool
	logger  Logger
	dial    dialFunc
}

type PublisherOption func(options *publisherOptions)

// WithPublishingTimeout returns a PublisherOption which sets the default timeout used when
// publishing a message.
func WithPublishingTimeout(d time.Duration) PublisherOption {
	return func(o *publisherOptions) {
		o.timeout = d
	}
}

// WithDryRun returns a PublisherOption which makes the publisher log messages instead of sending them.
func WithDryRun(dryRun bool) PublisherOption {
	return func(o *publisherOptions) {
		o.dryRun = dryRun
	}
}

// WithPublisherLogger returns a PublisherOption which sets the logger used by the publisher.
func WithPublisherLogger(logger Logger) PublisherOption {
	return func(o *publisherOptions) {
		o.logger = logger
	}
}

func withPublisherDialer(dial dialFunc) PublisherOption {
	return func(o *publisherOptions) {
		o.dial = dial
	}
}

func defaultPublisherOptions() publisherOptions {
	return publisherOptions{
		timeout: publishingTimeout,
		logger:  nopLogger{},
		dial:    dial,
	}
}

// publishOptions are set per Publish call.
type publishOptions struct {
	priority *uint8
	delay    *time.Duration
	timeout  time.Duration
}

type PublishOption func(options *publishOptions)

// WithPriority sets the AMQP priority of a single message.
func WithPriority(priority uint8) PublishOption {
	return func(o *publishOptions) {
		o.priority = &priority
	}
}

// WithDelay attaches the x-delay header, it only has an effect on delayed exchanges.
func WithDelay(delay time.Duration) PublishOption {
	return func(o *publishOptions) {
		o.delay = &delay
	}
}

// WithTimeout overrides the publisher timeout for a single message.
func WithTimeout(timeout time.Duration) PublishOption {
	return func(o *publishOptions) {
		o.timeout = timeout
	}
}

type consumerOptions struct {
	logger   Logger
	prefetch int
	tag      string
	observer DeliveryObserver
	dial     dialFunc
}

type ConsumerOption func(*consumerOptions)

// WithConsumerLogger returns a ConsumerOption which sets the logger when consuming messages.
func WithConsumerLogger(logger Logger) ConsumerOption {
	return func(o *consumerOptions) {
		o.logger = logger
	}
}

// WithPrefetch sets the channel QoS prefetch count.
func WithPrefetch(count int) ConsumerOption {
	return func(o *consumerOptions) {
		o.prefetch = count
	}
}

// WithConsumerTag overrides the consumer tag, which defaults to the consumer name.
func WithConsumerTag(tag string) ConsumerOption {
	return func(o *consumerOptions) {
		o.tag = tag
	}
}

// WithDeliveryObserver registers a hook called once per handled delivery.
func WithDeliveryObserver(observer DeliveryObserver) ConsumerOption {
	return func(o *consumerOptions) {
		o.observer = observer
	}
}

func withConsumerDialer(dial dialFunc) ConsumerOption {
	return func(o *consumerOptions) {
		o.dial = dial
	}
}

func defaultConsumerOptions() consumerOptions {
	return consumerOptions{
		logger:   nopLogger{},
		prefetch: defaultPrefetch,
		observer: nopObserver{},
		dial:     dial,
	}
}

type supervisorOptions struct {
	logger         Logger
	backoff        *ReconnectBackoff
	stateListeners []func(State)
	onReconnect    func(delay time.Duration)
	after          func(time.Duration) <-chan time.Time
}

type SupervisorOption func(*supervisorOptions)

// WithSupervisorLogger sets the logger used by the supervisor.
func WithSupervisorLogger(logger Logger) SupervisorOption {
	return func(o *supervisorOptions) {
		o.logger = logger
	}
}

// WithReconnectBackoff replaces the default reconnect backoff.
func WithReconnectBackoff(b *ReconnectBackoff) SupervisorOption {
	return func(o *supervisorOptions) {
		o.backoff = b
	}
}

// WithStateListener registers a callback invoked on every state transition.
func WithStateListener(listener func(State)) SupervisorOption {
	return func(o *supervisorOptions) {
		o.stateListeners = append(o.stateListeners, listener)
	}
}

// WithReconnectListener registers a callback invoked before sleeping ahead of a reconnect.
func WithReconnectListener(listener func(delay time.Duration)) SupervisorOption {
	return func(o *supervisorOptions) {
		o.onReconnect = listener
	}
}

func withAfterFunc(after func(time.Duration) <-chan time.Time) SupervisorOption {
	return func(o *supervisorOptions) {
		o.after = after
	}
}

func defaultSupervisorOptions() supervisorOptions {
	return supervisorOptions{
		logger:      nopLogger{},
		onReconnect: func(time.Duration) {},
		after:       time.After,
	}
}
