// Package queue provides the RabbitMQ worker/messaging layer used by background job
// processors: topology declaration, a per-call publisher, a single-attempt consumer and
// a reconnecting supervisor around it.
//
// # Overview
//
// Producers publish JSON jobs to a topic exchange, or to an x-delayed-message exchange
// when the job must be deferred. A worker process runs exactly one Supervisor, which
// builds a Consumer for its worker definition, lets it consume until the channel or
// connection goes away and then decides whether to reconnect.
//
// # Publishing
//
//	publisher := queue.NewPublisher(cfg, queue.WithPublisherLogger(logger))
//
//	err := publisher.Publish(ctx, "jobs", "api.chat_processor", payload,
//		queue.WithPriority(100),
//	)
//
// Delayed jobs carry the x-delay header and must target a delayed exchange:
//
//	err := publisher.Publish(ctx, "jobs_delay", "api.test.processor", payload,
//		queue.WithDelay(5*time.Second),
//	)
//
// Every call dials its own connection and closes it before returning. Publish volume is
// control-plane sized, so no pooling is done. Setting WithDryRun makes Publish log the
// intended message without touching the broker.
//
// # Consuming
//
//	factory := func() queue.Session {
//		return queue.NewConsumer(cfg, queue.ConsumerSpec{
//			Name:      "TEST_PROCESSOR",
//			Topology:  topology,
//			Processor: processor,
//		})
//	}
//
//	supervisor := queue.NewSupervisor("TEST_PROCESSOR", factory)
//	err := supervisor.Run(ctx) // blocks until Stop, ctx cancellation or a fatal error
//
// Messages are acknowledged after the processor returns, whether it succeeded or not.
// Processing is therefore at-most-once: a failing processor loses the message.
//
// # Reconnecting
//
// When a consumer loses its channel after it had started consuming, the supervisor
// reconnects immediately. When it never reached the consuming state the delay grows by
// one second per attempt, capped at 30 seconds. Protocol errors that point at a
// misconfiguration (for example redeclaring a queue with different arguments) are fatal
// and end the supervisor with an error instead of looping forever.
//
// # Dependencies
//
// This package depends on the official RabbitMQ AMQP client library:
//   - github.com/rabbitmq/amqp091-go
package queue
