package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultHeartbeat      = 10 * time.Second
	defaultConnectTimeout = 30 * time.Second
)

// Config is used to establish a connection with a RabbitMQ server.
//
// URL takes precedence over the individual fields when set.
type Config struct {
	URL string

	Scheme   string
	Username string
	Password string
	Host     string
	Port     int
	Vhost    string

	Heartbeat      time.Duration
	ConnectTimeout time.Duration
}

func getURL(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}

	uri := amqp.URI{
		Scheme:   cfg.Scheme,
		Username: cfg.Username,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
		Vhost:    cfg.Vhost,
	}

	return uri.String()
}

// RedactedURL returns the connection URL with the password masked, suitable for logs.
func (c Config) RedactedURL() string {
	uri, err := amqp.ParseURI(getURL(c))
	if err != nil {
		return "invalid-amqp-url"
	}

	if uri.Password != "" {
		uri.Password = "xxxxx"
	}

	return uri.String()
}

func (c Config) amqpConfig() amqp.Config {
	heartbeat := c.Heartbeat
	if heartbeat == 0 {
		heartbeat = defaultHeartbeat
	}

	timeout := c.ConnectTimeout
	if timeout == 0 {
		timeout = defaultConnectTimeout
	}

	return amqp.Config{
		Heartbeat:  heartbeat,
		Locale:     "en_US",
		Properties: amqp.NewConnectionProperties(),
		Dial:       amqp.DefaultDial(timeout),
	}
}
