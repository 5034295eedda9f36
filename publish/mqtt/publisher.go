package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kbukum/dictation/logger"
	"github.com/kbukum/dictation/resilience"
	"github.com/kbukum/dictation/session"
)

// Message is the JSON payload published for each transcript.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	RawText   string    `json:"raw_text"`
	Cleaned   bool      `json:"cleaned"`
	Duration  float64   `json:"duration"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher sends completed transcripts to an MQTT broker.
type Publisher struct {
	client  paho.Client
	cfg     Config
	log     *logger.Logger
	breaker *resilience.Breaker
}

var _ session.Sink = (*Publisher)(nil)

// New connects to cfg.Broker, retrying up to cfg.ConnectRetries times.
func New(cfg Config) (*Publisher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get(logger.ComponentPublisher)

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	tlsConfig, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}
	opts.SetOnConnectHandler(func(paho.Client) {
		log.Info("MQTT connected", logger.Fields(logger.FieldURL, cfg.Broker))
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn("MQTT connection lost", logger.ErrorFields("connect", err))
	})

	client := paho.NewClient(opts)
	if err := connect(context.Background(), client, cfg, log); err != nil {
		return nil, err
	}
	return NewWithClient(client, cfg), nil
}

func connect(ctx context.Context, client paho.Client, cfg Config, log *logger.Logger) error {
	return resilience.Retry(ctx, resilience.RetryConfig{
		Attempts: cfg.ConnectRetries,
		Backoff:  500 * time.Millisecond,
		Jitter:   0.2,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			log.Debug("MQTT connect failed, retrying", logger.Fields(
				"attempt", attempt, logger.FieldURL, cfg.Broker, logger.FieldError, err.Error(), logger.FieldDuration, delay.String()))
		},
	}, func(context.Context) error {
		token := client.Connect()
		if !token.WaitTimeout(cfg.ConnectTimeout) {
			return fmt.Errorf("connect to MQTT broker %s: timed out", cfg.Broker)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect to MQTT broker %s: %w", cfg.Broker, err)
		}
		return nil
	})
}

// NewWithClient publishes through an existing client.
func NewWithClient(client paho.Client, cfg Config) *Publisher {
	cfg.ApplyDefaults()
	log := logger.Get(logger.ComponentPublisher)
	return &Publisher{
		client: client,
		cfg:    cfg,
		log:    log,
		breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:        "mqtt",
			MaxFailures: cfg.MaxFailures,
			Cooldown:    cfg.Cooldown,
			OnStateChange: func(_ string, from, to resilience.BreakerState) {
				log.Info("MQTT publishing "+to.String(), logger.Fields("from", from.String()))
			},
		}),
	}
}

// Publish sends c as a Message and waits for the broker to accept it.
// After MaxFailures consecutive failures it fails fast until Cooldown has
// passed.
func (p *Publisher) Publish(ctx context.Context, c session.Completed) error {
	err := p.breaker.Execute(func() error { return p.publish(ctx, c) })
	if errors.Is(err, resilience.ErrOpen) {
		return fmt.Errorf("MQTT publishing paused after %d failures: %w", p.cfg.MaxFailures, err)
	}
	return err
}

func (p *Publisher) publish(ctx context.Context, c session.Completed) error {
	payload, err := json.Marshal(Message{
		ID:        c.Entry.ID,
		Text:      c.Entry.Text,
		RawText:   c.RawText,
		Cleaned:   c.Cleaned,
		Duration:  c.Entry.Duration,
		Timestamp: c.Entry.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	topic := formatTopic(p.cfg.Topic, c.JobID)
	token := p.client.Publish(topic, p.cfg.QoS, p.cfg.Retained, payload)

	timer := time.NewTimer(p.cfg.PublishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s: timed out after %s", topic, p.cfg.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.log.Debug("Transcript published", logger.Fields("topic", topic, logger.FieldBytes, len(payload)))
	return nil
}

// Close disconnects, allowing in-flight messages 250ms to finish.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}

func formatTopic(pattern, jobID string) string {
	return strings.ReplaceAll(pattern, "{job_id}", jobID)
}
