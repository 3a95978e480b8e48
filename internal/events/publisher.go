package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Kind names the analysis that completed.
type Kind string

const (
	KindGrading    Kind = "grading"
	KindPlagiarism Kind = "plagiarism"
	KindSentiment  Kind = "sentiment"
)

// AnalysisEvent announces a persisted analysis result.
type AnalysisEvent struct {
	Kind         Kind      `json:"kind"`
	SubmissionID string    `json:"submission_id,omitempty"`
	StudentID    string    `json:"student_id,omitempty"`
	RecordID     string    `json:"record_id"`
	Source       string    `json:"source,omitempty"`
	Score        *float64  `json:"score,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher broadcasts analysis events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event AnalysisEvent)
}

var publishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gema",
	Subsystem: "events",
	Name:      "publish_failures_total",
	Help:      "Analysis events that could not be published.",
}, []string{"kind", "transport"})

// BusPublisher fans events out to Redis pub/sub and NATS. Either may be nil.
type BusPublisher struct {
	nats   *nats.Conn
	redis  *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewBusPublisher constructs a publisher for the configured transports.
func NewBusPublisher(natsConn *nats.Conn, redisClient *redis.Client, prefix string, logger zerolog.Logger) *BusPublisher {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = "gema"
	}
	return &BusPublisher{
		nats:   natsConn,
		redis:  redisClient,
		prefix: prefix,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Subject is the channel name events of kind are sent on.
func (p *BusPublisher) Subject(kind Kind) string {
	return p.prefix + ".analysis." + string(kind)
}

// Publish sends the event on every configured transport and logs failures.
func (p *BusPublisher) Publish(ctx context.Context, event AnalysisEvent) {
	if p == nil || (p.nats == nil && p.redis == nil) {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode analysis event")
		return
	}

	subject := p.Subject(event.Kind)
	if p.redis != nil {
		if err := p.redis.Publish(ctx, subject, payload).Err(); err != nil {
			publishFailures.WithLabelValues(string(event.Kind), "redis").Inc()
			p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish analysis event to redis")
		}
	}
	if p.nats != nil {
		if err := p.nats.Publish(subject, payload); err != nil {
			publishFailures.WithLabelValues(string(event.Kind), "nats").Inc()
			p.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish analysis event to nats")
		}
	}
}
