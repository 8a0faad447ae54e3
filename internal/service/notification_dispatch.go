package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Notifier dispatches best-effort notifications. Failures are reported to
// the caller for bookkeeping but must never abort the operation that
// triggered them.
type Notifier interface {
	NotifyOrganizer(ctx context.Context, organizerID uint, subject, body string) error
	NotifyParticipants(ctx context.Context, hackathonID uint, participantCount int, subject, body string) (int, error)
}

type notificationPayload struct {
	Kind        string    `json:"kind"`
	RecipientID uint      `json:"recipient_id,omitempty"`
	HackathonID uint      `json:"hackathon_id,omitempty"`
	Recipients  int       `json:"recipients,omitempty"`
	Subject     string    `json:"subject"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// NatsNotifier publishes notification requests onto NATS subjects for the
// delivery workers. With no connection configured it degrades to logging,
// which keeps local development and tests free of a broker.
type NatsNotifier struct {
	conn        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
}

// NewNatsNotifier constructs the notifier. A nil connection is allowed.
func NewNatsNotifier(conn *nats.Conn, subjectBase string, logger zerolog.Logger) *NatsNotifier {
	if subjectBase == "" {
		subjectBase = "hackverse.notify"
	}
	return &NatsNotifier{
		conn:        conn,
		subjectBase: subjectBase,
		logger:      logger.With().Str("component", "notification_dispatch").Logger(),
	}
}

// NotifyOrganizer publishes a direct notification for one organizer.
func (n *NatsNotifier) NotifyOrganizer(ctx context.Context, organizerID uint, subject, body string) error {
	payload := notificationPayload{
		Kind:        "organizer",
		RecipientID: organizerID,
		Subject:     subject,
		Body:        body,
		SentAt:      time.Now().UTC(),
	}
	return n.publish(fmt.Sprintf("%s.organizer", n.subjectBase), payload)
}

// NotifyParticipants fans a notification out to every participant of one
// hackathon and returns the recipient count handed to the dispatcher.
func (n *NatsNotifier) NotifyParticipants(ctx context.Context, hackathonID uint, participantCount int, subject, body string) (int, error) {
	payload := notificationPayload{
		Kind:        "participants",
		HackathonID: hackathonID,
		Recipients:  participantCount,
		Subject:     subject,
		Body:        body,
		SentAt:      time.Now().UTC(),
	}
	if err := n.publish(fmt.Sprintf("%s.participants", n.subjectBase), payload); err != nil {
		return 0, err
	}
	return participantCount, nil
}

func (n *NatsNotifier) publish(subject string, payload notificationPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if n.conn == nil {
		n.logger.Info().Str("subject", subject).RawJSON("payload", data).Msg("notification dispatched to log sink")
		return nil
	}

	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
