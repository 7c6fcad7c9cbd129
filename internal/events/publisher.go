// Package events publishes import lifecycle events to NATS
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects
const (
	SubjectImportCompleted = "import.completed"
	SubjectImportFailed    = "import.failed"
)

// ImportEvent is the payload of every import.* subject.
type ImportEvent struct {
	EventType string    `json:"event_type"`
	TenantID  string    `json:"tenant_id"`
	ImportID  string    `json:"import_id"`
	UserID    string    `json:"user_id,omitempty"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename,omitempty"`
	Target    string    `json:"target"`
	Selected  int       `json:"selected"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportEventPublisher publishes import events over a plain NATS connection
type ImportEventPublisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewImportEventPublisher connects to NATS
func NewImportEventPublisher(natsURL string, logger *logrus.Logger) (*ImportEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	conn, err := nats.Connect(natsURL,
		nats.Name("masareefy-import-service-publisher"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &ImportEventPublisher{
		conn:   conn,
		logger: logger.WithField("component", "import-events"),
	}, nil
}

// PublishImportCompleted publishes an import.completed event
func (p *ImportEventPublisher) PublishImportCompleted(ctx context.Context, event ImportEvent) error {
	event.EventType = SubjectImportCompleted
	return p.publish(ctx, SubjectImportCompleted, event)
}

// PublishImportFailed publishes an import.failed event
func (p *ImportEventPublisher) PublishImportFailed(ctx context.Context, event ImportEvent) error {
	event.EventType = SubjectImportFailed
	return p.publish(ctx, SubjectImportFailed, event)
}

func (p *ImportEventPublisher) publish(_ context.Context, subject string, event ImportEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithFields(logrus.Fields{
			"tenantId": event.TenantID,
			"importId": event.ImportID,
		}).WithError(err).Error("Failed to publish " + subject + " event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"tenantId":  event.TenantID,
		"importId":  event.ImportID,
		"format":    event.Format,
		"succeeded": event.Succeeded,
		"failed":    event.Failed,
	}).Info("Published " + subject + " event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *ImportEventPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the NATS connection
func (p *ImportEventPublisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
