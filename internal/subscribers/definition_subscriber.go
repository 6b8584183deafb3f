package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"variants-service/internal/models"
	"variants-service/internal/reader"
)

// Subjects published by the catalog when a definition is saved
const (
	SubjectFamilyUpdated        = "product.family.updated"
	SubjectFamilyVariantUpdated = "product.family_variant.updated"
)

// DefinitionChangedEvent announces a saved family or family variant
type DefinitionChangedEvent struct {
	EventType         string    `json:"event_type"`
	TenantID          string    `json:"tenant_id"`
	FamilyCode        string    `json:"family_code,omitempty"`
	FamilyVariantCode string    `json:"family_variant_code,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// JobLauncher starts the recomputation jobs
type JobLauncher interface {
	LaunchComputeFamilyVariants(ctx context.Context, r reader.Reader, params map[string]interface{}) (*models.JobExecution, error)
	LaunchFamilyVariantStructure(ctx context.Context, familyVariantCodes []string) (*models.JobExecution, error)
}

// DefinitionSubscriber launches a recomputation whenever a family or a family variant changes
type DefinitionSubscriber struct {
	conn     *nats.Conn
	subs     []*nats.Subscription
	launcher JobLauncher
	logger   *logrus.Entry
}

// NewDefinitionSubscriber connects to NATS
func NewDefinitionSubscriber(natsURL string, launcher JobLauncher, logger *logrus.Logger) (*DefinitionSubscriber, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("variants-service-subscriber"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &DefinitionSubscriber{
		conn:     conn,
		launcher: launcher,
		logger:   logger.WithField("component", "definition-subscriber"),
	}, nil
}

// Start begins listening for definition changes
func (s *DefinitionSubscriber) Start() error {
	for _, subject := range []string{SubjectFamilyUpdated, SubjectFamilyVariantUpdated} {
		sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.handle(ctx, msg.Subject, msg.Data); err != nil {
				s.logger.WithError(err).WithField("subject", msg.Subject).Error("Failed to launch recomputation")
			}
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}

	s.logger.Info("Subscribed to family and family variant changes")
	return nil
}

func (s *DefinitionSubscriber) handle(ctx context.Context, subject string, data []byte) error {
	var event DefinitionChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		s.logger.WithError(err).WithField("subject", subject).Warn("Ignoring malformed definition event")
		return nil
	}

	params := map[string]interface{}{"trigger": subject}
	if event.TenantID != "" {
		params["tenantId"] = event.TenantID
	}

	switch subject {
	case SubjectFamilyUpdated:
		if event.FamilyCode == "" {
			s.logger.Warn("Ignoring family event without family code")
			return nil
		}
		params["familyCodes"] = []string{event.FamilyCode}
		execution, err := s.launcher.LaunchComputeFamilyVariants(ctx, reader.NewSliceReader([]string{event.FamilyCode}), params)
		if err != nil {
			return err
		}
		s.logLaunched(execution, event)
	case SubjectFamilyVariantUpdated:
		if event.FamilyVariantCode == "" {
			s.logger.Warn("Ignoring family variant event without family variant code")
			return nil
		}
		execution, err := s.launcher.LaunchFamilyVariantStructure(ctx, []string{event.FamilyVariantCode})
		if err != nil {
			return err
		}
		s.logLaunched(execution, event)
	default:
		s.logger.WithField("subject", subject).Debug("Ignoring unhandled subject")
	}
	return nil
}

func (s *DefinitionSubscriber) logLaunched(execution *models.JobExecution, event DefinitionChangedEvent) {
	s.logger.WithFields(logrus.Fields{
		"executionId":   execution.ID,
		"job":           execution.JobName,
		"family":        event.FamilyCode,
		"familyVariant": event.FamilyVariantCode,
		"tenant_id":     event.TenantID,
	}).Info("Recomputation launched after definition change")
}

// Close unsubscribes and closes the connection
func (s *DefinitionSubscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	s.logger.Info("Definition subscriber stopped")
}
