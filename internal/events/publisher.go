package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/Tesseract-Nexus/go-shared/events"
	"variants-service/internal/models"
)

// ChangeCompletenessRecomputed is the change type of events sent after a recomputation
const ChangeCompletenessRecomputed = "completeness_recomputed"

// Publisher wraps the go-shared events publisher for recomputation events
type Publisher struct {
	publisher *events.Publisher
	tenantID  string
	logger    *logrus.Entry
}

// NewPublisher connects to NATS and makes sure the products stream exists
func NewPublisher(natsURL, tenantID string, logger *logrus.Logger) (*Publisher, error) {
	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "variants-service"

	publisher, err := events.NewPublisher(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create events publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		logger.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}

	return &Publisher{
		publisher: publisher,
		tenantID:  tenantID,
		logger:    logger.WithField("component", "variants-events"),
	}, nil
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.publisher != nil {
		p.publisher.Close()
	}
}

// PublishCompletenessRecomputed sends one product.updated event per saved product
func (p *Publisher) PublishCompletenessRecomputed(ctx context.Context, products []*models.Product) {
	for _, product := range products {
		p.publish(p.buildEvent(product))
	}
}

func (p *Publisher) buildEvent(product *models.Product) *events.ProductEvent {
	event := events.NewProductEvent(events.ProductUpdated, p.tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.Identifier
	event.SKU = product.Identifier
	event.ChangeType = ChangeCompletenessRecomputed
	event.ChangedFields = []string{"values", "completenesses"}

	completenesses := make([]map[string]interface{}, 0, len(product.Completenesses))
	for _, c := range product.Completenesses {
		completenesses = append(completenesses, map[string]interface{}{
			"channel":  c.ChannelCode,
			"locale":   c.LocaleCode,
			"missing":  c.MissingCount,
			"required": c.RequiredCount,
			"ratio":    c.Ratio(),
		})
	}
	event.NewValue = map[string]interface{}{"completenesses": completenesses}
	return event
}

// publish sends the event asynchronously so a slow broker never holds a flush
func (p *Publisher) publish(event *events.ProductEvent) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productID": event.ProductID,
				"tenantID":  event.TenantID,
			}).WithError(err).Error("Failed to publish product event")
			return
		}
		p.logger.WithFields(logrus.Fields{
			"eventType":  event.EventType,
			"productID":  event.ProductID,
			"identifier": event.ProductName,
		}).Debug("Product event published")
	}()
}
