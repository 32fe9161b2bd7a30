package payment

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/venuepass/venue-booking-backend/internal/observability"
)

// AuditLog appends payment events. Implementations must never mutate or
// delete entries.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
}

type mongoAuditLog struct {
	coll   *mongo.Collection
	logger observability.Logger
}

// NewMongoAuditLog writes audit entries to the payment_audit collection.
func NewMongoAuditLog(db *mongo.Database, logger observability.Logger) AuditLog {
	return &mongoAuditLog{
		coll:   db.Collection("payment_audit"),
		logger: logger,
	}
}

func (a *mongoAuditLog) Append(ctx context.Context, entry AuditEntry) error {
	_, err := a.coll.InsertOne(ctx, entry)
	if err != nil {
		a.logger.WithError(err).
			WithField("transaction_id", entry.TransactionID).
			Error("failed to append payment audit entry")
		observability.PaymentAuditFailures.Inc()
		return err
	}
	return nil
}
