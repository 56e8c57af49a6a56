package evaluation

import (
	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeEvaluation is the aggregate type for evaluations
const AggregateTypeEvaluation = "SupplierEvaluation"

// Evaluation event types
const (
	EventTypeSubmitted = "EvaluationSubmitted"
	EventTypeRevised   = "EvaluationRevised"
)

// EvaluationEvent is published when an evaluation is created or revised
type EvaluationEvent struct {
	shared.BaseDomainEvent
	SupplierID   uuid.UUID       `json:"supplier_id"`
	Period       string          `json:"period"`
	OverallScore decimal.Decimal `json:"overall_score"`
}

// NewEvaluationEvent creates an EvaluationEvent
func NewEvaluationEvent(eventType string, e *Evaluation) *EvaluationEvent {
	return &EvaluationEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeEvaluation, e.ID, e.TenantID),
		SupplierID:      e.SupplierID,
		Period:          e.Period,
		OverallScore:    e.OverallScore,
	}
}
