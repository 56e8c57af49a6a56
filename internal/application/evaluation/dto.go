package evaluation

import (
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/evaluation"
	"github.com/shopspring/decimal"
)

// ScoresRequest carries the four 1-5 ratings
type ScoresRequest struct {
	Quality       int `json:"quality" binding:"required,min=1,max=5"`
	Delivery      int `json:"delivery" binding:"required,min=1,max=5"`
	Cost          int `json:"cost" binding:"required,min=1,max=5"`
	Communication int `json:"communication" binding:"required,min=1,max=5"`
}

func (s ScoresRequest) toScores() evaluation.Scores {
	return evaluation.Scores{Quality: s.Quality, Delivery: s.Delivery, Cost: s.Cost, Communication: s.Communication}
}

// CreateEvaluationRequest rates a supplier for a period
type CreateEvaluationRequest struct {
	SupplierID uuid.UUID     `json:"supplier_id" binding:"required"`
	Period     string        `json:"period" binding:"required,period"`
	Scores     ScoresRequest `json:"scores" binding:"required"`
	Comments   string        `json:"comments" binding:"max=4000"`
}

// UpdateEvaluationRequest revises an evaluation
type UpdateEvaluationRequest struct {
	Scores   ScoresRequest `json:"scores" binding:"required"`
	Comments string        `json:"comments" binding:"max=4000"`
}

// ListFilter represents filter options for the evaluation list
type ListFilter struct {
	SupplierID  *uuid.UUID `form:"-"` // query supplier_id, parsed by the handler
	EvaluatorID *uuid.UUID `form:"-"` // query evaluator_id, parsed by the handler
	Period      string     `form:"period"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ScoresResponse is the API view of the ratings
type ScoresResponse struct {
	Quality       int `json:"quality"`
	Delivery      int `json:"delivery"`
	Cost          int `json:"cost"`
	Communication int `json:"communication"`
}

// EvaluationResponse is the API view of an evaluation
type EvaluationResponse struct {
	ID           uuid.UUID       `json:"id"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	EvaluatorID  uuid.UUID       `json:"evaluator_id"`
	Period       string          `json:"period"`
	Scores       ScoresResponse  `json:"scores"`
	OverallScore decimal.Decimal `json:"overall_score"`
	Comments     string          `json:"comments,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PeriodScoreResponse is one point of the scorecard trend
type PeriodScoreResponse struct {
	Period         string          `json:"period"`
	Count          int64           `json:"count"`
	AverageOverall decimal.Decimal `json:"average_overall"`
}

// ScorecardResponse aggregates a supplier's evaluations
type ScorecardResponse struct {
	SupplierID           uuid.UUID             `json:"supplier_id"`
	SupplierName         string                `json:"supplier_name"`
	EvaluationCount      int64                 `json:"evaluation_count"`
	AverageQuality       decimal.Decimal       `json:"average_quality"`
	AverageDelivery      decimal.Decimal       `json:"average_delivery"`
	AverageCost          decimal.Decimal       `json:"average_cost"`
	AverageCommunication decimal.Decimal       `json:"average_communication"`
	AverageOverall       decimal.Decimal       `json:"average_overall"`
	Trend                []PeriodScoreResponse `json:"trend"`
}

// ToEvaluationResponse converts an evaluation to its API view
func ToEvaluationResponse(e *evaluation.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:           e.ID,
		SupplierID:   e.SupplierID,
		SupplierName: e.SupplierName,
		EvaluatorID:  e.EvaluatorID,
		Period:       e.Period,
		Scores: ScoresResponse{
			Quality:       e.Scores.Quality,
			Delivery:      e.Scores.Delivery,
			Cost:          e.Scores.Cost,
			Communication: e.Scores.Communication,
		},
		OverallScore: e.OverallScore,
		Comments:     e.Comments,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// ToEvaluationResponses converts evaluations to API views
func ToEvaluationResponses(evals []evaluation.Evaluation) []EvaluationResponse {
	out := make([]EvaluationResponse, len(evals))
	for i := range evals {
		out[i] = ToEvaluationResponse(&evals[i])
	}
	return out
}

// ToScorecardResponse converts a scorecard to its API view
func ToScorecardResponse(sc *evaluation.Scorecard, supplierName string) ScorecardResponse {
	trend := make([]PeriodScoreResponse, len(sc.Trend))
	for i, p := range sc.Trend {
		trend[i] = PeriodScoreResponse{Period: p.Period, Count: p.Count, AverageOverall: p.AverageOverall}
	}
	return ScorecardResponse{
		SupplierID:           sc.SupplierID,
		SupplierName:         supplierName,
		EvaluationCount:      sc.EvaluationCount,
		AverageQuality:       sc.AverageQuality,
		AverageDelivery:      sc.AverageDelivery,
		AverageCost:          sc.AverageCost,
		AverageCommunication: sc.AverageCommunication,
		AverageOverall:       sc.AverageOverall,
		Trend:                trend,
	}
}
