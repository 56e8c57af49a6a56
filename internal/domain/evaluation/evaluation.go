package evaluation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Criterion weights for the overall score
var (
	WeightQuality       = decimal.RequireFromString("0.35")
	WeightDelivery      = decimal.RequireFromString("0.30")
	WeightCost          = decimal.RequireFromString("0.20")
	WeightCommunication = decimal.RequireFromString("0.15")
)

var periodPattern = regexp.MustCompile(`^\d{4}-(Q[1-4]|0[1-9]|1[0-2])$`)

// Scores are the per-criterion ratings, each from 1 to 5
type Scores struct {
	Quality       int
	Delivery      int
	Cost          int
	Communication int
}

// Validate checks every score is within range
func (s Scores) Validate() error {
	for name, v := range map[string]int{
		"quality": s.Quality, "delivery": s.Delivery, "cost": s.Cost, "communication": s.Communication,
	} {
		if v < 1 || v > 5 {
			return shared.NewDomainError("INVALID_SCORE", fmt.Sprintf("%s score must be between 1 and 5", name))
		}
	}
	return nil
}

// Overall returns the weighted score rounded to two places
func (s Scores) Overall() decimal.Decimal {
	return decimal.NewFromInt(int64(s.Quality)).Mul(WeightQuality).
		Add(decimal.NewFromInt(int64(s.Delivery)).Mul(WeightDelivery)).
		Add(decimal.NewFromInt(int64(s.Cost)).Mul(WeightCost)).
		Add(decimal.NewFromInt(int64(s.Communication)).Mul(WeightCommunication)).
		Round(2)
}

// Evaluation is one evaluator's rating of a supplier for a period
type Evaluation struct {
	shared.TenantAggregateRoot
	SupplierID   uuid.UUID
	SupplierName string
	EvaluatorID  uuid.UUID
	Period       string
	Scores       Scores
	OverallScore decimal.Decimal
	Comments     string
}

// ValidatePeriod checks a YYYY-Qn or YYYY-MM period label
func ValidatePeriod(period string) error {
	if !periodPattern.MatchString(period) {
		return shared.NewDomainError("INVALID_PERIOD", "Period must look like 2026-Q1 or 2026-03")
	}
	return nil
}

// NewEvaluation creates an evaluation
func NewEvaluation(tenantID, supplierID uuid.UUID, supplierName string, evaluatorID uuid.UUID, period string, scores Scores, comments string) (*Evaluation, error) {
	period = strings.ToUpper(strings.TrimSpace(period))
	if err := ValidatePeriod(period); err != nil {
		return nil, err
	}
	if err := scores.Validate(); err != nil {
		return nil, err
	}
	e := &Evaluation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SupplierID:          supplierID,
		SupplierName:        supplierName,
		EvaluatorID:         evaluatorID,
		Period:              period,
		Scores:              scores,
		OverallScore:        scores.Overall(),
		Comments:            strings.TrimSpace(comments),
	}
	e.SetCreatedBy(evaluatorID)
	e.AddDomainEvent(NewEvaluationEvent(EventTypeSubmitted, e))
	return e, nil
}

// Revise replaces the scores and comments
func (e *Evaluation) Revise(scores Scores, comments string) error {
	if err := scores.Validate(); err != nil {
		return err
	}
	e.Scores = scores
	e.OverallScore = scores.Overall()
	e.Comments = strings.TrimSpace(comments)
	e.Touch()
	e.AddDomainEvent(NewEvaluationEvent(EventTypeRevised, e))
	return nil
}

// Scorecard aggregates a supplier's evaluations
type Scorecard struct {
	SupplierID           uuid.UUID
	EvaluationCount      int64
	AverageQuality       decimal.Decimal
	AverageDelivery      decimal.Decimal
	AverageCost          decimal.Decimal
	AverageCommunication decimal.Decimal
	AverageOverall       decimal.Decimal
	Trend                []PeriodScore
}

// PeriodScore is the average overall score for one period
type PeriodScore struct {
	Period         string
	Count          int64
	AverageOverall decimal.Decimal
}
