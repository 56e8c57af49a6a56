package evaluation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScores_Overall(t *testing.T) {
	tests := []struct {
		scores Scores
		want   string
	}{
		{Scores{5, 5, 5, 5}, "5.00"},
		{Scores{1, 1, 1, 1}, "1.00"},
		{Scores{4, 3, 5, 2}, "3.60"},
		{Scores{3, 4, 2, 5}, "3.40"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.scores.Overall().StringFixed(2))
	}
}

func TestNewEvaluation(t *testing.T) {
	e, err := NewEvaluation(uuid.New(), uuid.New(), "Acme", uuid.New(), "2026-q2", Scores{4, 4, 3, 5}, " solid ")
	require.NoError(t, err)
	assert.Equal(t, "2026-Q2", e.Period)
	assert.Equal(t, "solid", e.Comments)
	assert.Equal(t, "3.95", e.OverallScore.StringFixed(2))

	_, err = NewEvaluation(uuid.New(), uuid.New(), "Acme", uuid.New(), "2026-13", Scores{4, 4, 3, 5}, "")
	assert.ErrorContains(t, err, "Period")

	_, err = NewEvaluation(uuid.New(), uuid.New(), "Acme", uuid.New(), "2026-03", Scores{0, 4, 3, 5}, "")
	assert.ErrorContains(t, err, "quality score")
}

func TestEvaluation_Revise(t *testing.T) {
	e, err := NewEvaluation(uuid.New(), uuid.New(), "Acme", uuid.New(), "2026-03", Scores{2, 2, 2, 2}, "")
	require.NoError(t, err)
	require.NoError(t, e.Revise(Scores{5, 5, 5, 5}, "improved"))
	assert.Equal(t, "5.00", e.OverallScore.StringFixed(2))
	assert.Error(t, e.Revise(Scores{6, 5, 5, 5}, ""))
	assert.Len(t, e.GetDomainEvents(), 2)
}
