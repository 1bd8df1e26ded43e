package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rentmatch/internal/domain"
)

func TestClusterAmounts_WithinToleranceMerges(t *testing.T) {
	clusters := ClusterAmounts([]float64{1000, 1040, 960, 1045})

	require.Len(t, clusters, 1)
	assert.Equal(t, 1000.0, clusters[0].Representative)
	assert.Equal(t, []float64{1000, 1040, 960, 1045}, clusters[0].Amounts)
}

func TestClusterAmounts_OutsideToleranceStartsNewCluster(t *testing.T) {
	clusters := ClusterAmounts([]float64{1000, 1051, 500, 1010, 520})

	require.Len(t, clusters, 3)
	assert.Equal(t, 1000.0, clusters[0].Representative)
	assert.Equal(t, []float64{1000, 1010}, clusters[0].Amounts)
	assert.Equal(t, 1051.0, clusters[1].Representative)
	assert.Equal(t, []float64{1051}, clusters[1].Amounts)
	assert.Equal(t, 500.0, clusters[2].Representative)
	assert.Equal(t, []float64{500, 520}, clusters[2].Amounts)
}

func TestClusterAmounts_FirstSeenClusterWinsOverlap(t *testing.T) {
	// 1020 is within 5% of both 1000 and 1060; the earlier cluster takes it.
	clusters := ClusterAmounts([]float64{1000, 1060, 1020})

	require.Len(t, clusters, 2)
	assert.Equal(t, []float64{1000, 1020}, clusters[0].Amounts)
	assert.Equal(t, []float64{1060}, clusters[1].Amounts)
}

func TestClusterAmounts_RepresentativeIsFixed(t *testing.T) {
	// The representative never drifts toward later members.
	clusters := ClusterAmounts([]float64{100, 104, 108})

	require.Len(t, clusters, 2)
	assert.Equal(t, []float64{100, 104}, clusters[0].Amounts)
	assert.Equal(t, 108.0, clusters[1].Representative)
}

func TestIncomeDeposits_Filters(t *testing.T) {
	now := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	txns := []domain.Transaction{
		{Amount: -2000, Date: now.AddDate(0, 0, -3), Categories: []string{"Transfer", "Payroll"}},
		{Amount: -2000, Date: now.AddDate(0, 0, -120), Categories: []string{"Payroll"}},
		{Amount: -50, Date: now.AddDate(0, 0, -5), Categories: []string{"Refund"}},
		{Amount: 75, Date: now.AddDate(0, 0, -5), Categories: []string{"Payroll"}},
		{Amount: -1500, Date: now.AddDate(0, 0, -10), Categories: []string{"DEPOSIT"}},
	}

	assert.Equal(t, []float64{2000, 1500}, IncomeDeposits(txns, now))
}

func TestIsIncomeCategory(t *testing.T) {
	assert.True(t, IsIncomeCategory([]string{"Transfer", " direct deposit "}))
	assert.False(t, IsIncomeCategory([]string{"Food and Drink"}))
	assert.False(t, IsIncomeCategory(nil))
}
