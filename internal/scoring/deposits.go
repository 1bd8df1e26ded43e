// Package scoring holds the income-verification and tenant-scoring heuristics.
// Everything here is pure computation over aggregator data.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
)

const (
	// DepositWindow is how far back deposits are considered.
	DepositWindow = 90 * 24 * time.Hour
	// ClusterTolerance is the relative distance within which an amount joins a cluster.
	ClusterTolerance = 0.05
)

var incomeCategories = []string{"payroll", "income", "deposit", "direct deposit", "paycheck", "salary"}

// Cluster groups deposit amounts that are within tolerance of Representative,
// the first amount seen for the cluster.
type Cluster struct {
	Representative float64   `json:"representative"`
	Amounts        []float64 `json:"amounts"`
}

// Size is the number of deposits in the cluster.
func (c Cluster) Size() int { return len(c.Amounts) }

// Average is the mean deposit amount, 0 for an empty cluster.
func (c Cluster) Average() float64 {
	if len(c.Amounts) == 0 {
		return 0
	}
	var sum float64
	for _, a := range c.Amounts {
		sum += a
	}
	return sum / float64(len(c.Amounts))
}

// IsIncomeCategory reports whether any category label looks like income.
func IsIncomeCategory(categories []string) bool {
	for _, c := range categories {
		label := strings.ToLower(strings.TrimSpace(c))
		for _, want := range incomeCategories {
			if label == want {
				return true
			}
		}
	}
	return false
}

// IncomeDeposits returns the absolute amounts of income-like deposits dated
// within the window ending at now.
func IncomeDeposits(txns []domain.Transaction, now time.Time) []float64 {
	cutoff := now.Add(-DepositWindow)
	var out []float64
	for _, t := range txns {
		if t.Amount >= 0 || !IsIncomeCategory(t.Categories) {
			continue
		}
		if !t.Date.IsZero() && t.Date.Before(cutoff) {
			continue
		}
		out = append(out, math.Abs(t.Amount))
	}
	return out
}

// ClusterAmounts groups amounts in input order. An amount joins the first
// existing cluster whose representative it is within tolerance of; otherwise
// it starts a new cluster keyed by itself. Clusters come back in first-seen order.
func ClusterAmounts(amounts []float64) []Cluster {
	var clusters []Cluster
	for _, a := range amounts {
		joined := false
		for i := range clusters {
			rep := clusters[i].Representative
			if math.Abs(a-rep) <= ClusterTolerance*rep {
				clusters[i].Amounts = append(clusters[i].Amounts, a)
				joined = true
				break
			}
		}
		if !joined {
			clusters = append(clusters, Cluster{Representative: a, Amounts: []float64{a}})
		}
	}
	return clusters
}

// ClassifyDeposits runs the filter and the clustering in one step.
func ClassifyDeposits(txns []domain.Transaction, now time.Time) []Cluster {
	return ClusterAmounts(IncomeDeposits(txns, now))
}
