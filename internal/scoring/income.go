package scoring

// PayFrequency is the inferred pay cadence.
type PayFrequency string

const (
	FrequencyBiWeekly PayFrequency = "bi-weekly"
	FrequencyMonthly  PayFrequency = "monthly"
	FrequencyUnknown  PayFrequency = "unknown"
)

// BiWeeklyToMonthly converts a bi-weekly paycheck into a monthly figure.
const BiWeeklyToMonthly = 2.17

// IncomeEstimate is the outcome of the income heuristic.
type IncomeEstimate struct {
	MonthlyIncome     float64      `json:"monthlyIncome"`
	AnnualIncome      float64      `json:"annualIncome"`
	Frequency         PayFrequency `json:"frequency"`
	RecurringDeposits int          `json:"recurringDeposits"`
	// Confidence is "high" whenever any income was detected and "low"
	// otherwise. It is not a statistical confidence.
	Confidence string `json:"confidence"`
}

// LargestCluster returns the cluster with the most members. Ties go to the
// cluster seen first. ok is false when there are no clusters.
func LargestCluster(clusters []Cluster) (Cluster, bool) {
	if len(clusters) == 0 {
		return Cluster{}, false
	}
	best := clusters[0]
	for _, c := range clusters[1:] {
		if c.Size() > best.Size() {
			best = c
		}
	}
	return best, true
}

// EstimateIncome infers monthly and annual income from deposit clusters.
// Six or more deposits read as bi-weekly pay, three to five as monthly pay,
// fewer than three as no detectable income.
func EstimateIncome(clusters []Cluster) IncomeEstimate {
	est := IncomeEstimate{Frequency: FrequencyUnknown, Confidence: "low"}

	best, ok := LargestCluster(clusters)
	if !ok {
		return est
	}
	est.RecurringDeposits = best.Size()

	switch n := best.Size(); {
	case n >= 6:
		est.Frequency = FrequencyBiWeekly
		est.MonthlyIncome = best.Average() * BiWeeklyToMonthly
	case n >= 3:
		est.Frequency = FrequencyMonthly
		est.MonthlyIncome = best.Average()
	default:
		est.MonthlyIncome = 0
	}

	est.AnnualIncome = est.MonthlyIncome * 12
	if est.MonthlyIncome > 0 {
		est.Confidence = "high"
	}
	return est
}
