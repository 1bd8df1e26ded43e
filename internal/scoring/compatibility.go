package scoring

// Compatibility is the quick affordability check. Its thresholds differ
// from Gate.
type Compatibility struct {
	Compatible         bool      `json:"compatible"`
	RiskLevel          RiskLevel `json:"riskLevel"`
	AffordabilityRatio float64   `json:"affordabilityRatio"`
	MonthlyIncome      float64   `json:"monthlyIncome"`
	Rent               float64   `json:"rent"`
}

// CheckCompatibility classifies risk purely by income over rent.
func CheckCompatibility(monthlyIncome, rent float64) Compatibility {
	ratio := AffordabilityRatio(monthlyIncome, rent)
	risk := RiskHigh
	switch {
	case ratio >= 3.0:
		risk = RiskLow
	case ratio >= 2.5:
		risk = RiskMedium
	}
	return Compatibility{
		Compatible:         ratio >= 2.5,
		RiskLevel:          risk,
		AffordabilityRatio: ratio,
		MonthlyIncome:      monthlyIncome,
		Rent:               rent,
	}
}

// CreditBand maps the 0-100 tenant score onto the familiar 300-850 range.
type CreditBand struct {
	EstimatedScore int    `json:"estimatedScore"`
	Rating         string `json:"rating"`
}

// EstimateCreditBand converts a tenant score into a credit-style band.
func EstimateCreditBand(score int) CreditBand {
	score = clamp(score, 0, 100)
	est := 300 + score*550/100

	rating := "Poor"
	switch {
	case est >= 740:
		rating = "Excellent"
	case est >= 670:
		rating = "Good"
	case est >= 580:
		rating = "Fair"
	}
	return CreditBand{EstimatedScore: est, Rating: rating}
}
