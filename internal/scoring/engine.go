package scoring

import (
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
)

// RiskLevel labels how risky an applicant looks.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Recommendation is the suggested landlord decision.
type Recommendation string

const (
	RecommendApprove       Recommendation = "Approve"
	RecommendFurtherReview Recommendation = "Further Review"
	RecommendDecline       Recommendation = "Decline"
)

// Category maxima. They add up to 100.
const (
	MaxIncomePoints   = 40
	MaxBankPoints     = 30
	MaxIdentityPoints = 20
	MaxPaymentPoints  = 10
)

var billCategories = []string{"service", "utilities", "rent", "loan payments", "bills", "telecommunication services", "insurance"}

// Breakdown is the per-category score.
type Breakdown struct {
	Income         int `json:"income"`
	Bank           int `json:"bank"`
	Identity       int `json:"identity"`
	PaymentHistory int `json:"paymentHistory"`
}

// Total adds the categories.
func (b Breakdown) Total() int {
	return b.Income + b.Bank + b.Identity + b.PaymentHistory
}

// Applicant is everything the engine looks at.
type Applicant struct {
	Name         string
	Email        string
	Phone        string
	Address      string
	Accounts     []domain.Account
	Transactions []domain.Transaction
}

// Result is the engine output.
type Result struct {
	Score             int            `json:"score"`
	Breakdown         Breakdown      `json:"breakdown"`
	RiskLevel         RiskLevel      `json:"riskLevel"`
	Recommendation    Recommendation `json:"recommendation"`
	AffordabilityRate float64        `json:"affordabilityRatio"`
	Income            IncomeEstimate `json:"income"`
	TotalBalance      float64        `json:"totalBalance"`
	BillPayments      int            `json:"billPayments"`
}

// Engine scores applicants against a monthly rent.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine using the wall clock for the deposit window.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt returns an engine with a fixed clock, mainly for tests and the CLI.
func NewEngineAt(now time.Time) *Engine {
	return &Engine{now: func() time.Time { return now }}
}

// Score produces the applicant score for the given monthly rent.
func (e *Engine) Score(a Applicant, rent float64) Result {
	income := EstimateIncome(ClassifyDeposits(a.Transactions, e.now()))
	ratio := AffordabilityRatio(income.MonthlyIncome, rent)

	balance := TotalBalance(a.Accounts)
	bills := CountBillPayments(a.Transactions)

	b := Breakdown{
		Income:         IncomeRatioPoints(ratio) + StabilityPoints(income.RecurringDeposits),
		Bank:           BalancePoints(balance, rent) + DiversityPoints(a.Accounts) + OverdraftPoints(a.Accounts),
		Identity:       IdentityPoints(a) + ContactPoints(a),
		PaymentHistory: PaymentHistoryPoints(bills),
	}

	score := clamp(b.Total(), 0, 100)
	risk, rec := Gate(score, ratio)

	return Result{
		Score:             score,
		Breakdown:         b,
		RiskLevel:         risk,
		Recommendation:    rec,
		AffordabilityRate: ratio,
		Income:            income,
		TotalBalance:      balance,
		BillPayments:      bills,
	}
}

// Gate combines score and affordability into a risk label and recommendation.
func Gate(score int, ratio float64) (RiskLevel, Recommendation) {
	switch {
	case score >= 80 && ratio >= 2.5:
		return RiskLow, RecommendApprove
	case score >= 60 && ratio >= 2.0:
		return RiskMedium, RecommendFurtherReview
	default:
		return RiskHigh, RecommendDecline
	}
}

// AffordabilityRatio is monthly income over rent; 0 when rent is not positive.
func AffordabilityRatio(monthlyIncome, rent float64) float64 {
	if rent <= 0 {
		return 0
	}
	return monthlyIncome / rent
}

// IncomeRatioPoints scores the income-to-rent ratio out of 25.
func IncomeRatioPoints(ratio float64) int {
	switch {
	case ratio >= 3.0:
		return 25
	case ratio >= 2.5:
		return 20
	case ratio >= 2.0:
		return 15
	case ratio >= 1.5:
		return 10
	default:
		return 5
	}
}

// StabilityPoints scores recurring deposits out of 15.
func StabilityPoints(recurring int) int {
	switch {
	case recurring >= 6:
		return 15
	case recurring >= 4:
		return 10
	case recurring >= 2:
		return 5
	default:
		return 0
	}
}

// TotalBalance sums available balances, falling back to current balance.
func TotalBalance(accounts []domain.Account) float64 {
	var total float64
	for _, a := range accounts {
		if a.AvailableBalance != 0 {
			total += a.AvailableBalance
		} else {
			total += a.CurrentBalance
		}
	}
	return total
}

// BalancePoints scores balance against months of rent out of 15.
func BalancePoints(balance, rent float64) int {
	if rent <= 0 {
		return 0
	}
	switch {
	case balance >= 6*rent:
		return 15
	case balance >= 3*rent:
		return 10
	case balance >= rent:
		return 5
	default:
		return 0
	}
}

// DiversityPoints scores distinct account subtypes out of 10.
func DiversityPoints(accounts []domain.Account) int {
	kinds := map[string]struct{}{}
	for _, a := range accounts {
		k := strings.ToLower(a.Subtype)
		if k == "" {
			k = strings.ToLower(a.Type)
		}
		if k != "" {
			kinds[k] = struct{}{}
		}
	}
	switch {
	case len(kinds) >= 3:
		return 10
	case len(kinds) == 2:
		return 5
	default:
		return 0
	}
}

// OverdraftPoints awards 5 when accounts exist and none is overdrawn.
func OverdraftPoints(accounts []domain.Account) int {
	if len(accounts) == 0 {
		return 0
	}
	for _, a := range accounts {
		if a.CurrentBalance < 0 {
			return 0
		}
	}
	return 5
}

// IdentityPoints awards 10 when name, address and email are all present.
func IdentityPoints(a Applicant) int {
	if present(a.Name) && present(a.Address) && present(a.Email) {
		return 10
	}
	return 0
}

// ContactPoints awards up to 10 for reachable contact channels.
func ContactPoints(a Applicant) int {
	pts := 0
	if present(a.Phone) {
		pts += 4
	}
	if present(a.Email) {
		pts += 3
	}
	if present(a.Address) {
		pts += 3
	}
	return pts
}

// CountBillPayments counts outgoing transactions in bill-like categories.
func CountBillPayments(txns []domain.Transaction) int {
	n := 0
	for _, t := range txns {
		if t.Amount <= 0 {
			continue
		}
		if hasCategory(t.Categories, billCategories) {
			n++
		}
	}
	return n
}

// PaymentHistoryPoints scores bill payment count out of 10.
func PaymentHistoryPoints(bills int) int {
	switch {
	case bills >= 10:
		return 10
	case bills >= 5:
		return 7
	case bills >= 1:
		return 4
	default:
		return 0
	}
}

func hasCategory(categories, wanted []string) bool {
	for _, c := range categories {
		label := strings.ToLower(strings.TrimSpace(c))
		for _, w := range wanted {
			if label == w {
				return true
			}
		}
	}
	return false
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
