package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourorg/rentmatch/internal/domain"
	"github.com/yourorg/rentmatch/internal/scoring"
)

// applicantFixture is the offline input to the score command.
type applicantFixture struct {
	Name         string               `json:"name"`
	Email        string               `json:"email"`
	Phone        string               `json:"phone"`
	Address      string               `json:"address"`
	Accounts     []domain.Account     `json:"accounts"`
	Transactions []domain.Transaction `json:"transactions"`
}

func (f applicantFixture) applicant() scoring.Applicant {
	return scoring.Applicant{
		Name:         f.Name,
		Email:        f.Email,
		Phone:        f.Phone,
		Address:      f.Address,
		Accounts:     f.Accounts,
		Transactions: f.Transactions,
	}
}

func readFixture(r io.Reader) (applicantFixture, error) {
	var f applicantFixture
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("invalid fixture: %w", err)
	}
	return f, nil
}

func scoreCmd() *cobra.Command {
	var (
		file   string
		rent   float64
		at     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score an applicant fixture offline against a monthly rent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rent <= 0 {
				return fmt.Errorf("--rent must be greater than zero")
			}
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				now = t
			}

			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			fixture, err := readFixture(r)
			if err != nil {
				return err
			}

			res := scoring.NewEngineAt(now).Score(fixture.applicant(), rent)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "applicant fixture JSON, - for stdin")
	cmd.Flags().Float64Var(&rent, "rent", 0, "monthly rent")
	cmd.Flags().StringVar(&at, "at", "", "score as of this RFC3339 time")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}

func printResult(out io.Writer, res scoring.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCORE\t%d\n", res.Score)
	fmt.Fprintf(w, "  income\t%d/%d\n", res.Breakdown.Income, scoring.MaxIncomePoints)
	fmt.Fprintf(w, "  bank\t%d/%d\n", res.Breakdown.Bank, scoring.MaxBankPoints)
	fmt.Fprintf(w, "  identity\t%d/%d\n", res.Breakdown.Identity, scoring.MaxIdentityPoints)
	fmt.Fprintf(w, "  payment history\t%d/%d\n", res.Breakdown.PaymentHistory, scoring.MaxPaymentPoints)
	fmt.Fprintf(w, "MONTHLY INCOME\t%.2f (%s)\n", res.Income.MonthlyIncome, res.Income.Frequency)
	fmt.Fprintf(w, "AFFORDABILITY\t%.2fx\n", res.AffordabilityRate)
	fmt.Fprintf(w, "RISK\t%s\n", res.RiskLevel)
	fmt.Fprintf(w, "RECOMMENDATION\t%s\n", res.Recommendation)
	w.Flush()
}
