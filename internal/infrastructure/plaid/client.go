package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/rentmatch/internal/domain"
)

// Compile-time interface check.
var _ domain.FinancialDataProvider = (*Client)(nil)

const transactionsPageSize = 500

// BaseURL returns the API host for a Plaid environment name.
func BaseURL(env string) string {
	switch strings.ToLower(env) {
	case "production":
		return "https://production.plaid.com"
	case "development":
		return "https://development.plaid.com"
	default:
		return "https://sandbox.plaid.com"
	}
}

// Client implements domain.FinancialDataProvider against the Plaid REST API.
type Client struct {
	clientID string
	secret   string
	baseURL  string
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a new Plaid API client.
func NewClient(clientID, secret, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		clientID: clientID,
		secret:   secret,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// APIError is the error body Plaid returns on non-2xx responses.
type APIError struct {
	Status       int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid API error (status %d): %s %s: %s", e.Status, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// Retryable reports whether another attempt could succeed: rate limits and server errors.
func (e *APIError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}

type plaidBalances struct {
	Available *float64 `json:"available"`
	Current   *float64 `json:"current"`
}

type plaidOwner struct {
	Names  []string `json:"names"`
	Emails []struct {
		Data string `json:"data"`
	} `json:"emails"`
	PhoneNumbers []struct {
		Data string `json:"data"`
	} `json:"phone_numbers"`
	Addresses []struct {
		Data struct {
			Street     string `json:"street"`
			City       string `json:"city"`
			Region     string `json:"region"`
			PostalCode string `json:"postal_code"`
			Country    string `json:"country"`
		} `json:"data"`
		Primary bool `json:"primary"`
	} `json:"addresses"`
}

type plaidAccount struct {
	AccountID string        `json:"account_id"`
	Name      string        `json:"name"`
	Mask      string        `json:"mask"`
	Type      string        `json:"type"`
	Subtype   string        `json:"subtype"`
	Balances  plaidBalances `json:"balances"`
	Owners    []plaidOwner  `json:"owners"`
}

type plaidTransaction struct {
	TransactionID string   `json:"transaction_id"`
	AccountID     string   `json:"account_id"`
	Amount        float64  `json:"amount"`
	Date          string   `json:"date"`
	Name          string   `json:"name"`
	Category      []string `json:"category"`
}

// CreateLinkToken starts a Link session for the given user.
func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	req := map[string]interface{}{
		"client_name":   "RentMatch",
		"user":          map[string]string{"client_user_id": clientUserID},
		"products":      []string{"auth", "identity", "transactions"},
		"country_codes": []string{"US"},
		"language":      "en",
	}
	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", req, &resp); err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken trades a Link public token for a long-lived access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	var resp struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", map[string]interface{}{"public_token": publicToken}, &resp); err != nil {
		return "", err
	}
	c.logger.Info("plaid item linked", slog.String("item_id", resp.ItemID))
	return resp.AccessToken, nil
}

// GetIdentity returns the account holders the bank reports.
func (c *Client) GetIdentity(ctx context.Context, accessToken string) (*domain.IdentityReport, error) {
	var resp struct {
		Accounts []plaidAccount `json:"accounts"`
	}
	if err := c.post(ctx, "/identity/get", map[string]interface{}{"access_token": accessToken}, &resp); err != nil {
		return nil, err
	}

	report := &domain.IdentityReport{}
	for _, a := range resp.Accounts {
		report.Accounts = append(report.Accounts, toAccount(a))
		for _, o := range a.Owners {
			report.Owners = append(report.Owners, toOwner(o))
		}
	}
	return report, nil
}

// GetBalances returns real-time balances for every linked account.
func (c *Client) GetBalances(ctx context.Context, accessToken string) ([]domain.Account, error) {
	var resp struct {
		Accounts []plaidAccount `json:"accounts"`
	}
	if err := c.post(ctx, "/accounts/balance/get", map[string]interface{}{"access_token": accessToken}, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		out = append(out, toAccount(a))
	}
	return out, nil
}

// GetTransactions pages through every transaction between start and end.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for offset := 0; ; {
		req := map[string]interface{}{
			"access_token": accessToken,
			"start_date":   start.Format("2006-01-02"),
			"end_date":     end.Format("2006-01-02"),
			"options":      map[string]int{"count": transactionsPageSize, "offset": offset},
		}
		var resp struct {
			Transactions      []plaidTransaction `json:"transactions"`
			TotalTransactions int                `json:"total_transactions"`
		}
		if err := c.post(ctx, "/transactions/get", req, &resp); err != nil {
			return nil, err
		}

		for _, t := range resp.Transactions {
			date, err := time.Parse("2006-01-02", t.Date)
			if err != nil {
				c.logger.Warn("skipping transaction with bad date",
					slog.String("transaction_id", t.TransactionID),
					slog.String("date", t.Date),
				)
				continue
			}
			out = append(out, domain.Transaction{
				ID:         t.TransactionID,
				AccountID:  t.AccountID,
				Amount:     t.Amount,
				Date:       date,
				Name:       t.Name,
				Categories: t.Category,
			})
		}

		offset += len(resp.Transactions)
		if len(resp.Transactions) == 0 || offset >= resp.TotalTransactions {
			return out, nil
		}
	}
}

// post sends payload with the client credentials added to the body.
func (c *Client) post(ctx context.Context, path string, payload map[string]interface{}, out interface{}) error {
	payload["client_id"] = c.clientID
	payload["secret"] = c.secret
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("plaid API request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.ErrorCode == "" {
			apiErr.ErrorMessage = string(raw)
		}
		c.logger.Warn("plaid request failed",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
			slog.String("error_code", apiErr.ErrorCode),
		)
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func toAccount(a plaidAccount) domain.Account {
	acc := domain.Account{
		ID:      a.AccountID,
		Name:    a.Name,
		Mask:    a.Mask,
		Type:    a.Type,
		Subtype: a.Subtype,
	}
	if a.Balances.Available != nil {
		acc.AvailableBalance = *a.Balances.Available
	}
	if a.Balances.Current != nil {
		acc.CurrentBalance = *a.Balances.Current
	}
	return acc
}

func toOwner(o plaidOwner) domain.AccountOwner {
	owner := domain.AccountOwner{Names: o.Names}
	for _, e := range o.Emails {
		owner.Emails = append(owner.Emails, e.Data)
	}
	for _, p := range o.PhoneNumbers {
		owner.Phones = append(owner.Phones, p.Data)
	}
	for _, a := range o.Addresses {
		owner.Addresses = append(owner.Addresses, domain.OwnerAddress{
			Street:     a.Data.Street,
			City:       a.Data.City,
			Region:     a.Data.Region,
			PostalCode: a.Data.PostalCode,
			Country:    a.Data.Country,
			Primary:    a.Primary,
		})
	}
	return owner
}
