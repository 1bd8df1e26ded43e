package domain

import (
	"context"
	"io"
	"time"
)

// Transaction is a single bank transaction reported by the aggregator.
// Amounts follow the aggregator convention: negative values are deposits.
type Transaction struct {
	ID         string    `json:"transactionId"`
	AccountID  string    `json:"accountId"`
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
	Name       string    `json:"name"`
	Categories []string  `json:"category"`
}

// Account is a bank account with balances.
type Account struct {
	ID               string  `json:"accountId"`
	Name             string  `json:"name"`
	Mask             string  `json:"mask"`
	Type             string  `json:"type"`
	Subtype          string  `json:"subtype"`
	AvailableBalance float64 `json:"availableBalance"`
	CurrentBalance   float64 `json:"currentBalance"`
}

// Summary converts an account into its stored form.
func (a Account) Summary() LinkedAccount {
	return LinkedAccount{
		AccountID:        a.ID,
		Name:             a.Name,
		Mask:             a.Mask,
		Type:             a.Type,
		Subtype:          a.Subtype,
		AvailableBalance: a.AvailableBalance,
		CurrentBalance:   a.CurrentBalance,
	}
}

// AccountOwner is the identity the bank holds for an account holder.
type AccountOwner struct {
	Names     []string       `json:"names"`
	Emails    []string       `json:"emails"`
	Phones    []string       `json:"phoneNumbers"`
	Addresses []OwnerAddress `json:"addresses"`
}

// OwnerAddress is a bank-reported postal address.
type OwnerAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Primary    bool   `json:"primary"`
}

// IdentityReport is the aggregator's identity payload.
type IdentityReport struct {
	Accounts []Account      `json:"accounts"`
	Owners   []AccountOwner `json:"owners"`
}

// FinancialDataProvider is the third-party aggregator used for verification.
type FinancialDataProvider interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	GetIdentity(ctx context.Context, accessToken string) (*IdentityReport, error)
	GetBalances(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]Transaction, error)
}

// AuthSession is what the auth provider returns on signup/login.
type AuthSession struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
}

// AuthUser is the identity behind an access token.
type AuthUser struct {
	ID    string
	Email string
}

// AuthProvider is the external identity service.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, role Role) (*AuthSession, error)
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SendPasswordReset(ctx context.Context, email string) error
	GetUser(ctx context.Context, accessToken string) (*AuthUser, error)
}

// FileStorage is the external object store.
type FileStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, bucket, path string) error
	SignedURL(ctx context.Context, bucket, path string, expiresIn time.Duration) (string, error)
}

// EmailMessage is a transactional email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
