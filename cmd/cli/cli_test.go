package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rentmatch/internal/domain"
)

const fixtureJSON = `{
  "name": "Sam Lee",
  "email": "sam@example.com",
  "phone": "5125550100",
  "address": "9 Elm St, Austin, TX 78702",
  "accounts": [
    {"accountId": "a1", "type": "depository", "subtype": "checking", "availableBalance": 9000, "currentBalance": 9000},
    {"accountId": "a2", "type": "depository", "subtype": "savings", "availableBalance": 6000, "currentBalance": 6000}
  ],
  "transactions": [
    {"transactionId": "t1", "amount": -2500, "date": "2026-09-30T00:00:00Z", "category": ["Payroll"]},
    {"transactionId": "t2", "amount": -2500, "date": "2026-09-16T00:00:00Z", "category": ["Payroll"]},
    {"transactionId": "t3", "amount": -2500, "date": "2026-09-02T00:00:00Z", "category": ["Payroll"]},
    {"transactionId": "t4", "amount": 120, "date": "2026-09-05T00:00:00Z", "category": ["Utilities"]}
  ]
}`

func TestReadFixture(t *testing.T) {
	f, err := readFixture(strings.NewReader(fixtureJSON))
	require.NoError(t, err)
	assert.Equal(t, "Sam Lee", f.applicant().Name)
	assert.Len(t, f.Accounts, 2)
	assert.Len(t, f.Transactions, 4)

	_, err = readFixture(strings.NewReader(`{"name":"x","ssn":"123"}`))
	assert.Error(t, err)
}

func TestScoreCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(fixtureJSON))
	cmd.SetArgs([]string{"score", "--rent", "2000", "--at", "2026-10-01T00:00:00Z"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "SCORE")
	assert.Contains(t, out.String(), "monthly")
	assert.Contains(t, out.String(), "RECOMMENDATION")
}

func TestScoreCommandRequiresRent(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(fixtureJSON))
	cmd.SetArgs([]string{"score"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--rent")
}

func TestWriteSubscribersCSV(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	subs := []domain.NewsletterSubscriber{
		{ID: "s1", Name: "Pat, Jr.", Email: "pat@example.com", SubscribedAt: at},
	}

	var buf bytes.Buffer
	require.NoError(t, writeSubscribersCSV(&buf, subs))
	assert.Equal(t,
		"id,name,email,subscribed_at\ns1,\"Pat, Jr.\",pat@example.com,2026-10-01T12:00:00Z\n",
		buf.String(),
	)
}
