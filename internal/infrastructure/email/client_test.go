package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/rentmatch/internal/domain"
)

func TestSend(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key-1", "RentMatch <hello@example.com>", nil)
	err := c.Send(context.Background(), domain.EmailMessage{To: "a@example.com", Subject: "Welcome", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com"}, got.To)
	assert.Equal(t, "RentMatch <hello@example.com>", got.From)
}

func TestSendErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "key-1", "x@example.com", nil).Send(context.Background(), domain.EmailMessage{To: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	err = NewClient(srv.URL, "", "x@example.com", nil).Send(context.Background(), domain.EmailMessage{To: "a@example.com"})
	assert.Error(t, err)
}
