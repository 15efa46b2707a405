package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gw-price-converter/internal/models"
)

func TestClient_Convert(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/currency/convert", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"success": true,
			"original": {"amount": 100, "currency": "USD", "formattedAmount": "$100"},
			"conversions": [{"amount": 7976, "currency": "RUB", "formattedAmount": "7 976 ₽", "rate": 79.76}],
			"timestamp": 1700000000000,
			"cached": false,
			"source": "primary"
		}`)
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second)
	resp, err := c.Convert(context.Background(), 100, "USD", []string{"RUB", "AMD"})
	require.NoError(t, err)

	assert.Equal(t, "amount=100&from=USD&to=RUB%2CAMD", gotQuery)
	assert.True(t, resp.Success)
	assert.Equal(t, models.SourcePrimary, resp.Source)
	require.Len(t, resp.Conversions, 1)
	assert.Equal(t, 79.76, *resp.Conversions[0].Rate)
	assert.Equal(t, int64(1700000000000), resp.Timestamp)
}

func TestClient_Convert_APIError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error body", http.StatusBadRequest, `{"error":"amount must be greater than zero"}`, "amount must be greater than zero"},
		{"plain body", http.StatusBadGateway, `upstream down`, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := New(srv.URL, time.Second).Convert(context.Background(), -5, "USD", nil)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestClient_Convert_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":`)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).Convert(context.Background(), 1, "USD", nil)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "client.Convert")
}

func TestClient_Convert_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url, time.Second).Convert(context.Background(), 1, "USD", nil)
	assert.Error(t, err)
}
