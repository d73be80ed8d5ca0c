package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/rental-contracts/internal/billing"
	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
)

func TestApplyTemplateRequest(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody model.ApplyTemplateRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"invoice":{"_id":"inv-5"}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/v1/", StaticToken("tok"))
	req := model.ApplyTemplateRequest{ContractID: "c-1", Month: 3, Year: 2025, DueDate: "2025-04-10"}
	resp, err := c.ApplyTemplate(context.Background(), "tpl 1", req)
	require.NoError(t, err)

	assert.Equal(t, "/v1/invoice-templates/tpl 1/apply", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, req, gotBody)
	assert.Equal(t, "inv-5", resp.InvoiceID())
}

func TestErrorBodies(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   APIError
	}{
		{409, `{"success":false,"message":"exists","code":"INVOICE_EXISTS"}`, APIError{Status: 409, Message: "exists", Code: model.CodeInvoiceExists}},
		{401, `{"error":"missing token"}`, APIError{Status: 401, Message: "missing token"}},
		{502, `<html>bad gateway</html>`, APIError{Status: 502}},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		_, err := New(srv.URL, nil).CreateInvoice(context.Background(), model.CreateInvoiceRequest{ContractID: "c"})
		srv.Close()

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr), "status %d", tc.status)
		assert.Equal(t, tc.want, *apiErr)
	}
}

func TestDuplicateEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invoice already exists","code":"INVOICE_EXISTS"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).ApplyTemplate(context.Background(), "t", model.ApplyTemplateRequest{ContractID: "c", Month: 3, Year: 2025})
	out := Classify(resp, err, billing.Period{Month: 3, Year: 2025})
	assert.Equal(t, CategoryDuplicate, out.Category)
	assert.Contains(t, out.Message, "3/2025")
}

func TestListContractsQuery(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"items":[{"_id":"a","status":"active"}],"page":2,"limit":5,"total":6}`))
	}))
	defer srv.Close()

	page, err := New(srv.URL, StaticToken("")).ListContracts(context.Background(), 2, 5, contract.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, "limit=5&page=2&status=active", query)
	require.Len(t, page.Items, 1)
	assert.Equal(t, contract.StatusActive, page.Items[0].Status)
	assert.Equal(t, 6, page.Total)
}
