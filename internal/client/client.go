// Package client is the consumer side of the rental API: a JSON HTTP client,
// the classifier that turns invoice-template outcomes into user-facing
// messages, and the submission flows used by the CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/iliyamo/rental-contracts/internal/contract"
	"github.com/iliyamo/rental-contracts/internal/model"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed bearer token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// APIError is a non-2xx response.  Message is the server's text and is not
// meant for display in every case; see Classify.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d", e.Status)
}

// Client talks to the rental API.  It has no request timeout of its own;
// callers bound requests through the context.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a client for baseURL (for example "https://api.example.com/v1").
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ApplyTemplate creates an invoice for a contract from a saved template.
func (c *Client) ApplyTemplate(ctx context.Context, templateID string, req model.ApplyTemplateRequest) (*model.APIResponse, error) {
	var resp model.APIResponse
	path := "/invoice-templates/" + url.PathEscape(templateID) + "/apply"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateInvoice creates an invoice without a template.
func (c *Client) CreateInvoice(ctx context.Context, req model.CreateInvoiceRequest) (*model.APIResponse, error) {
	var resp model.APIResponse
	if err := c.do(ctx, http.MethodPost, "/invoices", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateContract creates a draft contract.
func (c *Client) CreateContract(ctx context.Context, req model.CreateContractRequest) (*model.Contract, error) {
	var out model.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContract fetches full contract detail.
func (c *Client) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	var out model.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListContracts fetches one page of contracts, optionally filtered by status.
func (c *Client) ListContracts(ctx context.Context, page, limit int, status contract.Status) (*model.ContractPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if status != "" {
		q.Set("status", string(status))
	}
	var out model.ContractPage
	if err := c.do(ctx, http.MethodGet, "/contracts?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContract patches rules, additional terms and services.
func (c *Client) UpdateContract(ctx context.Context, id string, req model.UpdateContractRequest) (*model.Contract, error) {
	var out model.Contract
	if err := c.do(ctx, http.MethodPatch, "/contracts/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateContractPDF asks the server to render a draft contract's PDF.
func (c *Client) GenerateContractPDF(ctx context.Context, id string) (string, error) {
	var out model.PDFResponse
	if err := c.do(ctx, http.MethodPost, "/contracts/"+url.PathEscape(id)+"/pdf", nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// AddSignedImages attaches uploaded scans of the signed contract.
func (c *Client) AddSignedImages(ctx context.Context, id string, urls []string) (*model.Contract, error) {
	var out model.Contract
	body := model.ImagesRequest{URLs: urls}
	if err := c.do(ctx, http.MethodPost, "/contracts/"+url.PathEscape(id)+"/images", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		bs, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode >= 400 {
		return decodeError(res.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError accepts both the invoice envelope ({message, code}) and the
// plain {error} bodies returned by middleware.
func decodeError(status int, raw []byte) *APIError {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &env); err == nil {
		apiErr.Message = env.Message
		if apiErr.Message == "" {
			apiErr.Message = env.Error
		}
		apiErr.Code = env.Code
	}
	return apiErr
}
