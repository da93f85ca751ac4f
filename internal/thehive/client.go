package thehive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

const maxErrorBody = 4096

// Observable is a case artifact as returned by TheHive.
type Observable struct {
	ID       string `json:"_id"`
	DataType string `json:"dataType"`
	Data     string `json:"data"`
	IOC      bool   `json:"ioc"`
}

// StatusError is returned when TheHive answers with an unexpected status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d/%s", e.StatusCode, e.Body)
}

// Client talks to TheHive's HTTP API with an API key.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{},
	}
}

// Health checks that TheHive is reachable and answering.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/status", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CaseObservables lists the observables of a case, narrowed by q when it
// is non-empty. Any status other than 200 yields a *StatusError.
func (c *Client) CaseObservables(ctx context.Context, caseID string, q Query) ([]Observable, error) {
	if caseID == "" {
		return nil, errors.New("case id is required")
	}
	body := map[string]any{"query": And(ParentCase(caseID), q)}
	resp, err := c.do(ctx, http.MethodPost, "/api/case/artifact/_search?range=all", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	var observables []Observable
	if err := json.NewDecoder(resp.Body).Decode(&observables); err != nil {
		return nil, errors.Wrap(err, "decode observables")
	}
	return observables, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	return resp, nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
