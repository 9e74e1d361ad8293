package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"microteca/internal/auth"
)

// apiClient talks to the api-server and doubles as the session's
// authentication provider.
type apiClient struct {
	BaseURL string
	HTTP    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{BaseURL: baseURL, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (a *apiClient) Authenticate(ctx context.Context, email, password string) (auth.Grant, error) {
	var resp struct {
		Token     string    `json:"token"`
		User      auth.User `json:"user"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	payload := map[string]string{"email": email, "password": password}
	err := a.doJSON(ctx, http.MethodPost, "/auth/login", "", payload, &resp)

	var ae *apiError
	if errors.As(err, &ae) {
		switch ae.Status {
		case http.StatusUnauthorized:
			return auth.Grant{}, auth.ErrInvalidCredentials
		case http.StatusBadRequest:
			return auth.Grant{}, auth.ErrCredentialsRequired
		}
	}
	if err != nil {
		return auth.Grant{}, err
	}
	return auth.Grant{Token: resp.Token, User: resp.User, ExpiresAt: resp.ExpiresAt}, nil
}

func (a *apiClient) RequestReset(ctx context.Context, email string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/auth/reset-password", "", map[string]string{"email": email}, &resp)

	var ae *apiError
	if errors.As(err, &ae) {
		switch ae.Status {
		case http.StatusBadRequest:
			return "", auth.ErrEmailRequired
		case http.StatusNotFound:
			return "", auth.ErrUnknownEmail
		}
	}
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (a *apiClient) doJSON(ctx context.Context, method, path, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.do(req, token, func(r io.Reader) error {
		if out == nil {
			return nil
		}
		return json.NewDecoder(r).Decode(out)
	})
}

// doRaw sends body as-is and hands the response body to read.
func (a *apiClient) doRaw(ctx context.Context, method, path, token, contentType string, body io.Reader, read func(io.Reader, http.Header) error) error {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	var hdr http.Header
	return a.doWithHeader(req, token, &hdr, func(r io.Reader) error { return read(r, hdr) })
}

func (a *apiClient) do(req *http.Request, token string, read func(io.Reader) error) error {
	var hdr http.Header
	return a.doWithHeader(req, token, &hdr, read)
}

func (a *apiClient) doWithHeader(req *http.Request, token string, hdr *http.Header, read func(io.Reader) error) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	*hdr = resp.Header

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(b, &e) != nil || e.Error == "" {
			e.Error = string(b)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	return read(resp.Body)
}

func withQuery(path string, params map[string]string) string {
	qv := url.Values{}
	for k, v := range params {
		if v != "" {
			qv.Set(k, v)
		}
	}
	if len(qv) == 0 {
		return path
	}
	return path + "?" + qv.Encode()
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}
