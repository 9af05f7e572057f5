// Package client is the Go consumer of the StaffSync API. It owns the
// session cache and the session-restoration logic; cached snapshots are
// display hints only, every authorization decision comes from the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"staffsync/models"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Err: err}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrAuthExpired
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return &ConflictError{Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &APIError{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
}

// ─── Auth ───────────────────────────────────────────────────────────────

type AuthResponse struct {
	User        *models.User        `json:"user"`
	Token       string              `json:"token"`
	Company     *models.Company     `json:"company,omitempty"`
	JoinRequest *models.JoinRequest `json:"joinRequest,omitempty"`
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", map[string]string{
		"name": name, "email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	c.token = out.Token
	return &out, nil
}

// ─── Company ────────────────────────────────────────────────────────────

type CompanyResponse struct {
	Company *models.Company `json:"company"`
}

func (c *Client) CreateCompany(ctx context.Context, name string, hourlyRate float64) (*CompanyResponse, error) {
	var out CompanyResponse
	err := c.do(ctx, http.MethodPost, "/api/companies/create", map[string]interface{}{
		"name": name, "hourlyRate": hourlyRate,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSettings(ctx context.Context, name string, hourlyRate float64) (*CompanyResponse, error) {
	var out CompanyResponse
	err := c.do(ctx, http.MethodPut, "/api/companies/settings", map[string]interface{}{
		"name": name, "hourlyRate": hourlyRate,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Join requests ──────────────────────────────────────────────────────

type JoinResponse struct {
	CompanyName string `json:"companyName"`
}

func (c *Client) JoinCompany(ctx context.Context, code string) (*JoinResponse, error) {
	var out JoinResponse
	err := c.do(ctx, http.MethodPost, "/api/requests/join", map[string]string{"code": code}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type RequestListResponse struct {
	Requests []models.JoinRequest `json:"requests"`
}

func (c *Client) ListRequests(ctx context.Context) (*RequestListResponse, error) {
	var out RequestListResponse
	if err := c.do(ctx, http.MethodGet, "/api/requests/list", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RespondRequest(ctx context.Context, requestID uint, action string) error {
	return c.do(ctx, http.MethodPost, "/api/requests/respond", map[string]interface{}{
		"requestId": requestID, "action": action,
	}, nil)
}

type JoinStatusResponse struct {
	Status models.MembershipStatus `json:"status"`
}

func (c *Client) CheckRequestStatus(ctx context.Context) (*JoinStatusResponse, error) {
	var out JoinStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/requests/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Clock ──────────────────────────────────────────────────────────────

type ClockInResponse struct {
	Entry *models.ClockEntry `json:"entry"`
}

func (c *Client) ClockIn(ctx context.Context) (*ClockInResponse, error) {
	var out ClockInResponse
	if err := c.do(ctx, http.MethodPost, "/api/clock/in", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClockOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/clock/out", struct{}{}, nil)
}

type ClockStatusResponse struct {
	User         *models.User        `json:"user"`
	Company      *models.Company     `json:"company,omitempty"`
	Active       *models.ClockEntry  `json:"active,omitempty"`
	TodayEntries []models.ClockEntry `json:"todayEntries"`
}

func (c *Client) ClockStatus(ctx context.Context) (*ClockStatusResponse, error) {
	var out ClockStatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/clock/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh revalidates the credential and returns the authoritative state;
// callers poll it instead of re-authenticating.
func (c *Client) Refresh(ctx context.Context) (*ClockStatusResponse, error) {
	return c.ClockStatus(ctx)
}

// ─── Hours / staff / salary ─────────────────────────────────────────────

type BucketTotals struct {
	Ms       int64   `json:"ms"`
	Earnings float64 `json:"earnings"`
}

type HoursResponse struct {
	Today      BucketTotals        `json:"today"`
	Week       BucketTotals        `json:"week"`
	Month      BucketTotals        `json:"month"`
	HourlyRate float64             `json:"hourlyRate"`
	History    []models.ClockEntry `json:"history"`
}

func (c *Client) Hours(ctx context.Context) (*HoursResponse, error) {
	var out HoursResponse
	if err := c.do(ctx, http.MethodGet, "/api/staff/hours", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type StaffMember struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	ClockedIn bool   `json:"clockedIn"`
}

type StaffListResponse struct {
	Staff []StaffMember `json:"staff"`
}

func (c *Client) StaffList(ctx context.Context) (*StaffListResponse, error) {
	var out StaffListResponse
	if err := c.do(ctx, http.MethodGet, "/api/staff/list", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SalaryRow struct {
	Name     string  `json:"name"`
	HoursMs  int64   `json:"hoursMs"`
	Earnings float64 `json:"earnings"`
}

type SalaryReportResponse struct {
	Report        []SalaryRow `json:"report"`
	HourlyRate    float64     `json:"hourlyRate"`
	TotalEarnings float64     `json:"totalEarnings"`
}

func (c *Client) SalaryReport(ctx context.Context, period string) (*SalaryReportResponse, error) {
	path := "/api/salary/report"
	if period != "" {
		path += "?period=" + url.QueryEscape(period)
	}
	var out SalaryReportResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
