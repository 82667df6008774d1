package api

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

	"github.com/claude/trainlog/internal/models"
)

// Client calls the fitness-social REST API. A bearer token is attached
// uniformly to every request; its acquisition happens elsewhere.
//
// The client deliberately sets no request timeout: mutations in this
// subsystem are fire-and-wait, and a slow request only delays release of the
// caller's in-flight flag.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a Client targeting the given base URL.
func New(baseURL, token string) *Client {
	return NewWithClient(baseURL, token, &http.Client{})
}

// NewWithClient creates a Client using a caller-supplied http.Client,
// e.g. a tsnet client for reaching a tailnet-only backend.
func NewWithClient(baseURL, token string, hc *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: hc,
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("api: marshal %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// --- Session lifecycle ---

// ListSessions returns shallow session summaries, most recent first.
func (c *Client) ListSessions(ctx context.Context, userID string) ([]models.SessionSummary, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/status", nil, nil)
	if err != nil {
		return nil, err
	}

	var summaries []models.SessionSummary
	if err := json.Unmarshal(body, &summaries); err != nil {
		return nil, fmt.Errorf("api: decode session list: %w", err)
	}
	return summaries, nil
}

// GetSession fetches the hydrated detail for one session.
func (c *Client) GetSession(ctx context.Context, userID, sessionID string) (*models.TrainingSession, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/status/"+sessionID, nil, nil)
	if err != nil {
		return nil, err
	}

	var session models.TrainingSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("api: decode session detail: %w", err)
	}
	return &session, nil
}

// StartSession creates a new active session and returns its server-assigned id.
func (c *Client) StartSession(ctx context.Context, userID string, req models.StartRequest) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/users/"+userID+"/status", nil, req)
	if err != nil {
		return "", err
	}

	var resp struct {
		PubID string `json:"pub_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("api: decode start response: %w", err)
	}
	return resp.PubID, nil
}

// FinishSession marks a session finished, attaching entries and partners.
func (c *Client) FinishSession(ctx context.Context, userID, sessionID string, req models.FinishRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/users/"+userID+"/status/"+sessionID+"/finish", nil, req)
	return err
}

// EditSession replaces the editable fields of a session wholesale.
func (c *Client) EditSession(ctx context.Context, userID, sessionID string, req models.EditRequest) error {
	_, err := c.do(ctx, http.MethodPatch, "/users/"+userID+"/status/"+sessionID, nil, req)
	return err
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, userID, sessionID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+userID+"/status/"+sessionID, nil, nil)
	return err
}

// --- Menu catalogs ---

// ListMenus returns the user's strength menu catalog.
func (c *Client) ListMenus(ctx context.Context, userID string) ([]models.MenuDefinition, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/menus", nil, nil)
	if err != nil {
		return nil, err
	}

	var menus []models.MenuDefinition
	if err := json.Unmarshal(body, &menus); err != nil {
		return nil, fmt.Errorf("api: decode menus: %w", err)
	}
	return menus, nil
}

// ListCardioMenus returns the user's cardio menu catalog.
func (c *Client) ListCardioMenus(ctx context.Context, userID string) ([]models.CardioMenuDefinition, error) {
	body, err := c.do(ctx, http.MethodGet, "/users/"+userID+"/menus_cardio", nil, nil)
	if err != nil {
		return nil, err
	}

	var menus []models.CardioMenuDefinition
	if err := json.Unmarshal(body, &menus); err != nil {
		return nil, fmt.Errorf("api: decode cardio menus: %w", err)
	}
	return menus, nil
}

// CreateMenu adds a strength menu.
func (c *Client) CreateMenu(ctx context.Context, userID string, req models.CreateMenuRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/users/"+userID+"/menus", nil, req)
	return err
}

// CreateCardioMenu adds a cardio menu.
func (c *Client) CreateCardioMenu(ctx context.Context, userID string, req models.CreateMenuRequest) error {
	_, err := c.do(ctx, http.MethodPost, "/users/"+userID+"/menus_cardio", nil, req)
	return err
}

// RenameMenu renames a strength menu.
func (c *Client) RenameMenu(ctx context.Context, userID, menuID, name string) error {
	_, err := c.do(ctx, http.MethodPatch, "/users/"+userID+"/menus/"+menuID, nil, models.RenameMenuRequest{Name: name})
	return err
}

// RenameCardioMenu renames a cardio menu.
func (c *Client) RenameCardioMenu(ctx context.Context, userID, menuID, name string) error {
	_, err := c.do(ctx, http.MethodPatch, "/users/"+userID+"/menus_cardio/"+menuID, nil, models.RenameMenuRequest{Name: name})
	return err
}

// DeleteMenu removes a strength menu.
func (c *Client) DeleteMenu(ctx context.Context, userID, menuID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+userID+"/menus/"+menuID, nil, nil)
	return err
}

// DeleteCardioMenu removes a cardio menu.
func (c *Client) DeleteCardioMenu(ctx context.Context, userID, menuID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+userID+"/menus_cardio/"+menuID, nil, nil)
	return err
}

// Bodyparts returns the id→name map of body-part groupings.
func (c *Client) Bodyparts(ctx context.Context) (map[string]string, error) {
	body, err := c.do(ctx, http.MethodGet, "/bodyparts", nil, nil)
	if err != nil {
		return nil, err
	}

	parts := map[string]string{}
	if err := json.Unmarshal(body, &parts); err != nil {
		return nil, fmt.Errorf("api: decode bodyparts: %w", err)
	}
	return parts, nil
}

// --- Partner search ---

// SearchUsers looks up users whose handle contains the fragment.
func (c *Client) SearchUsers(ctx context.Context, fragment string, limit int) ([]models.Partner, error) {
	params := url.Values{}
	params.Set("handle_id", fragment)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.do(ctx, http.MethodGet, "/users", params, nil)
	if err != nil {
		return nil, err
	}

	var users []models.Partner
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("api: decode user search: %w", err)
	}
	return users, nil
}
