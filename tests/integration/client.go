package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"stagepass/internal/models"
)

// TestClient provides methods for testing the API
type TestClient struct {
	BaseURL    string
	HTTPClient *http.Client
	username   string
	password   string
}

// NewTestClient creates a new test client
func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithCredentials returns a copy of the client that authenticates requests
func (c *TestClient) WithCredentials(username, password string) *TestClient {
	copied := *c
	copied.username = username
	copied.password = password
	return &copied
}

// makeRequest makes an HTTP request and returns the response
func (c *TestClient) makeRequest(t *testing.T, method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reqBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// HealthCheck verifies the API is up
func (c *TestClient) HealthCheck(t *testing.T) {
	resp := c.makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
}

// ListEvents lists the published storefront catalog
func (c *TestClient) ListEvents(t *testing.T) []models.ListEventsResponseItem {
	resp := c.makeRequest(t, "GET", "/api/events", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var events []models.ListEventsResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		t.Fatalf("Failed to decode events response: %v", err)
	}

	return events
}

// GetEvent fetches one event's detail page data
func (c *TestClient) GetEvent(t *testing.T, eventID int64) *models.Event {
	resp := c.makeRequest(t, "GET", eventPath(eventID), nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var event models.Event
	if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
		t.Fatalf("Failed to decode event response: %v", err)
	}

	return &event
}

// Purchase buys tickets and returns the order ID
func (c *TestClient) Purchase(t *testing.T, eventID int64, qty int) *models.CreatePurchaseResponse {
	req := models.CreatePurchaseRequest{
		EventID: eventID,
		Qty:     qty,
	}

	resp := c.makeRequest(t, "POST", "/api/orders", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var purchase models.CreatePurchaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&purchase); err != nil {
		t.Fatalf("Failed to decode purchase response: %v", err)
	}

	return &purchase
}

// PurchaseExpectingStatus attempts a purchase and returns the raw response
// body for a specific expected status
func (c *TestClient) PurchaseExpectingStatus(t *testing.T, eventID int64, qty int, wantStatus int) []byte {
	req := models.CreatePurchaseRequest{
		EventID: eventID,
		Qty:     qty,
	}

	resp := c.makeRequest(t, "POST", "/api/orders", req)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("Expected status %d, got %d. Body: %s", wantStatus, resp.StatusCode, string(body))
	}

	return body
}

// ListOrders lists the authenticated user's orders
func (c *TestClient) ListOrders(t *testing.T) []models.ListOrdersResponseItem {
	resp := c.makeRequest(t, "GET", "/api/orders", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var orders []models.ListOrdersResponseItem
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		t.Fatalf("Failed to decode orders response: %v", err)
	}

	return orders
}

// GetTicket fetches a single order's receipt view
func (c *TestClient) GetTicket(t *testing.T, orderID string) *models.TicketResponse {
	resp := c.makeRequest(t, "GET", "/api/orders/"+orderID, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var ticket models.TicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		t.Fatalf("Failed to decode ticket response: %v", err)
	}

	return &ticket
}

// CreateEvent creates an event through the admin API
func (c *TestClient) CreateEvent(t *testing.T, req models.CreateEventRequest) *models.CreateEventResponse {
	resp := c.makeRequest(t, "POST", "/api/admin/events", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var created models.CreateEventResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode create event response: %v", err)
	}

	return &created
}

// CreateUser registers a user through the admin API
func (c *TestClient) CreateUser(t *testing.T, req models.CreateUserRequest) *models.CreateUserResponse {
	resp := c.makeRequest(t, "POST", "/api/admin/users", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("Expected status 201, got %d. Body: %s", resp.StatusCode, string(body))
	}

	var created models.CreateUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("Failed to decode create user response: %v", err)
	}

	return &created
}

// GetStats reads the admin dashboard aggregates
func (c *TestClient) GetStats(t *testing.T) *models.StatsResponse {
	resp := c.makeRequest(t, "GET", "/api/admin/stats", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var stats models.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats response: %v", err)
	}

	return &stats
}
