package integration

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"stagepass/internal/models"
)

const DefaultBaseURL = "http://localhost:8080"

// requireStack skips the test unless a live API is configured. Set
// STAGEPASS_API_URL to run the suite against a running deployment.
func requireStack(t *testing.T) *TestClient {
	baseURL := os.Getenv("STAGEPASS_API_URL")
	if baseURL == "" {
		t.Skip("STAGEPASS_API_URL is not set; skipping integration tests")
	}
	return NewTestClient(baseURL)
}

// adminClient returns a client authenticated with the seeded admin account
func adminClient(t *testing.T, client *TestClient) *TestClient {
	username := os.Getenv("STAGEPASS_ADMIN_EMAIL")
	password := os.Getenv("STAGEPASS_ADMIN_PASSWORD")
	if username == "" || password == "" {
		t.Skip("STAGEPASS_ADMIN_EMAIL / STAGEPASS_ADMIN_PASSWORD are not set")
	}
	return client.WithCredentials(username, password)
}

func eventPath(eventID int64) string {
	return fmt.Sprintf("/api/events/%d", eventID)
}

// onSaleEventRequest builds an event whose sale window is open right now
func onSaleEventRequest(price int64, qty int) models.CreateEventRequest {
	title := "Integration Test Concert " + uuid.New().String()[:8]
	return models.CreateEventRequest{
		Title:     title,
		Location:  "Test Arena",
		StartAt:   time.Now().Add(24 * time.Hour),
		EndAt:     time.Now().Add(28 * time.Hour),
		Price:     price,
		Qty:       qty,
		Published: true,
	}
}

// uniqueEmail generates a throwaway address for user registration tests
func uniqueEmail() string {
	return fmt.Sprintf("it-%s@example.com", uuid.New().String()[:8])
}

// AssertEventExists checks if an event exists in the list
func AssertEventExists(t *testing.T, events []models.ListEventsResponseItem, eventID int64) {
	for _, event := range events {
		if event.ID == eventID {
			return
		}
	}
	t.Fatalf("Event with ID %d not found in events list, %+v", eventID, events)
}

// LogTestStep logs a test step
func LogTestStep(t *testing.T, step string, args ...interface{}) {
	t.Logf("🔹 "+step, args...)
}

// LogTestResult logs a test result
func LogTestResult(t *testing.T, result string, args ...interface{}) {
	t.Logf("✅ "+result, args...)
}
