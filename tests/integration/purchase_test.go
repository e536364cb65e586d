package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"stagepass/internal/models"
)

// TestAPI_HealthCheck tests the API health endpoint
func TestAPI_HealthCheck(t *testing.T) {
	client := requireStack(t)

	LogTestStep(t, "Testing API health check")
	client.HealthCheck(t)
	LogTestResult(t, "API is healthy and responding")
}

// TestAPI_ListEvents tests the storefront catalog
func TestAPI_ListEvents(t *testing.T) {
	client := requireStack(t)
	admin := adminClient(t, client)

	LogTestStep(t, "Creating a published event")
	created := admin.CreateEvent(t, onSaleEventRequest(50000, 100))

	LogTestStep(t, "Listing storefront events")
	events := client.ListEvents(t)
	AssertEventExists(t, events, created.ID)

	LogTestResult(t, "Found %d events in the system", len(events))
}

// TestAPI_PurchaseFullFlow walks the whole storefront purchase path:
// catalog, detail page, purchase, ticket list, receipt.
func TestAPI_PurchaseFullFlow(t *testing.T) {
	client := requireStack(t)
	admin := adminClient(t, client)

	LogTestStep(t, "Creating event and buyer")
	created := admin.CreateEvent(t, onSaleEventRequest(100000, 5))

	email := uniqueEmail()
	password := "integration-pass-1"
	admin.CreateUser(t, models.CreateUserRequest{
		Email:    email,
		Password: password,
		FullName: "Integration Buyer",
	})
	buyer := client.WithCredentials(email, password)

	LogTestStep(t, "Checking event detail page")
	event := buyer.GetEvent(t, created.ID)
	if event.Qty != 5 {
		t.Fatalf("Expected 5 tickets remaining, got %d", event.Qty)
	}

	LogTestStep(t, "Purchasing 3 tickets")
	purchase := buyer.Purchase(t, created.ID, 3)

	LogTestStep(t, "Verifying inventory decrement")
	event = buyer.GetEvent(t, created.ID)
	if event.Qty != 2 {
		t.Fatalf("Expected 2 tickets remaining after purchase, got %d", event.Qty)
	}

	LogTestStep(t, "Verifying the order in the buyer's ticket list")
	orders := buyer.ListOrders(t)
	found := false
	for _, order := range orders {
		if order.ID == purchase.OrderID {
			found = true
			if order.TotalPrice != 300000 {
				t.Fatalf("Expected total 300000, got %d", order.TotalPrice)
			}
			if order.Status != models.OrderStatusSuccess {
				t.Fatalf("Expected success status, got %s", order.Status)
			}
		}
	}
	if !found {
		t.Fatalf("Order %s not found in buyer's list", purchase.OrderID)
	}

	LogTestStep(t, "Fetching the receipt")
	ticket := buyer.GetTicket(t, purchase.OrderID)
	if ticket.QRPayload == "" {
		t.Fatal("Expected a QR payload on the ticket")
	}

	LogTestResult(t, "Full purchase flow completed for order %s", purchase.OrderID)
}

// TestAPI_PurchaseUnauthenticated verifies the login redirect contract
func TestAPI_PurchaseUnauthenticated(t *testing.T) {
	client := requireStack(t)
	admin := adminClient(t, client)

	created := admin.CreateEvent(t, onSaleEventRequest(50000, 10))

	LogTestStep(t, "Attempting a purchase without credentials")
	body := client.PurchaseExpectingStatus(t, created.ID, 1, http.StatusUnauthorized)

	var redirect models.LoginRedirectResponse
	if err := json.Unmarshal(body, &redirect); err != nil {
		t.Fatalf("Failed to decode login redirect: %v", err)
	}
	if redirect.LoginURL == "" {
		t.Fatal("Expected a login URL in the 401 response")
	}
	if redirect.ReturnTo != fmt.Sprintf("/events/%d", created.ID) {
		t.Fatalf("Expected return path /events/%d, got %s", created.ID, redirect.ReturnTo)
	}

	LogTestResult(t, "Unauthenticated purchase redirected to %s", redirect.LoginURL)
}

// TestAPI_PurchaseInsufficientStock verifies over-capacity requests are
// rejected with the remaining count and change nothing
func TestAPI_PurchaseInsufficientStock(t *testing.T) {
	client := requireStack(t)
	admin := adminClient(t, client)

	created := admin.CreateEvent(t, onSaleEventRequest(50000, 2))

	email := uniqueEmail()
	password := "integration-pass-2"
	admin.CreateUser(t, models.CreateUserRequest{
		Email:    email,
		Password: password,
		FullName: "Greedy Buyer",
	})
	buyer := client.WithCredentials(email, password)

	LogTestStep(t, "Requesting more tickets than remain")
	body := buyer.PurchaseExpectingStatus(t, created.ID, 5, http.StatusConflict)

	var response struct {
		Available int `json:"available"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("Failed to decode conflict response: %v", err)
	}
	if response.Available != 2 {
		t.Fatalf("Expected available=2 in the rejection, got %d", response.Available)
	}

	event := buyer.GetEvent(t, created.ID)
	if event.Qty != 2 {
		t.Fatalf("Inventory changed on a rejected purchase: %d", event.Qty)
	}

	LogTestResult(t, "Over-capacity purchase rejected, inventory intact")
}

// TestAPI_ConcurrentPurchases hammers one event from many buyers at once and
// verifies the inventory is never oversold
func TestAPI_ConcurrentPurchases(t *testing.T) {
	client := requireStack(t)
	admin := adminClient(t, client)

	const stock = 10
	const buyers = 20

	created := admin.CreateEvent(t, onSaleEventRequest(50000, stock))

	email := uniqueEmail()
	password := "integration-pass-3"
	admin.CreateUser(t, models.CreateUserRequest{
		Email:    email,
		Password: password,
		FullName: "Concurrent Buyer",
	})
	buyer := client.WithCredentials(email, password)

	LogTestStep(t, "Launching %d concurrent single-ticket purchases", buyers)

	var wg sync.WaitGroup
	succeeded := make(chan struct{}, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := buyer.makeRequest(t, "POST", "/api/orders", models.CreatePurchaseRequest{
				EventID: created.ID,
				Qty:     1,
			})
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	wins := 0
	for range succeeded {
		wins++
	}

	event := buyer.GetEvent(t, created.ID)
	if event.Qty < 0 {
		t.Fatalf("Inventory went negative: %d", event.Qty)
	}
	if wins > stock {
		t.Fatalf("%d purchases succeeded with only %d tickets", wins, stock)
	}
	if event.Qty != stock-wins {
		t.Fatalf("Expected %d remaining after %d wins, got %d", stock-wins, wins, event.Qty)
	}

	LogTestResult(t, "%d of %d buyers succeeded, %d tickets remain", wins, buyers, event.Qty)
}

// TestAPI_AdminStats verifies the dashboard responds to admins only
func TestAPI_AdminStats(t *testing.T) {
	client := requireStack(t)
	admin := adminClient(t, client)

	LogTestStep(t, "Reading admin stats")
	stats := admin.GetStats(t)
	if stats.TotalRevenue < 0 {
		t.Fatalf("Negative revenue: %d", stats.TotalRevenue)
	}

	LogTestResult(t, "Dashboard: revenue=%d tickets=%d", stats.TotalRevenue, stats.TicketsSold)
}
