package padelapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wolfman30/padel-booking/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL+"/api", WithLogger(logging.New("error")))
}

func TestClient_FetchSchedule_AcceptsNumericAndStringIDs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/schedule" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"date":"2025-06-10","slots":[{"id":1,"time":"10:00","available":true},{"id":"b2","time":"11:00","available":false}]}]`))
	})

	days, err := client.FetchSchedule(context.Background())
	if err != nil {
		t.Fatalf("FetchSchedule() error = %v", err)
	}
	if len(days) != 1 || len(days[0].Slots) != 2 {
		t.Fatalf("unexpected schedule %+v", days)
	}
	if days[0].Slots[0].ID != "1" || days[0].Slots[1].ID != "b2" {
		t.Fatalf("slot ids = %q, %q", days[0].Slots[0].ID, days[0].Slots[1].ID)
	}
	if days[0].Slots[1].Available {
		t.Fatalf("expected second slot unavailable")
	}
}

func TestClient_CreateBooking_SendsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/bookings" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Fatalf("content type = %q", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := map[string]string{"name": "Ann", "phone": "123", "date": "2025-06-10", "time": "10:00", "format_type": "open_game"}
		for k, v := range want {
			if body[k] != v {
				t.Fatalf("body[%s] = %q, want %q", k, body[k], v)
			}
		}
		if len(body) != len(want) {
			t.Fatalf("unexpected extra fields: %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"b-1","name":"Ann","phone":"123","date":"2025-06-10","time":"10:00","format_type":"open_game","status":"confirmed","created_at":"2025-06-09T12:00:00Z"}`))
	})

	booking, err := client.CreateBooking(context.Background(), BookingRequest{
		Name: "Ann", Phone: "123", Date: "2025-06-10", Time: "10:00", FormatType: "open_game",
	})
	if err != nil {
		t.Fatalf("CreateBooking() error = %v", err)
	}
	if booking.ID != "b-1" || booking.Status != "confirmed" {
		t.Fatalf("unexpected booking %+v", booking)
	}
}

func TestClient_NonSuccessBecomesAPIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", http.StatusConflict, `{"detail":"Slot taken"}`, "Slot taken"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","name"]}]}`, ""},
		{"plain text", http.StatusBadGateway, `upstream down`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.CreateBooking(context.Background(), BookingRequest{})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.StatusCode != tt.status || apiErr.Detail != tt.wantDetail {
				t.Fatalf("got %+v", apiErr)
			}
		})
	}
}

func TestClient_StatsAndReviews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/stats":
			_, _ = w.Write([]byte(`{"players":1247,"games_per_month":234,"rating":4.9}`))
		case "/api/reviews":
			_, _ = w.Write([]byte(`[{"id":"1","name":"Alexey K.","text":"Great","rating":5}]`))
		default:
			http.NotFound(w, r)
		}
	})

	stats, err := client.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Players != 1247 || stats.GamesPerMonth != 234 || stats.Rating != 4.9 || stats.Bookings != nil {
		t.Fatalf("unexpected stats %+v", stats)
	}

	reviews, err := client.Reviews(context.Background())
	if err != nil {
		t.Fatalf("Reviews() error = %v", err)
	}
	if len(reviews) != 1 || reviews[0].Avatar != nil || reviews[0].Rating != 5 {
		t.Fatalf("unexpected reviews %+v", reviews)
	}
}

func TestSlotIDRejectsObjects(t *testing.T) {
	var id SlotID
	if err := json.Unmarshal([]byte(`{"x":1}`), &id); err == nil {
		t.Fatal("expected error for object slot id")
	}
}

func TestClient_DefaultTransportLeavesDeadlinesToContext(t *testing.T) {
	if c := New(""); c.httpClient.Timeout != 0 {
		t.Fatalf("expected no client-side timeout, got %s", c.httpClient.Timeout)
	}

	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.FetchSchedule(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}
}
