package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/oddsradar/surebet/internal/surebet"
	"github.com/oddsradar/surebet/pkg/types"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial hub: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("subscriber count never reached %d, got %d", want, hub.SubscriberCount())
}

func sampleNotification() Notification {
	opp := surebet.Opportunity{
		Event: types.Event{
			ID:         1,
			ExternalID: "ev-1",
			Name:       "Alpha vs Beta",
			Category:   "Football",
		},
		ProfitMargin:     9.09,
		TotalInverseOdds: 0.909,
		DetectedAt:       time.Now().UTC(),
	}
	return NewNotification([]surebet.Opportunity{opp})
}

func TestHub_PublishReachesSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer func() { _ = hub.Close() }()

	conn := dialHub(t, hub)
	waitForSubscribers(t, hub, 1)

	err := hub.Publish(context.Background(), sampleNotification())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read notification: %v", err)
	}

	var received Notification
	err = json.Unmarshal(payload, &received)
	if err != nil {
		t.Fatalf("decode notification: %v", err)
	}

	if received.TotalCount != 1 {
		t.Errorf("TotalCount = %d, want 1", received.TotalCount)
	}
	if len(received.Surebets) != 1 || received.Surebets[0].Event.ExternalID != "ev-1" {
		t.Errorf("unexpected payload: %+v", received.Surebets)
	}
}

func TestHub_PublishWithoutSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer func() { _ = hub.Close() }()

	err := hub.Publish(context.Background(), sampleNotification())
	if err != nil {
		t.Fatalf("publish to empty hub must not fail: %v", err)
	}
}

func TestHub_FanOutToMultipleSubscribers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer func() { _ = hub.Close() }()

	first := dialHub(t, hub)
	second := dialHub(t, hub)
	waitForSubscribers(t, hub, 2)

	err := hub.Publish(context.Background(), sampleNotification())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	for i, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("subscriber %d read: %v", i, err)
		}
		if len(payload) == 0 {
			t.Errorf("subscriber %d received empty payload", i)
		}
	}
}

func TestHub_DisconnectedSubscriberIsRemoved(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer func() { _ = hub.Close() }()

	conn := dialHub(t, hub)
	waitForSubscribers(t, hub, 1)

	_ = conn.Close()
	waitForSubscribers(t, hub, 0)
}

func TestHub_CloseDisconnectsAll(t *testing.T) {
	hub := NewHub(zap.NewNop())

	dialHub(t, hub)
	dialHub(t, hub)
	waitForSubscribers(t, hub, 2)

	err := hub.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if hub.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after close, got %d", hub.SubscriberCount())
	}
}

func TestHub_PublishDuringDisconnectChurn(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer func() { _ = hub.Close() }()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	// Publishers hammer the hub while subscribers connect and drop, so
	// broadcasts keep overlapping client removal.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				err := hub.Publish(context.Background(), sampleNotification())
				if err != nil {
					t.Errorf("publish: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < 25; i++ {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial hub: %v", err)
		}
		// Close immediately without reading so removal races the broadcasts.
		_ = conn.Close()
	}

	close(stop)
	wg.Wait()

	waitForSubscribers(t, hub, 0)
}

func TestHub_PublishAfterClose(t *testing.T) {
	hub := NewHub(zap.NewNop())

	err := hub.Close()
	if err != nil {
		t.Fatalf("close: %v", err)
	}

	err = hub.Publish(context.Background(), sampleNotification())
	if err != nil {
		t.Fatalf("publish after close must not fail: %v", err)
	}
}

func TestNewNotification(t *testing.T) {
	n := NewNotification(nil)
	if n.TotalCount != 0 {
		t.Errorf("TotalCount = %d, want 0", n.TotalCount)
	}
	if n.EmittedAt.IsZero() {
		t.Error("EmittedAt not set")
	}

	n = NewNotification(make([]surebet.Opportunity, 3))
	if n.TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", n.TotalCount)
	}
}
