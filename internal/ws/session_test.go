package ws

import (
	"context"
	"encoding/json"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/windoze95/saltybytes-search/internal/i18n"
	"github.com/windoze95/saltybytes-search/internal/recipeapi"
	"github.com/windoze95/saltybytes-search/internal/session"
	"github.com/windoze95/saltybytes-search/internal/state"
	"github.com/windoze95/saltybytes-search/internal/testutil"
	"github.com/windoze95/saltybytes-search/internal/web"
)

const testSessionID = "4f1c2a9e-7d3b-4c1e-9a55-0b6f2e8d1c33"

// setupTestSessionHandler creates a SessionHandler with a mock recipe
// service and a running Hub, with the publish hook installed.
func setupTestSessionHandler(t *testing.T, api *testutil.MockRecipeAPI) *SessionHandler {
	t.Helper()
	tr, err := i18n.Default("en")
	if err != nil {
		t.Fatalf("i18n.Default() error = %v", err)
	}
	renderer, err := web.NewRenderer(tr)
	if err != nil {
		t.Fatalf("web.NewRenderer() error = %v", err)
	}
	manager := session.NewManager(api, tr, session.DefaultOptions(), time.Minute)
	t.Cleanup(manager.Close)

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	h := NewSessionHandler(hub, manager, renderer, []string{"https://recipes.example.com"})
	manager.OnPublish(h.Publish)
	return h
}

// newTestClient creates a Client with a buffered Send channel and no real
// websocket.Conn. This works because the handler methods write to client.Send
// rather than Conn directly.
func newTestClient(hub *Hub, roomID string) *Client {
	return &Client{
		Hub:    hub,
		Send:   make(chan []byte, 256),
		RoomID: roomID,
		Locale: "en",
	}
}

// joinRoom registers client with the hub and waits until it is listed.
func joinRoom(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register <- client
	deadline := time.Now().Add(2 * time.Second)
	for hub.RoomSize(client.RoomID) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for client registration")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// readMessage reads a single WSMessage from the client's Send channel with a
// short timeout to prevent tests from hanging.
func readMessage(t *testing.T, client *Client) WSMessage {
	t.Helper()
	select {
	case data := <-client.Send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("failed to unmarshal message from Send channel: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message on Send channel")
		return WSMessage{}
	}
}

// assertNoMoreMessages verifies nothing else is pending on the Send channel.
func assertNoMoreMessages(t *testing.T, client *Client) {
	t.Helper()
	select {
	case data := <-client.Send:
		t.Fatalf("unexpected extra message on Send channel: %s", string(data))
	case <-time.After(50 * time.Millisecond):
	}
}

// waitForSnapshot reads snapshot messages until one satisfies match.
func waitForSnapshot(t *testing.T, client *Client, match func(state.Snapshot) bool) SnapshotPayload {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-client.Send:
			var msg WSMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("failed to unmarshal message: %v", err)
			}
			if msg.Type != MsgTypeSnapshot {
				continue
			}
			var p SnapshotPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatalf("failed to unmarshal SnapshotPayload: %v", err)
			}
			if match(p.Snapshot) {
				return p
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching snapshot")
			return SnapshotPayload{}
		}
	}
}

func send(t *testing.T, h *SessionHandler, client *Client, msgType string, payload interface{}) {
	t.Helper()
	data, err := encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	h.handleMessage(client, data)
}

func expectError(t *testing.T, client *Client, want string) {
	t.Helper()
	msg := readMessage(t, client)
	if msg.Type != MsgTypeError {
		t.Fatalf("expected error type, got %q", msg.Type)
	}
	var errPayload ErrorPayload
	if err := json.Unmarshal(msg.Payload, &errPayload); err != nil {
		t.Fatalf("failed to unmarshal ErrorPayload: %v", err)
	}
	if errPayload.Message != want {
		t.Errorf("unexpected error message: %q, want %q", errPayload.Message, want)
	}
}

// --- connection tests ---

func TestGreet_SendsConnectedAndSnapshot(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	sess := h.Sessions.Get(testSessionID, "en")
	client := newTestClient(h.Hub, testSessionID)

	h.greet(client, sess)

	msg := readMessage(t, client)
	if msg.Type != MsgTypeConnected {
		t.Fatalf("expected type %q, got %q", MsgTypeConnected, msg.Type)
	}
	var connected ConnectedPayload
	if err := json.Unmarshal(msg.Payload, &connected); err != nil {
		t.Fatalf("failed to unmarshal ConnectedPayload: %v", err)
	}
	if connected.SessionID != testSessionID {
		t.Errorf("session_id = %q, want %q", connected.SessionID, testSessionID)
	}

	msg = readMessage(t, client)
	if msg.Type != MsgTypeSnapshot {
		t.Fatalf("expected type %q, got %q", MsgTypeSnapshot, msg.Type)
	}
	var snap SnapshotPayload
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("failed to unmarshal SnapshotPayload: %v", err)
	}
	if snap.Snapshot.Locale != "en" {
		t.Errorf("locale = %q, want en", snap.Snapshot.Locale)
	}
	for _, region := range web.Regions {
		if _, ok := snap.HTML[region]; !ok {
			t.Errorf("snapshot missing %q region", region)
		}
	}
	assertNoMoreMessages(t, client)
}

func TestCheckOrigin(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://app.test", true},
		{"https://recipes.example.com", true},
		{"http://localhost:5173", true},
		{"https://evil.example.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "http://app.test/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := h.checkOrigin(req); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

// --- handleMessage tests ---

func TestHandleMessage_InvalidFormat(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	h.handleMessage(client, []byte("not json"))

	expectError(t, client, "invalid message format")
	assertNoMoreMessages(t, client)
}

func TestHandleMessage_UnknownType(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	send(t, h, client, "shopping_list", struct{}{})

	expectError(t, client, "unknown message type: shopping_list")
}

func TestHandleMessage_MissingPayload(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	h.handleMessage(client, []byte(`{"type":"query_changed"}`))

	expectError(t, client, "missing query_changed payload")
}

func TestHandleMessage_FiltersChanged(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	send(t, h, client, MsgTypeFiltersChanged, FiltersPayload{Cuisine: "Italian", MaxCalories: 500})

	sess, ok := h.Sessions.Lookup(testSessionID)
	if !ok {
		t.Fatal("session was not created")
	}
	snap := sess.Snapshot()
	if snap.Cuisine != "Italian" || snap.MaxCalories != 500 {
		t.Errorf("filters = %q/%d, want Italian/500", snap.Cuisine, snap.MaxCalories)
	}
}

func TestHandleMessage_SearchPublishesSnapshot(t *testing.T) {
	api := testutil.NewMockRecipeAPI()
	api.SearchFunc = func(_ context.Context, p recipeapi.SearchParams) (*recipeapi.SearchResponse, error) {
		return &recipeapi.SearchResponse{
			Results:      []recipeapi.Summary{{ID: 7, Title: p.Query + " carbonara"}},
			TotalResults: 1,
		}, nil
	}
	h := setupTestSessionHandler(t, api)
	h.Sessions.Get(testSessionID, "en")
	client := newTestClient(h.Hub, testSessionID)
	joinRoom(t, h.Hub, client)

	send(t, h, client, MsgTypeQueryChanged, QueryPayload{Query: "pasta"})
	send(t, h, client, MsgTypeSearchSubmitted, struct{}{})

	p := waitForSnapshot(t, client, func(s state.Snapshot) bool {
		return s.Searched && !s.Searching
	})
	if len(p.Snapshot.Results) != 1 || p.Snapshot.Results[0].ID != 7 {
		t.Fatalf("results = %+v, want recipe 7", p.Snapshot.Results)
	}
	if p.HTML["results"] == "" {
		t.Error("results region was not rendered")
	}
}

func TestHandleMessage_RecipeOpenedAggregatesCalories(t *testing.T) {
	api := testutil.NewMockRecipeAPI()
	h := setupTestSessionHandler(t, api)
	h.Sessions.Get(testSessionID, "en")
	client := newTestClient(h.Hub, testSessionID)
	joinRoom(t, h.Hub, client)

	send(t, h, client, MsgTypeRecipeOpened, RecipePayload{RecipeID: 42})

	p := waitForSnapshot(t, client, func(s state.Snapshot) bool {
		return s.Recipe != nil && s.Aggregate.Final
	})
	if p.Snapshot.Recipe.ID != 42 {
		t.Errorf("recipe id = %d, want 42", p.Snapshot.Recipe.ID)
	}
	if got := p.Snapshot.Aggregate.Calories; math.Abs(got-testutil.TestRecipeCalories) > 1e-9 {
		t.Errorf("calories = %v, want %v", got, testutil.TestRecipeCalories)
	}
	if !strings.Contains(p.HTML["detail"], "Classic Pancakes") {
		t.Error("detail region missing the recipe title")
	}

	var butter *testutil.IngredientCall
	for _, call := range api.IngredientRequests() {
		if call.ID == testutil.ButterID {
			c := call
			butter = &c
		}
	}
	if butter == nil {
		t.Fatal("butter was never requested")
	}
	if butter.Unit != "serving" || butter.Amount != 1 {
		t.Errorf("butter requested as %v %q, want 1 serving", butter.Amount, butter.Unit)
	}

	send(t, h, client, MsgTypeExclusionToggled, ExclusionPayload{IngredientID: testutil.ButterID})

	p = waitForSnapshot(t, client, func(s state.Snapshot) bool {
		return s.Aggregate.Excluded == 1
	})
	if got, want := p.Snapshot.Aggregate.Calories, testutil.TestRecipeCalories-102; math.Abs(got-want) > 1e-9 {
		t.Errorf("calories after exclusion = %v, want %v", got, want)
	}
}

func TestHandleMessage_RecipeOpenedInvalidID(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	send(t, h, client, MsgTypeRecipeOpened, RecipePayload{RecipeID: 0})

	expectError(t, client, "recipe_id must be a positive integer")
}

func TestHandleMessage_ExclusionWithoutRecipe(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	send(t, h, client, MsgTypeExclusionToggled, ExclusionPayload{IngredientID: 1})

	expectError(t, client, "no recipe is open")
}

func TestHandleMessage_LanguageChanged(t *testing.T) {
	h := setupTestSessionHandler(t, testutil.NewMockRecipeAPI())
	client := newTestClient(h.Hub, testSessionID)

	send(t, h, client, MsgTypeLanguageChanged, LanguagePayload{Locale: "ar"})

	if client.Locale != "ar" {
		t.Errorf("client locale = %q, want ar", client.Locale)
	}
	sess, _ := h.Sessions.Lookup(testSessionID)
	if snap := sess.Snapshot(); snap.Locale != "ar" || snap.Dir != "rtl" {
		t.Errorf("snapshot locale/dir = %q/%q, want ar/rtl", snap.Locale, snap.Dir)
	}
	assertNoMoreMessages(t, client)
}
