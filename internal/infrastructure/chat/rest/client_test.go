package rest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/mygleague/inhouse/internal/platform/resilience"
	"github.com/mygleague/inhouse/internal/usecase"
)

func testClient(t *testing.T, srvURL string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(Config{
		BaseURL:  srvURL,
		BotToken: "bot-secret",
		Timeout:  2 * time.Second,
		Breaker:  resilience.CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1},
	}, logger)
}

func TestClientSendMessage_PostsContentWithBotToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		if r.URL.Path != "/channels/chan-1/messages" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bot bot-secret" {
			t.Fatalf("unexpected authorization header: %s", got)
		}

		var req map[string]string
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		if req["content"] != "hello lobby" {
			t.Fatalf("unexpected content: %s", req["content"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-9","channel_id":"chan-1"}`))
	}))
	defer srv.Close()

	msg, err := testClient(t, srv.URL).SendMessage(context.Background(), "chan-1", "hello lobby")
	if err != nil {
		t.Fatalf("send message failed: %v", err)
	}
	if msg.ID != "msg-9" || msg.ChannelID != "chan-1" {
		t.Fatalf("unexpected message reference: %+v", msg)
	}
}

func TestClientHasRole_MatchesMemberRoles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/guilds/guild-1/members/user-1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"roles":["role-a","role-b"]}`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	has, err := client.HasRole(context.Background(), "guild-1", "user-1", "role-b")
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if !has {
		t.Fatal("expected role-b to match")
	}

	has, err = client.HasRole(context.Background(), "guild-1", "user-1", "role-z")
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if has {
		t.Fatal("expected role-z not to match")
	}
}

func TestClientHasRole_UnknownMemberIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Unknown Member"}`))
	}))
	defer srv.Close()

	has, err := testClient(t, srv.URL).HasRole(context.Background(), "guild-1", "ghost", "role-a")
	if err != nil {
		t.Fatalf("expected missing member to report false, got error: %v", err)
	}
	if has {
		t.Fatal("expected false for unknown member")
	}
}

func TestClientFetchUser_PrefersGlobalName(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user-7","username":"smurf","global_name":"Main Account"}`))
	}))
	defer srv.Close()

	u, found, err := testClient(t, srv.URL).FetchUser(context.Background(), "user-7")
	if err != nil {
		t.Fatalf("fetch user failed: %v", err)
	}
	if !found {
		t.Fatal("expected user to be found")
	}
	if u.Display != "Main Account" {
		t.Fatalf("unexpected display: %s", u.Display)
	}
}

func TestClientCall_ServerErrorsOpenTheCircuit(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	for i := 0; i < 2; i++ {
		_, err := client.SendMessage(context.Background(), "chan-1", "x")
		if !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	}

	srv.Close()
	_, err := client.SendMessage(context.Background(), "chan-1", "x")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open circuit to short-circuit, got %v", err)
	}
	if got := client.breaker.State(); got != resilience.CircuitStateOpen {
		t.Fatalf("expected open breaker, got %s", got)
	}
}
