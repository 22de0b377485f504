package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/coven/internal/auth"
	"github.com/mmynk/coven/internal/config"
	"github.com/mmynk/coven/internal/metrics"
	"github.com/mmynk/coven/internal/service"
	"github.com/mmynk/coven/internal/storage/sqlite"
)

func setupServer(t *testing.T) (*httptest.Server, *auth.JWTManager) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "coven.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	testCfg := &config.Config{
		StoreWriteTimeout:  time.Second,
		CORSAllowedOrigins: []string{"https://coven.example"},
	}
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	server := httptest.NewServer(newHandler(testCfg, store, jwtManager, metrics.New()))
	t.Cleanup(server.Close)
	return server, jwtManager
}

func TestHandler_Healthz(t *testing.T) {
	server, _ := setupServer(t)

	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandler_RPCAndMetrics(t *testing.T) {
	server, jwtManager := setupServer(t)
	ctx := context.Background()

	token, err := jwtManager.Generate("alice", "Alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	gatherings := service.NewGatheringServiceClient(http.DefaultClient, server.URL,
		connect.WithInterceptors(service.BearerToken(token)))

	if _, err := gatherings.CreateGathering(ctx, connect.NewRequest(&service.CreateGatheringRequest{
		CovenID: "coven-1", Name: "Esbat",
	})); err != nil {
		t.Fatalf("CreateGathering failed: %v", err)
	}

	anonymous := service.NewGatheringServiceClient(http.DefaultClient, server.URL)
	_, err = anonymous.ListGatherings(ctx, connect.NewRequest(&service.ListGatheringsRequest{CovenID: "coven-1"}))
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		t.Errorf("anonymous call: code = %v, want unauthenticated", connect.CodeOf(err))
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{
		`coven_rpc_requests_total{code="ok",procedure="/coven.v1.GatheringService/CreateGathering"} 1`,
		`coven_rpc_requests_total{code="unauthenticated",procedure="/coven.v1.GatheringService/ListGatherings"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestHandler_CORSPreflight(t *testing.T) {
	server, _ := setupServer(t)

	req, _ := http.NewRequest(http.MethodOptions, server.URL+service.GuestServiceListGuestsProcedure, nil)
	req.Header.Set("Origin", "https://coven.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://coven.example" {
		t.Errorf("allow origin = %q, want https://coven.example", got)
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"token", "--user", "alice", "--name", "Alice", "--ttl", "1h"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("token command failed: %v", err)
	}

	claims, err := auth.NewJWTManager("cli-secret", time.Hour).Validate(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("minted token did not validate: %v", err)
	}
	if claims.UserID != "alice" || claims.Name != "Alice" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestMigrateCommand(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "migrate.db")
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		migrateDown = 0
	})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "up", args: []string{"migrate", "--db", dbFile}, want: "schema version 2"},
		{name: "down one", args: []string{"migrate", "--db", dbFile, "--down", "1"}, want: "schema version 1"},
		{name: "up again", args: []string{"migrate", "--db", dbFile, "--down", "0"}, want: "schema version 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(tt.args)

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("migrate command failed: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}
}

func TestClientCommands(t *testing.T) {
	server, jwtManager := setupServer(t)
	ctx := context.Background()
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	tokens := map[string]string{}
	for _, id := range []string{"alice", "bob"} {
		token, err := jwtManager.Generate(id, strings.ToUpper(id[:1])+id[1:])
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		tokens[id] = token
	}

	alice := service.NewGatheringServiceClient(http.DefaultClient, server.URL,
		connect.WithInterceptors(service.BearerToken(tokens["alice"])))
	created, err := alice.CreateGathering(ctx, connect.NewRequest(&service.CreateGatheringRequest{
		CovenID: "coven-1", Name: "Esbat",
	}))
	if err != nil {
		t.Fatalf("CreateGathering failed: %v", err)
	}
	gathering := created.Msg.Gathering.ID
	for id, token := range tokens {
		guests := service.NewGuestServiceClient(http.DefaultClient, server.URL,
			connect.WithInterceptors(service.BearerToken(token)))
		if _, err := guests.JoinGathering(ctx, connect.NewRequest(&service.JoinGatheringRequest{GatheringID: gathering})); err != nil {
			t.Fatalf("JoinGathering(%s) failed: %v", id, err)
		}
	}

	steps := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "expense add",
			args: []string{"expense", "add", "--server", server.URL, "--token", tokens["alice"],
				"--gathering", gathering, "--amount", "20", "--with", "alice,bob"},
			want: []string{"Recorded 20 (share 10)", "alice 10", "bob -10"},
		},
		{
			name: "settle",
			args: []string{"settle", "--server", server.URL, "--token", tokens["bob"],
				"--gathering", gathering, "--to", "alice", "--amount", "10"},
			want: []string{"Recorded bob paid 10 to alice"},
		},
		{
			name: "guests",
			args: []string{"guests", "--server", server.URL, "--token", tokens["bob"], "--gathering", gathering},
			want: []string{"USER", "Alice", "Bob"},
		},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			var out bytes.Buffer
			rootCmd.SetOut(&out)
			rootCmd.SetArgs(step.args)

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("%s failed: %v", step.name, err)
			}
			for _, want := range step.want {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output = %q, want %q", out.String(), want)
				}
			}
		})
	}

	guests := service.NewGuestServiceClient(http.DefaultClient, server.URL,
		connect.WithInterceptors(service.BearerToken(tokens["alice"])))
	resp, err := guests.ListGuests(ctx, connect.NewRequest(&service.ListGuestsRequest{GatheringID: gathering}))
	if err != nil {
		t.Fatalf("ListGuests failed: %v", err)
	}
	for _, g := range resp.Msg.Guests {
		if g.Expenses != "0" {
			t.Errorf("balance[%s] = %s after settling, want 0", g.UserID, g.Expenses)
		}
	}
}
