package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/coven/internal/auth"
	"github.com/mmynk/coven/internal/metrics"
)

type empty struct{}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("user-1", "Agatha")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUser string
	}{
		{name: "valid", header: "Bearer " + token, wantUser: "user-1"},
		{name: "missing", header: "", wantCode: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, wantCode: connect.CodeUnauthenticated},
		{name: "bad token", header: "Bearer nope", wantCode: connect.CodeUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser, gotName string
			next := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				gotUser = GetUserID(ctx)
				gotName = GetDisplayName(ctx)
				return connect.NewResponse(&empty{}), nil
			}

			req := connect.NewRequest(&empty{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}
			_, err := RequireAuth(jwtManager)(next)(context.Background(), req)

			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("code = %v, want %v", connect.CodeOf(err), tt.wantCode)
				}
				if gotUser != "" {
					t.Error("handler ran for rejected request")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotUser != tt.wantUser || gotName != "Agatha" {
				t.Errorf("caller = %q/%q, want %q/Agatha", gotUser, gotName, tt.wantUser)
			}
		})
	}
}

func TestLoggingInterceptor_CountsCodes(t *testing.T) {
	m := metrics.New()
	ok := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&empty{}), nil
	}
	fail := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("gone"))
	}

	LoggingInterceptor(m)(ok)(context.Background(), connect.NewRequest(&empty{}))
	LoggingInterceptor(m)(fail)(context.Background(), connect.NewRequest(&empty{}))
	LoggingInterceptor(m)(fail)(context.Background(), connect.NewRequest(&empty{}))

	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues("", "ok")); got != 1 {
		t.Errorf("ok count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues("", "not_found")); got != 2 {
		t.Errorf("not_found count = %v, want 2", got)
	}
}

func TestLoggingInterceptor_SeesCallerFromInnerAuth(t *testing.T) {
	var seen string
	inner := func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		ctx = WithCaller(ctx, "user-9", "")
		seen = GetUserID(ctx)
		return connect.NewResponse(&empty{}), nil
	}

	// A nil *Metrics records nothing.
	if _, err := LoggingInterceptor(nil)(inner)(context.Background(), connect.NewRequest(&empty{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen != "user-9" {
		t.Errorf("caller = %q, want user-9", seen)
	}
}
