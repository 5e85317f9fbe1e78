// tpcanvas - TP timetable to Canvas calendar synchronization
// SPDX-License-Identifier: AGPL-3.0-or-later

package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	return New(serverURL, WithRetryDelay(time.Millisecond), WithTarget("test"))
}

func TestDoSuccessFirstAttempt(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	resp, err := testClient(server.URL).Do(context.Background(), http.MethodGet, "/thing", nil, nil)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestDoRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Do(context.Background(), http.MethodGet, "/thing", nil, nil)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestDoRetriesThrottleStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests} {
		t.Run(fmt.Sprintf("status %d", status), func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) == 1 {
					w.WriteHeader(status)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			_, err := testClient(server.URL).Do(context.Background(), http.MethodGet, "/thing", nil, nil)
			if err != nil {
				t.Fatalf("Do() error: %v", err)
			}
			if got := calls.Load(); got != 2 {
				t.Errorf("server calls = %d, want 2", got)
			}
		})
	}
}

func TestDoGivesUpAfterRetryBudget(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Do(context.Background(), http.MethodGet, "/thing", nil, nil)
	if err == nil {
		t.Fatal("Do() = nil error, want error")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusInternalServerError {
		t.Errorf("err = %v, want HTTPError with status 500", err)
	}
	// 1 initial attempt + 5 retries
	if got := calls.Load(); got != 6 {
		t.Errorf("server calls = %d, want 6", got)
	}
}

func TestDoDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such thing"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Do(context.Background(), http.MethodGet, "/thing", nil, nil)
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want 404 HTTPError", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestDoRetriesTransportErrors(t *testing.T) {
	t.Parallel()

	// Point at a closed server so every attempt fails at connection level.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := testClient(serverURL).Do(context.Background(), http.MethodGet, "/thing", nil, nil)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestDoRespectsContextDuringBackoff(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, WithRetryDelay(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Do(ctx, http.MethodGet, "/thing", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context deadline", err)
	}
}

func TestGetPaginatedSinglePage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer server.Close()

	pages, err := testClient(server.URL).GetPaginated(context.Background(), "/list", nil)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	if string(pages[0]) != `[1,2,3]` {
		t.Errorf("page = %s", pages[0])
	}
}

func TestGetPaginatedFollowsNextLinks(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/list2>; rel="next", <%s/list>; rel="first"`, server.URL, server.URL))
		_, _ = w.Write([]byte(`[1]`))
	})
	mux.HandleFunc("/list2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", fmt.Sprintf(`<%s/list3>; rel="next"`, server.URL))
		_, _ = w.Write([]byte(`[2]`))
	})
	mux.HandleFunc("/list3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[3]`))
	})

	pages, err := testClient(server.URL).GetPaginated(context.Background(), "/list", nil)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(pages))
	}
	for i, want := range []string{`[1]`, `[2]`, `[3]`} {
		if string(pages[i]) != want {
			t.Errorf("page %d = %s, want %s", i, pages[i], want)
		}
	}
}

func TestGetPaginatedToleratesMalformedLinkHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Link", "this is not a link header")
		_, _ = w.Write([]byte(`[1]`))
	}))
	defer server.Close()

	pages, err := testClient(server.URL).GetPaginated(context.Background(), "/list", nil)
	if err != nil {
		t.Fatalf("GetPaginated() error: %v", err)
	}
	if len(pages) != 1 {
		t.Errorf("pages = %d, want 1", len(pages))
	}
}

func TestNextLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{
			"next among others",
			`<https://x/p?page=2>; rel="current", <https://x/p?page=3>; rel="next"`,
			"https://x/p?page=3",
		},
		{"no next", `<https://x/p?page=1>; rel="first"`, ""},
		{"empty", "", ""},
		{"garbage", "}{ rel=next", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			header := http.Header{}
			if tt.header != "" {
				header.Set("Link", tt.header)
			}
			if got := nextLink(header); got != tt.expected {
				t.Errorf("nextLink() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDoSendsConfiguredHeadersAndQuery(t *testing.T) {
	t.Parallel()

	var gotAuth, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, WithHeader("Authorization", "Bearer token"), WithRetryDelay(time.Millisecond))
	query := url.Values{"search_term": {"INF-1100"}}
	if _, err := client.Do(context.Background(), http.MethodGet, "/courses", query, nil); err != nil {
		t.Fatalf("Do() error: %v", err)
	}

	if gotAuth != "Bearer token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotQuery != "search_term=INF-1100" {
		t.Errorf("query = %q", gotQuery)
	}
}
