package groww

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCredentialCache_SingleFlight(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		fetches.Add(1)
		time.Sleep(50 * time.Millisecond)
		return "shared-token", nil
	}
	cache := NewCredentialCache(fetch, nil)

	var wg sync.WaitGroup
	tokens := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := cache.Token(context.Background())
			if err != nil {
				t.Errorf("token: %v", err)
			}
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	if n := fetches.Load(); n != 1 {
		t.Errorf("concurrent callers must share one fetch, got %d", n)
	}
	for i, tok := range tokens {
		if tok != "shared-token" {
			t.Errorf("caller %d got %q", i, tok)
		}
	}
}

func TestCredentialCache_InvalidateForcesRefetch(t *testing.T) {
	var fetches atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		return fmt.Sprintf("t%d", fetches.Add(1)), nil
	}
	cache := NewCredentialCache(fetch, nil)

	first, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	again, _ := cache.Token(context.Background())
	if first != "t1" || again != "t1" {
		t.Fatalf("cached token: %q then %q", first, again)
	}

	cache.Invalidate()
	fresh, err := cache.Token(context.Background())
	if err != nil {
		t.Fatalf("token after invalidate: %v", err)
	}
	if fresh != "t2" {
		t.Errorf("expected refetch after invalidate, got %q", fresh)
	}
	if n := fetches.Load(); n != 2 {
		t.Errorf("fetch count: got %d want 2", n)
	}
}

func TestAPIKeyFetcher_PostsCredentials(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"access_token":"issued"}`)
	}))
	defer srv.Close()

	fetch := NewAPIKeyFetcher(srv.Client(), srv.URL, "key-1", "secret-1")
	tok, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tok != "issued" {
		t.Errorf("token: %q", tok)
	}
	if body["api_key"] != "key-1" || body["api_secret"] != "secret-1" {
		t.Errorf("posted body: %v", body)
	}
}

func TestTOTPFetcher_PostsCurrentCode(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"access_token":"issued"}`)
	}))
	defer srv.Close()

	fetch := NewTOTPFetcher(srv.Client(), srv.URL, "key-1", "JBSWY3DPEHPK3PXP")
	tok, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tok != "issued" {
		t.Errorf("token: %q", tok)
	}
	if body["api_key"] != "key-1" {
		t.Errorf("posted api_key: %q", body["api_key"])
	}
	if ok, _ := regexp.MatchString(`^\d{6}$`, body["totp"]); !ok {
		t.Errorf("totp code must be six digits, got %q", body["totp"])
	}
}

func TestFetchToken_RejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":""}`)
	}))
	defer srv.Close()

	fetch := NewAPIKeyFetcher(srv.Client(), srv.URL, "k", "s")
	if _, err := fetch(context.Background()); err == nil {
		t.Fatal("expected error for empty access_token")
	}
}
