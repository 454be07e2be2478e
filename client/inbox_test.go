package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func listBody(totalPages, currentPage int, totalCount int64) string {
	return fmt.Sprintf(
		`{"success":true,"data":{"messages":[],"totalPages":%d,"currentPage":%d,"totalCount":%d}}`,
		totalPages, currentPage, totalCount)
}

func TestInboxListClampsPage(t *testing.T) {
	var mu sync.Mutex
	var pages []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()

		current := 1
		fmt.Sscanf(page, "%d", &current)
		w.Write([]byte(listBody(3, current, 45)))
	}))
	defer server.Close()

	inbox := NewInbox(New(Config{BaseURL: server.URL, Token: "t"}))

	// First fetch establishes totalPages=3
	if _, applied, err := inbox.List(context.Background(), ListOptions{Page: 1}); err != nil || !applied {
		t.Fatalf("initial list: applied=%v err=%v", applied, err)
	}

	// Past the end clamps to the last page
	page, applied, err := inbox.List(context.Background(), ListOptions{Page: 99})
	if err != nil || !applied {
		t.Fatalf("clamped list: applied=%v err=%v", applied, err)
	}
	if page.CurrentPage != 3 {
		t.Fatalf("expected page 3, got %d", page.CurrentPage)
	}
	if inbox.TotalCount() != 45 {
		t.Fatalf("expected total count 45, got %d", inbox.TotalCount())
	}

	// Below the start clamps to page 1
	if _, _, err := inbox.List(context.Background(), ListOptions{Page: -5}); err != nil {
		t.Fatalf("list page -5: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(pages) != 3 || pages[0] != "1" || pages[1] != "3" || pages[2] != "1" {
		t.Fatalf("requested pages %v, want [1 3 1]", pages)
	}
}

func TestInboxStaleResponseNotApplied(t *testing.T) {
	firstArrived := make(chan struct{})
	releaseFirst := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "1" {
			close(firstArrived)
			<-releaseFirst
			w.Write([]byte(listBody(2, 1, 30)))
			return
		}
		w.Write([]byte(listBody(2, 2, 30)))
	}))
	defer server.Close()

	inbox := NewInbox(New(Config{BaseURL: server.URL, Token: "t"}))
	inbox.totalPages = 2

	type outcome struct {
		page    *ListPage
		applied bool
		err     error
	}
	first := make(chan outcome, 1)
	go func() {
		p, applied, err := inbox.List(context.Background(), ListOptions{Page: 1})
		first <- outcome{p, applied, err}
	}()

	<-firstArrived

	// A newer request completes while the first is still in flight
	if _, applied, err := inbox.List(context.Background(), ListOptions{Page: 2}); err != nil || !applied {
		t.Fatalf("second list: applied=%v err=%v", applied, err)
	}

	close(releaseFirst)
	got := <-first
	if got.err != nil {
		t.Fatalf("first list: %v", got.err)
	}
	if got.applied {
		t.Fatal("stale response must not be applied")
	}

	if current, _ := inbox.Page(); current != 2 {
		t.Fatalf("inbox should hold page 2, got %d", current)
	}
}

func TestInboxStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages/admin/stats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer t" {
			t.Errorf("missing bearer token")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]int64{"total": 10, "new": 4, "responded": 5, "archived": 1},
		})
	}))
	defer server.Close()

	inbox := NewInbox(New(Config{BaseURL: server.URL, Token: "t"}))

	stats, err := inbox.RefreshStats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 10 || stats.New != 4 || stats.Responded != 5 || stats.Archived != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestInboxDeleteRequiresConfirmation(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	inbox := NewInbox(New(Config{BaseURL: server.URL, Token: "t"}))

	if err := inbox.Delete(context.Background(), "abc", nil); err != ErrNotConfirmed {
		t.Fatalf("nil confirm: got %v, want ErrNotConfirmed", err)
	}
	declined := func(string) bool { return false }
	if err := inbox.Delete(context.Background(), "abc", declined); err != ErrNotConfirmed {
		t.Fatalf("declined confirm: got %v, want ErrNotConfirmed", err)
	}
	if requests != 0 {
		t.Fatalf("no request may be issued without confirmation, got %d", requests)
	}

	approved := func(prompt string) bool { return true }
	if err := inbox.Delete(context.Background(), "abc", approved); err != nil {
		t.Fatalf("confirmed delete: %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected one request after confirmation, got %d", requests)
	}
}
