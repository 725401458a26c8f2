package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blobbi/island/internal/errs"
	"github.com/blobbi/island/internal/event"
)

func TestQueryLatest(t *testing.T) {
	t.Parallel()
	want := []event.Event{{ID: "abc", Kind: event.KindPetState, Tags: [][]string{{"d", "p1"}}}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("kind") != "31124" || r.URL.Query().Get("author") != "pk" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.QueryLatest(context.Background(), event.KindPetState, "pk")
	if err != nil {
		t.Fatalf("QueryLatest: %v", err)
	}
	if len(got) != 1 || got[0].ID != "abc" {
		t.Fatalf("got %+v", got)
	}
}

func TestPublish_StatusMapping(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		wantErr bool
	}{
		{"created", http.StatusCreated, `{"id":"abc"}`, nil, false},
		{"ok", http.StatusOK, ``, nil, false},
		{"rate limited", http.StatusTooManyRequests, ``,
			func(err error) bool { return errors.Is(err, errs.ErrRateLimited) }, true},
		{"rejected", http.StatusBadRequest, `{"error":"invalid signature"}`, nil, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/events" {
					t.Errorf("request: %s %s", r.Method, r.URL.Path)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second)
			err := c.Publish(context.Background(), event.Event{Kind: event.KindPetState})
			if tc.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if tc.check != nil && !tc.check(err) {
				t.Fatalf("error classification: %v", err)
			}
		})
	}
}

func TestQueryLatest_ContextCancel(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.QueryLatest(ctx, event.KindPetState, "pk"); err == nil {
		t.Fatal("want context deadline error")
	}
}
