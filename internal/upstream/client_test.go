package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestFilterBikesBareArray(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/filter_bikes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("min_price"); got != "2000" {
			t.Errorf("missing query param, got %q", got)
		}
		json.NewEncoder(w).Encode([]map[string]any{{"id": "a", "firm": "Cube"}})
	}))
	defer srv.Close()

	params := url.Values{}
	params.Set("min_price", "2000")
	records, err := client.FilterBikes(context.Background(), params)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0]["firm"] != "Cube" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestFilterBikesEnvelope(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"bikes":   []map[string]any{{"id": "b"}, {"id": "c"}},
			"count":   2,
		})
	}))
	defer srv.Close()

	records, err := client.FilterBikes(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %v", records)
	}
}

func TestFilterBikesNonJSON(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway error</html>"))
	}))
	defer srv.Close()

	if _, err := client.FilterBikes(context.Background(), nil); err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestGetBikeBackendError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Bike not found"})
	}))
	defer srv.Close()

	if _, err := client.GetBike(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing bike")
	}
}

func TestSimilarBikes(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/similar_bikes/bike-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"similar_bikes": []map[string]any{{"id": "x"}},
		})
	}))
	defer srv.Close()

	records, err := client.SimilarBikes(context.Background(), "bike-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0]["id"] != "x" {
		t.Errorf("unexpected records: %v", records)
	}
}

func TestSessionCookiesCapturedAndReplayed(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/add_to_compare":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123"})
			json.NewEncoder(w).Encode(map[string]any{"success": true, "compare_list": []string{"a"}})
		case "/api/compare_list":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc123" {
				t.Error("session cookie not replayed")
			}
			json.NewEncoder(w).Encode(map[string]any{"compare_list": []string{"a"}})
		}
	}))
	defer srv.Close()

	session := &Session{}
	ctx := context.Background()
	if _, err := client.AddToCompare(ctx, session, "a"); err != nil {
		t.Fatal(err)
	}
	list, err := client.CompareList(ctx, session)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0] != "a" {
		t.Errorf("unexpected list: %v", list)
	}
}

func TestAddToCompareCapError(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "You can compare up to 4 bikes only.",
		})
	}))
	defer srv.Close()

	_, err := client.AddToCompare(context.Background(), &Session{}, "fifth")
	var capErr *CompareError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CompareError, got %v", err)
	}
	if capErr.Message != "You can compare up to 4 bikes only." {
		t.Errorf("backend message must surface verbatim, got %q", capErr.Message)
	}
}

func TestAddToCompareNonJSONFailure(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream crashed"))
	}))
	defer srv.Close()

	_, err := client.AddToCompare(context.Background(), &Session{}, "a")
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusBadGateway {
		t.Errorf("expected status error 502, got %v", err)
	}
}

func TestClearCompare(t *testing.T) {
	cleared := false
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/clear_compare" && r.Method == http.MethodPost {
			cleared = true
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	if err := client.ClearCompare(context.Background(), &Session{}); err != nil {
		t.Fatal(err)
	}
	if !cleared {
		t.Error("clear endpoint not called")
	}
}

func TestCompareListEmptySession(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"compare_list": nil})
	}))
	defer srv.Close()

	list, err := client.CompareList(context.Background(), &Session{})
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Errorf("expected empty non-nil list, got %v", list)
	}
}
