package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/expawatch/internal/model"
)

func newTestClient(srv *httptest.Server) *GraphQLClient {
	return NewGraphQLClient(srv.URL, "test-token", srv.Client())
}

func TestSignupFetchPage_Success(t *testing.T) {
	payload := `{
		"data": {
			"allPeople": {
				"data": [
					{
						"id": 1001,
						"full_name": "Nimal Perera",
						"email": "nimal@example.com",
						"created_at": "2026-03-01T04:30:00Z",
						"home_lc": {"id": 1, "name": "COLOMBO SOUTH"},
						"contact_detail": {"phone": "+94771234567", "country_code": "+94"},
						"person_profile": {"selected_programmes": [7, "8", "x"]}
					},
					{
						"id": "1002",
						"first_name": "Kamala",
						"last_name": "Silva",
						"created_at": "not-a-date",
						"person_profile": null
					},
					{
						"id": null,
						"full_name": "Ghost"
					}
				],
				"paging": {"total_items": 3, "current_page": 1, "total_pages": 1}
			}
		}
	}`

	var gotReq graphqlRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewSignupFetcher(newTestClient(srv))
	records, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10, Query: "nimal"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "test-token" {
		t.Errorf("authorization header = %q, want test-token", gotAuth)
	}
	if gotReq.OperationName != "PeopleIndexQuery" {
		t.Errorf("operationName = %q", gotReq.OperationName)
	}
	if gotReq.Variables["perPage"] != float64(10) || gotReq.Variables["q"] != "nimal" {
		t.Errorf("variables = %v", gotReq.Variables)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records (null id dropped), got %d", len(records))
	}

	r := records[0]
	if r.ID != "1001" || r.Kind != model.KindSignup {
		t.Errorf("record = %+v", r)
	}
	if r.CreatedAt.IsZero() || r.CreatedAt.Hour() != 4 {
		t.Errorf("CreatedAt = %v", r.CreatedAt)
	}
	if r.Signup.FullName != "Nimal Perera" || r.Signup.Phone != "+94771234567" || r.Signup.HomeLC != "COLOMBO SOUTH" {
		t.Errorf("signup = %+v", r.Signup)
	}
	if len(r.Signup.SelectedProgrammes) != 2 || r.Signup.SelectedProgrammes[0] != 7 || r.Signup.SelectedProgrammes[1] != 8 {
		t.Errorf("SelectedProgrammes = %v, want [7 8]", r.Signup.SelectedProgrammes)
	}

	r = records[1]
	if r.ID != "1002" {
		t.Errorf("ID = %q, want 1002", r.ID)
	}
	if r.Signup.FullName != "Kamala Silva" {
		t.Errorf("FullName = %q, want name built from first/last", r.Signup.FullName)
	}
	if !r.CreatedAt.IsZero() {
		t.Errorf("expected zero CreatedAt for unparseable date, got %v", r.CreatedAt)
	}
	if len(r.Signup.SelectedProgrammes) != 0 {
		t.Errorf("expected no programmes, got %v", r.Signup.SelectedProgrammes)
	}
}

func TestSignupFetchPage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewSignupFetcher(newTestClient(srv))
	records, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if records != nil {
		t.Errorf("expected nil records, got %v", records)
	}
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError in chain, got %v", err)
	}
	if httpErr.StatusCode != 429 || httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestSignupFetchPage_GraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": null, "errors": [{"message": "Unauthorized"}]}`))
	}))
	defer srv.Close()

	f := NewSignupFetcher(newTestClient(srv))
	_, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if !errors.Is(err, model.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestSignupFetchPage_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway timeout</html>`))
	}))
	defer srv.Close()

	f := NewSignupFetcher(newTestClient(srv))
	_, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if !errors.Is(err, model.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestSignupFetchPage_NilFiltersSentAsObject(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]json.RawMessage `json:"variables"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		raw = req.Variables
		w.Write([]byte(`{"data": {"allPeople": {"data": []}}}`))
	}))
	defer srv.Close()

	f := NewSignupFetcher(newTestClient(srv))
	records, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records, got %d", len(records))
	}
	if string(raw["filters"]) != "{}" {
		t.Errorf("filters = %s, want {}", raw["filters"])
	}
}
