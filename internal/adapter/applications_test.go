package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amishk599/expawatch/internal/model"
)

func TestApplicationFetchPage_Success(t *testing.T) {
	payload := `{
		"data": {
			"allOpportunityApplication": {
				"data": [
					{
						"id": "55001",
						"status": "open",
						"created_at": "2026-03-02T10:15:00Z",
						"person": {
							"full_name": "Ayesha Fernando",
							"email": "ayesha@example.com",
							"contact_detail": {"phone": "+94770000000"}
						},
						"opportunity": {
							"id": 9001,
							"title": "Teach English in Jaffna",
							"programme": {"short_name_display": "GV"},
							"host_lc": {"id": 12, "name": "JAFFNA"}
						}
					},
					{
						"id": "55002",
						"created_at": "2026-03-02T11:00:00Z",
						"person": null,
						"opportunity": null
					}
				]
			}
		}
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewApplicationFetcher(newTestClient(srv))
	records, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	r := records[0]
	if r.ID != "55001" || r.Kind != model.KindApplication {
		t.Errorf("record = %+v", r)
	}
	a := r.Application
	if a.PersonName != "Ayesha Fernando" || a.PersonPhone != "+94770000000" {
		t.Errorf("person fields = %+v", a)
	}
	if a.FunctionCode != "GV" || a.HostLocation != "JAFFNA" {
		t.Errorf("routing fields = %q/%q, want GV/JAFFNA", a.FunctionCode, a.HostLocation)
	}
	if a.OpportunityID != "9001" || a.OpportunityTitle != "Teach English in Jaffna" {
		t.Errorf("opportunity fields = %+v", a)
	}

	// Missing nested objects leave routing fields empty rather than failing.
	if records[1].Application == nil || records[1].Application.FunctionCode != "" {
		t.Errorf("expected empty application payload, got %+v", records[1].Application)
	}
}

func TestApplicationFetchPage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewApplicationFetcher(newTestClient(srv))
	_, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected HTTPError 502, got %v", err)
	}
	if errors.Is(err, model.ErrInvalidResponse) {
		t.Errorf("a 502 is transient, not an invalid response: %v", err)
	}
}

func TestApplicationFetchPage_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewApplicationFetcher(NewGraphQLClient(url, "tok", http.DefaultClient))
	_, err := f.FetchPage(context.Background(), model.PageParams{Page: 1, PerPage: 10})
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}
