package model

import (
	"context"
	"time"
)

// Kind identifies an upstream record type. Each kind is its own store partition.
type Kind string

const (
	KindSignup      Kind = "signup"
	KindApplication Kind = "application"
)

// Kinds lists every supported kind in polling order.
var Kinds = []Kind{KindSignup, KindApplication}

// Collection returns the store partition name for the kind ("signups", "applications").
func (k Kind) Collection() string {
	switch k {
	case KindSignup:
		return "signups"
	case KindApplication:
		return "applications"
	default:
		return ""
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k.Collection() != ""
}

// Unified representation of an upstream EXPA record.
// Exactly one of Signup / Application is set, matching Kind.
type Record struct {
	ID          string       `json:"id"` // unique within its kind, immutable
	Kind        Kind         `json:"kind"`
	CreatedAt   time.Time    `json:"created_at"`
	Signup      *Signup      `json:"signup,omitempty"`
	Application *Application `json:"application,omitempty"`
}

// Signup is a person created upstream.
type Signup struct {
	FullName           string `json:"full_name"`
	Email              string `json:"email,omitempty"`
	Phone              string `json:"phone,omitempty"`
	CountryCode        string `json:"country_code,omitempty"`
	HomeLC             string `json:"home_lc,omitempty"`
	SelectedProgrammes []int  `json:"selected_programmes,omitempty"`
}

// Application links a person to an opportunity.
type Application struct {
	Status           string `json:"status,omitempty"`
	PersonName       string `json:"person_name"`
	PersonEmail      string `json:"person_email,omitempty"`
	PersonPhone      string `json:"person_phone,omitempty"`
	OpportunityID    string `json:"opportunity_id,omitempty"`
	OpportunityTitle string `json:"opportunity_title,omitempty"`
	FunctionCode     string `json:"function_code"` // programme short name: GTe, GTa, GV, ...
	HostLocation     string `json:"host_location"` // opportunity host LC name
}

// StoredRecord is a Record as persisted locally. Written once, never updated.
type StoredRecord struct {
	Record
	FetchedAt time.Time `json:"fetched_at"`
}

// PageParams are passed through to the upstream unvalidated.
type PageParams struct {
	Page    int
	PerPage int
	Filters map[string]any
	Query   string
}

// RecordFetcher fetches one page of records of a single kind.
type RecordFetcher interface {
	FetchPage(ctx context.Context, page PageParams) ([]Record, error)
}

// RecordStore persists records keyed by (kind, id) and never overwrites.
type RecordStore interface {
	InsertIfAbsent(ctx context.Context, rec Record) (InsertResult, error)
	Get(ctx context.Context, kind Kind, id string) (StoredRecord, error)
	// List returns records newest first; limit <= 0 means no limit.
	List(ctx context.Context, kind Kind, limit int) ([]StoredRecord, error)
	Close() error
}

// Classifier maps a record to the channel its notification goes to.
type Classifier interface {
	Classify(rec Record) RoutingKey
}

// Notifier delivers a message about rec to the channel bound to key.
type Notifier interface {
	Notify(ctx context.Context, key RoutingKey, rec Record) (NotifyResult, error)
}
