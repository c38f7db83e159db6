package adapter

import (
	"context"
	"strings"

	"github.com/amishk599/expawatch/internal/model"
)

const peopleQuery = `query PeopleIndexQuery($page: Int, $perPage: Int, $filters: PeopleFilter, $q: String) {
  allPeople(page: $page, per_page: $perPage, filters: $filters, q: $q) {
    data {
      id
      full_name
      first_name
      last_name
      email
      created_at
      home_lc { id name }
      contact_detail { phone country_code }
      person_profile { selected_programmes }
    }
    paging { total_items current_page total_pages }
  }
}`

type expaPerson struct {
	ID            flexString `json:"id"`
	FullName      string     `json:"full_name"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	CreatedAt     string     `json:"created_at"`
	HomeLC        *namedRef  `json:"home_lc"`
	ContactDetail *struct {
		Phone       string `json:"phone"`
		CountryCode string `json:"country_code"`
	} `json:"contact_detail"`
	PersonProfile *struct {
		SelectedProgrammes programmeCodes `json:"selected_programmes"`
	} `json:"person_profile"`
}

type peopleData struct {
	AllPeople struct {
		Data []expaPerson `json:"data"`
	} `json:"allPeople"`
}

// SignupFetcher fetches newly created people from EXPA.
type SignupFetcher struct {
	client *GraphQLClient
}

// NewSignupFetcher creates a fetcher for the signup kind.
func NewSignupFetcher(client *GraphQLClient) *SignupFetcher {
	return &SignupFetcher{client: client}
}

// FetchPage retrieves one page of people and normalizes them into Records.
// People without an id are dropped.
func (f *SignupFetcher) FetchPage(ctx context.Context, page model.PageParams) ([]model.Record, error) {
	var data peopleData
	if err := f.client.Do(ctx, "PeopleIndexQuery", peopleQuery, pageVariables(page), &data); err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(data.AllPeople.Data))
	for _, p := range data.AllPeople.Data {
		if p.ID == "" {
			continue
		}
		s := &model.Signup{
			FullName: p.FullName,
			Email:    p.Email,
		}
		if s.FullName == "" {
			s.FullName = strings.TrimSpace(p.FirstName + " " + p.LastName)
		}
		if p.HomeLC != nil {
			s.HomeLC = p.HomeLC.Name
		}
		if p.ContactDetail != nil {
			s.Phone = p.ContactDetail.Phone
			s.CountryCode = p.ContactDetail.CountryCode
		}
		if p.PersonProfile != nil {
			s.SelectedProgrammes = p.PersonProfile.SelectedProgrammes
		}
		records = append(records, model.Record{
			ID:        string(p.ID),
			Kind:      model.KindSignup,
			CreatedAt: parseTime(p.CreatedAt),
			Signup:    s,
		})
	}
	return records, nil
}
