package adapter

import (
	"context"

	"github.com/amishk599/expawatch/internal/model"
)

const applicationsQuery = `query ApplicationIndexQuery($page: Int, $perPage: Int, $filters: ApplicationFilter, $q: String) {
  allOpportunityApplication(page: $page, per_page: $perPage, filters: $filters, q: $q) {
    data {
      id
      status
      created_at
      person {
        id
        full_name
        email
        contact_detail { phone country_code }
      }
      opportunity {
        id
        title
        programme { short_name_display }
        host_lc { id name }
      }
    }
    paging { total_items current_page total_pages }
  }
}`

type expaApplication struct {
	ID        flexString `json:"id"`
	Status    string     `json:"status"`
	CreatedAt string     `json:"created_at"`
	Person    *struct {
		FullName      string `json:"full_name"`
		Email         string `json:"email"`
		ContactDetail *struct {
			Phone string `json:"phone"`
		} `json:"contact_detail"`
	} `json:"person"`
	Opportunity *struct {
		ID        flexString `json:"id"`
		Title     string     `json:"title"`
		Programme *struct {
			ShortName string `json:"short_name_display"`
		} `json:"programme"`
		HostLC *namedRef `json:"host_lc"`
	} `json:"opportunity"`
}

type applicationsData struct {
	AllOpportunityApplication struct {
		Data []expaApplication `json:"data"`
	} `json:"allOpportunityApplication"`
}

// ApplicationFetcher fetches newly created opportunity applications from EXPA.
type ApplicationFetcher struct {
	client *GraphQLClient
}

// NewApplicationFetcher creates a fetcher for the application kind.
func NewApplicationFetcher(client *GraphQLClient) *ApplicationFetcher {
	return &ApplicationFetcher{client: client}
}

// FetchPage retrieves one page of applications and normalizes them into Records.
func (f *ApplicationFetcher) FetchPage(ctx context.Context, page model.PageParams) ([]model.Record, error) {
	var data applicationsData
	if err := f.client.Do(ctx, "ApplicationIndexQuery", applicationsQuery, pageVariables(page), &data); err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(data.AllOpportunityApplication.Data))
	for _, a := range data.AllOpportunityApplication.Data {
		if a.ID == "" {
			continue
		}
		app := &model.Application{Status: a.Status}
		if a.Person != nil {
			app.PersonName = a.Person.FullName
			app.PersonEmail = a.Person.Email
			if a.Person.ContactDetail != nil {
				app.PersonPhone = a.Person.ContactDetail.Phone
			}
		}
		if o := a.Opportunity; o != nil {
			app.OpportunityID = string(o.ID)
			app.OpportunityTitle = o.Title
			if o.Programme != nil {
				app.FunctionCode = o.Programme.ShortName
			}
			if o.HostLC != nil {
				app.HostLocation = o.HostLC.Name
			}
		}
		records = append(records, model.Record{
			ID:          string(a.ID),
			Kind:        model.KindApplication,
			CreatedAt:   parseTime(a.CreatedAt),
			Application: app,
		})
	}
	return records, nil
}
