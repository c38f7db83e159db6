package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/amishk599/expawatch/internal/model"
)

// DefaultURL is the EXPA GraphQL endpoint.
const DefaultURL = "https://gis-api.aiesec.org/graphql"

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

// GraphQLClient posts queries to the EXPA GraphQL API.
type GraphQLClient struct {
	url    string
	token  string
	client *http.Client
}

// NewGraphQLClient creates a client. The token is sent verbatim in the
// authorization header.
func NewGraphQLClient(url, token string, client *http.Client) *GraphQLClient {
	return &GraphQLClient{
		url:    url,
		token:  token,
		client: client,
	}
}

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

func pageVariables(page model.PageParams) map[string]any {
	filters := page.Filters
	if filters == nil {
		filters = map[string]any{}
	}
	return map[string]any{
		"page":    page.Page,
		"perPage": page.PerPage,
		"filters": filters,
		"q":       page.Query,
	}
}

// Do executes a query and decodes the response's data object into out.
// Every failure wraps model.ErrFetchFailed; replies that arrived but are unusable
// also wrap model.ErrInvalidResponse.
func (c *GraphQLClient) Do(ctx context.Context, operation, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{
		OperationName: operation,
		Variables:     variables,
		Query:         query,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: marshal request: %v", model.ErrFetchFailed, operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrFetchFailed, operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("authorization", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", model.ErrFetchFailed, operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s: %w", model.ErrFetchFailed, operation, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: retryAfter(resp.Header, time.Now()),
			Err:        fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		})
	}

	var gr graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return fmt.Errorf("%w: %s: %w: decode response: %v", model.ErrFetchFailed, operation, model.ErrInvalidResponse, err)
	}
	if len(gr.Errors) > 0 {
		msgs := make([]string, 0, len(gr.Errors))
		for _, e := range gr.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("%w: %s: %w: graphql errors: %s", model.ErrFetchFailed, operation, model.ErrInvalidResponse, strings.Join(msgs, "; "))
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return fmt.Errorf("%w: %s: %w: response has no data", model.ErrFetchFailed, operation, model.ErrInvalidResponse)
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("%w: %s: %w: decode data: %v", model.ErrFetchFailed, operation, model.ErrInvalidResponse, err)
	}
	return nil
}
