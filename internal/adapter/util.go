package adapter

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type namedRef struct {
	Name string `json:"name"`
}

// flexString accepts an id encoded as either a JSON string or a number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// programmeCodes decodes selected_programmes, which EXPA sends either as
// numbers or as numeric strings. Entries that are neither are dropped.
type programmeCodes []int

func (p *programmeCodes) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		// null or a non-array: treat as no selection
		*p = nil
		return nil
	}
	codes := make([]int, 0, len(raw))
	for _, r := range raw {
		var n int
		if err := json.Unmarshal(r, &n); err == nil {
			codes = append(codes, n)
			continue
		}
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				codes = append(codes, n)
			}
		}
	}
	*p = codes
	return nil
}

// parseTime parses an EXPA timestamp. Returns the zero time if unparseable.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
