package timeline

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// PageSize is the number of entries requested per page
	PageSize = 40

	// RequestContext is the fixed requestContext variable
	RequestContext = "launch"
)

// Variables is the JSON document sent in the variables query parameter
type Variables struct {
	Count                  int    `json:"count"`
	IncludePromotedContent bool   `json:"includePromotedContent"`
	LatestControlAvailable bool   `json:"latestControlAvailable"`
	RequestContext         string `json:"requestContext"`
	Cursor                 string `json:"cursor,omitempty"`
}

// NewVariables returns the fixed request variables, with the cursor set
// only when one is given
func NewVariables(cursor Cursor) Variables {
	return Variables{
		Count:                  PageSize,
		IncludePromotedContent: false,
		LatestControlAvailable: true,
		RequestContext:         RequestContext,
		Cursor:                 string(cursor),
	}
}

// PageURL builds the request URL for one page
func PageURL(baseURL, path string, cursor Cursor) (string, error) {
	vars, err := json.Marshal(NewVariables(cursor))
	if err != nil {
		return "", fmt.Errorf("encode variables: %w", err)
	}

	params := url.Values{}
	params.Set("variables", string(vars))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), path, params.Encode()), nil
}
