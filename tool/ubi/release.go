package ubi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/anchore/ubiforge"
)

// release is a single element of a release listing. Fields other than tag_name are ignored.
type release struct {
	TagName *string `json:"tag_name"`
}

// parseReleaseTags extracts the tag of every release, preserving the order of the listing.
func parseReleaseTags(body []byte) ([]string, error) {
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: response body is not valid JSON", ubiforge.ErrParse)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array of releases", ubiforge.ErrSchema)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ubiforge.ErrSchema, err)
	}

	tags := make([]string, 0, len(items))
	for i, item := range items {
		var r release
		if err := json.Unmarshal(item, &r); err != nil {
			return nil, fmt.Errorf("%w: release %d: %v", ubiforge.ErrSchema, i, err)
		}
		if r.TagName == nil {
			return nil, fmt.Errorf("%w: release %d has no tag_name", ubiforge.ErrSchema, i)
		}
		tags = append(tags, *r.TagName)
	}

	return tags, nil
}
