package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ListShape names which of the accepted list encodings a response used.
type ListShape int

const (
	// ShapeArray is a bare JSON array of entities.
	ShapeArray ListShape = iota + 1
	// ShapeEnvelope is an object carrying the collection under a named field
	// plus optional paging metadata.
	ShapeEnvelope
)

// Page is a normalized list response. Metadata the server omitted is zero.
type Page[E any] struct {
	Shape      ListShape
	Items      []E
	TotalCount int
	HasTotal   bool
	PageNumber int
	PageSize   int
	TotalPages int
}

type envelopeMeta struct {
	TotalCount *int `json:"totalCount"`
	PageNumber int  `json:"pageNumber"`
	PageSize   int  `json:"pageSize"`
	TotalPages int  `json:"totalPages"`
}

// DecodeList normalizes body into a Page. A bare array is always accepted;
// an object must carry the collection under field.
func DecodeList[E any](body []byte, field string) (Page[E], error) {
	var page Page[E]
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return page, fmt.Errorf("empty list response")
	}

	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &page.Items); err != nil {
			return page, fmt.Errorf("decode list: %w", err)
		}
		page.Shape = ShapeArray
	case '{':
		if field == "" {
			return page, fmt.Errorf("unexpected object list response")
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return page, fmt.Errorf("decode list envelope: %w", err)
		}
		raw, ok := fields[field]
		if !ok {
			return page, fmt.Errorf("list envelope has no %q field", field)
		}
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &page.Items); err != nil {
				return page, fmt.Errorf("decode %s: %w", field, err)
			}
		}
		var meta envelopeMeta
		if err := json.Unmarshal(trimmed, &meta); err != nil {
			return page, fmt.Errorf("decode list metadata: %w", err)
		}
		page.Shape = ShapeEnvelope
		if meta.TotalCount != nil {
			page.TotalCount = *meta.TotalCount
			page.HasTotal = true
		}
		page.PageNumber = meta.PageNumber
		page.PageSize = meta.PageSize
		page.TotalPages = meta.TotalPages
	default:
		return page, fmt.Errorf("unexpected list response")
	}

	if page.Items == nil {
		page.Items = []E{}
	}
	if !page.HasTotal {
		page.TotalCount = len(page.Items)
	}
	return page, nil
}

// DecodeEntity decodes a single entity, either bare or wrapped under field.
func DecodeEntity[E any](body []byte, field string) (E, error) {
	var entity E
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return entity, fmt.Errorf("empty entity response")
	}
	if field != "" && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return entity, fmt.Errorf("decode entity: %w", err)
		}
		if raw, ok := fields[field]; ok && len(raw) > 0 && raw[0] == '{' {
			trimmed = raw
		}
	}
	if err := json.Unmarshal(trimmed, &entity); err != nil {
		return entity, fmt.Errorf("decode entity: %w", err)
	}
	return entity, nil
}

// TotalPages returns ceil(total/pageSize), never below 1.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
