package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// OpenListCommand opens (or replaces) a list controller within a websocket session.
type OpenListCommand struct {
	ListID    string            `json:"listId"`
	Mode      string            `json:"mode"`
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	SortField string            `json:"sortField"`
	Ascending *bool             `json:"ascending,omitempty"`
	Keyword   string            `json:"keyword"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// Query builds the initial query on top of the entity defaults.
func (c OpenListCommand) Query(defaults ListQuery) ListQuery {
	query := defaults
	if c.Page > 0 {
		query.Page = c.Page
	}
	if c.PageSize > 0 {
		query.PageSize = c.PageSize
	}
	if field := strings.TrimSpace(c.SortField); field != "" {
		query.SortField = field
		query.Ascending = true
	}
	if c.Ascending != nil {
		query.Ascending = *c.Ascending
	}
	query.Keyword = c.Keyword
	query.Filters = c.Filters
	return query.Normalize()
}

// ListRefCommand addresses an open list: load_more, refresh, close.
type ListRefCommand struct {
	ListID string `json:"listId"`
}

type SortCommand struct {
	ListID string `json:"listId"`
	Field  string `json:"field"`
}

type PageCommand struct {
	ListID string `json:"listId"`
	Page   int    `json:"page"`
}

type PageSizeCommand struct {
	ListID   string `json:"listId"`
	PageSize int    `json:"pageSize"`
}

type SearchCommand struct {
	ListID  string `json:"listId"`
	Keyword string `json:"keyword"`
}

type FilterCommand struct {
	ListID  string            `json:"listId"`
	Filters map[string]string `json:"filters"`
}

// GetEntityCommand retrieves a resource by identifier.
type GetEntityCommand struct {
	ID string `json:"id"`
}

// EncodedFile is a file sent inline over the websocket.
type EncodedFile struct {
	Field       string `json:"field"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// WriteEntityCommand carries create/update/delete requests. ID is ignored on create.
type WriteEntityCommand struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
	Files  []EncodedFile  `json:"files,omitempty"`
}

// Payload decodes the inline files into a WritePayload.
func (c WriteEntityCommand) Payload() (WritePayload, error) {
	payload := WritePayload{Fields: c.Fields}
	for _, file := range c.Files {
		content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(file.Content))
		if err != nil {
			return WritePayload{}, fmt.Errorf("file %q: %w", file.Field, err)
		}
		payload.Files = append(payload.Files, FileUpload{
			Field:       strings.TrimSpace(file.Field),
			FileName:    strings.TrimSpace(file.FileName),
			ContentType: strings.TrimSpace(file.ContentType),
			Content:     content,
		})
	}
	return payload, nil
}
