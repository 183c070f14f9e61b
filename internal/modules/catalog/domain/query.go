package domain

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery is the client-side state of one paginated list: which page, how big,
// how it is sorted and which keyword/filters narrow it.
type ListQuery struct {
	Page      int               `json:"page"`
	PageSize  int               `json:"pageSize"`
	SortField string            `json:"sortField,omitempty"`
	Ascending bool              `json:"ascending"`
	Keyword   string            `json:"keyword,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
}

// NewListQuery returns the mount-time defaults: first page, ascending.
func NewListQuery(pageSize int) ListQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ListQuery{Page: 1, PageSize: pageSize, Ascending: true}
}

// Normalize returns a sanitized copy with bounds applied.
func (q ListQuery) Normalize() ListQuery {
	normalized := q
	if normalized.Page < 1 {
		normalized.Page = 1
	}
	if normalized.PageSize <= 0 {
		normalized.PageSize = DefaultPageSize
	}
	if normalized.PageSize > MaxPageSize {
		normalized.PageSize = MaxPageSize
	}
	normalized.SortField = strings.TrimSpace(normalized.SortField)
	normalized.Keyword = NormalizeKeyword(normalized.Keyword)
	normalized.Filters = sanitizeFilters(normalized.Filters)
	return normalized
}

// Clamp keeps Page inside [1, totalPages] once the total is known (totalPages > 0).
func (q ListQuery) Clamp(totalPages int) ListQuery {
	clamped := q
	if clamped.Page < 1 {
		clamped.Page = 1
	}
	if totalPages > 0 && clamped.Page > totalPages {
		clamped.Page = totalPages
	}
	return clamped
}

// CanonicalKey builds a stable key for the query; equal keys mean equal backend requests.
func (q ListQuery) CanonicalKey() string {
	normalized := q.Normalize()
	fold := cases.Fold()

	var builder strings.Builder
	builder.WriteString("page=")
	builder.WriteString(strconv.Itoa(normalized.Page))
	builder.WriteString("&size=")
	builder.WriteString(strconv.Itoa(normalized.PageSize))
	builder.WriteString("&sort=")
	builder.WriteString(fold.String(normalized.SortField))
	builder.WriteString("&asc=")
	builder.WriteString(strconv.FormatBool(normalized.Ascending))
	if normalized.Keyword != "" {
		builder.WriteString("&kw=")
		builder.WriteString(fold.String(normalized.Keyword))
	}
	if len(normalized.Filters) > 0 {
		keys := make([]string, 0, len(normalized.Filters))
		for key := range normalized.Filters {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		builder.WriteString("&f=")
		for index, key := range keys {
			if index > 0 {
				builder.WriteString(";")
			}
			builder.WriteString(key)
			builder.WriteString("=")
			builder.WriteString(normalized.Filters[key])
		}
	}
	return builder.String()
}

// Values renders the wire query parameters. aliases maps lower-cased filter keys onto
// the backend's spelling (e.g. "problemid" -> "ProblemID").
func (q ListQuery) Values(aliases map[string]string) url.Values {
	normalized := q.Normalize()
	values := url.Values{}
	values.Set("Page", strconv.Itoa(normalized.Page))
	values.Set("PageSize", strconv.Itoa(normalized.PageSize))
	values.Set("ascending", strconv.FormatBool(normalized.Ascending))
	if normalized.SortField != "" {
		values.Set("sortField", normalized.SortField)
	}
	if normalized.Keyword != "" {
		values.Set("keyword", normalized.Keyword)
	}
	for key, value := range normalized.Filters {
		if aliased, ok := aliases[key]; ok && strings.TrimSpace(aliased) != "" {
			key = aliased
		}
		values.Set(key, value)
	}
	return values
}

// Metadata flattens the query for websocket message metadata.
func (q ListQuery) Metadata() Metadata {
	normalized := q.Normalize()
	metadata := Metadata{
		"page":      strconv.Itoa(normalized.Page),
		"pageSize":  strconv.Itoa(normalized.PageSize),
		"ascending": strconv.FormatBool(normalized.Ascending),
	}
	if normalized.SortField != "" {
		metadata["sortField"] = normalized.SortField
	}
	if normalized.Keyword != "" {
		metadata["keyword"] = normalized.Keyword
	}
	return metadata
}

// NormalizeKeyword trims, collapses inner whitespace and applies NFC so visually equal
// keywords produce the same request.
func NormalizeKeyword(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return ""
	}
	return norm.NFC.String(collapsed)
}

func sanitizeFilters(filters map[string]string) map[string]string {
	if len(filters) == 0 {
		return nil
	}
	sanitized := make(map[string]string, len(filters))
	for key, value := range filters {
		trimmedKey := strings.ToLower(strings.TrimSpace(key))
		trimmedValue := strings.TrimSpace(value)
		if trimmedKey == "" || trimmedValue == "" {
			continue
		}
		sanitized[trimmedKey] = trimmedValue
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}
