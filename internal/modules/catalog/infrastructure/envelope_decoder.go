package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/normalization"
)

// decodeListEnvelope normalizes {data,totalPages,totalCount}. A bare array is the whole
// unpaginated result set and is sliced to the requested page here. Pages longer than
// pageSize are truncated and an under-reported totalCount is raised.
func decodeListEnvelope(raw []byte, page, pageSize int, entity domain.EntityConfig) (domain.ListResult, error) {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.EmptyListResult(), nil
	}

	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return domain.ListResult{}, fmt.Errorf("decode list: %w", err)
	}

	var (
		items      []map[string]any
		totalPages int
		totalCount int
	)
	switch typed := payload.(type) {
	case []any:
		all := normalization.AsMapSlice(typed)
		totalCount = len(all)
		totalPages = pagesFor(totalCount, pageSize)
		items = pageOf(all, page, pageSize)
	case map[string]any:
		items = normalization.AsMapSlice(firstPresent(typed, "data", "Data", "items", "Items"))
		totalPages = normalization.AsInt(firstPresent(typed, "totalPages", "TotalPages", "total_pages"))
		totalCount = normalization.AsInt(firstPresent(typed, "totalCount", "TotalCount", "total_count", "total"))
	default:
		return domain.ListResult{}, fmt.Errorf("decode list: unexpected payload %T", payload)
	}

	if len(items) > pageSize {
		slog.Warn("list page longer than page size", slog.String("entity", entity.Name), slog.Int("items", len(items)), slog.Int("pageSize", pageSize))
		items = items[:pageSize]
	}
	if totalCount < len(items) {
		totalCount = len(items)
	}
	if totalPages < 0 {
		totalPages = 0
	}
	if totalPages == 0 && totalCount > 0 {
		totalPages = pagesFor(totalCount, pageSize)
	}

	result := domain.ListResult{Items: make([]domain.Record, 0, len(items)), TotalPages: totalPages, TotalCount: totalCount}
	for _, item := range items {
		result.Items = append(result.Items, prepareRecord(item, entity))
	}
	return result, nil
}

// decodeRecord accepts a bare object or one wrapped in {data: {...}}. An empty body is an
// empty record.
func decodeRecord(raw []byte, entity domain.EntityConfig) (domain.Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.Record{}, nil
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	object, ok := payload.(map[string]any)
	if !ok {
		return domain.Record{"value": payload}, nil
	}
	if inner, ok := object["data"].(map[string]any); ok && normalization.FirstString(object, "id", "ID", "Id") == "" {
		object = inner
	}
	return prepareRecord(object, entity), nil
}

func prepareRecord(item map[string]any, entity domain.EntityConfig) domain.Record {
	record := domain.Record(item)
	if entity.InjectStatus {
		if _, ok := record["status"]; !ok {
			record["status"] = true
		}
	}
	return record
}

// serverErrorFrom builds the error for a non-2xx response. The message is looked up in
// message, error, title and errors, then falls back to the status text.
func serverErrorFrom(status int, raw []byte) *port.ServerError {
	var object map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(raw), &object); err != nil || object == nil {
		text := strings.TrimSpace(string(raw))
		if len(text) > 200 || strings.HasPrefix(text, "<") {
			text = ""
		}
		return port.NewServerError(status, text, nil)
	}
	return port.NewServerError(status, errorMessage(object), fieldErrors(object["errors"]))
}

// payloadError detects 2xx payloads that still report a failure.
func payloadError(raw []byte) *port.ServerError {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var object map[string]any
	if err := json.Unmarshal(trimmed, &object); err != nil {
		return nil
	}
	failed := false
	if success, ok := normalization.AsBool(object["success"]); ok && !success {
		failed = true
	}
	if errorText(object["error"]) != "" {
		failed = true
	}
	if !failed {
		return nil
	}
	message := errorMessage(object)
	if message == "" {
		message = "request failed"
	}
	return port.NewServerError(http.StatusOK, message, fieldErrors(object["errors"]))
}

func errorMessage(object map[string]any) string {
	for _, key := range []string{"message", "Message", "error", "title"} {
		if text := errorText(object[key]); text != "" {
			return text
		}
	}
	fields := fieldErrors(object["errors"])
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for key := range fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return fields[keys[0]]
	}
	if list, ok := object["errors"].([]any); ok && len(list) > 0 {
		return errorText(list[0])
	}
	return errorText(object["errors"])
}

func errorText(value any) string {
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		return normalization.FirstString(typed, "message", "Message", "description")
	default:
		return ""
	}
}

// fieldErrors reads the {Field: ["message", ...]} shape used for validation failures.
func fieldErrors(value any) map[string]string {
	object, ok := value.(map[string]any)
	if !ok || len(object) == 0 {
		return nil
	}
	fields := make(map[string]string, len(object))
	for key, entry := range object {
		switch typed := entry.(type) {
		case string:
			fields[key] = strings.TrimSpace(typed)
		case []any:
			for _, candidate := range typed {
				if text := errorText(candidate); text != "" {
					fields[key] = text
					break
				}
			}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func firstPresent(object map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := object[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// pageOf returns the page-th slice of size pageSize, empty past the end.
func pageOf(items []map[string]any, page, pageSize int) []map[string]any {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func pagesFor(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}
