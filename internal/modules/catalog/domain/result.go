package domain

import (
	"encoding/json"

	"lmsWs/internal/shared/normalization"
)

// Record is one backend entity (course, lesson, problem, ...) as returned by the API.
type Record map[string]any

// ID returns the record identifier under the usual backend spellings.
func (r Record) ID() string {
	return normalization.FirstString(r, "id", "ID", "Id")
}

// ListResult is the normalized list envelope.
type ListResult struct {
	Items      []Record `json:"data"`
	TotalPages int      `json:"totalPages"`
	TotalCount int      `json:"totalCount"`
}

// EmptyListResult is what blank searches and cleared lists resolve to.
func EmptyListResult() ListResult {
	return ListResult{Items: []Record{}}
}

// Append concatenates next after r, keeping order and adopting next's counters.
func (r ListResult) Append(next ListResult) ListResult {
	items := make([]Record, 0, len(r.Items)+len(next.Items))
	items = append(items, r.Items...)
	items = append(items, next.Items...)
	return ListResult{Items: items, TotalPages: next.TotalPages, TotalCount: next.TotalCount}
}

// Result is the single discriminated outcome returned by every catalog operation:
// either OK with Data, or not OK with Err.
type Result[T any] struct {
	OK   bool
	Data T
	Err  error
}

func Success[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Unwrap converts the union back into Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.OK {
		return json.Marshal(struct {
			OK   bool `json:"ok"`
			Data T    `json:"data"`
		}{OK: true, Data: r.Data})
	}
	message := "unknown error"
	if r.Err != nil {
		message = r.Err.Error()
	}
	return json.Marshal(struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}{Error: message})
}
