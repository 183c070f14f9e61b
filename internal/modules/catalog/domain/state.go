package domain

import "strings"

type ListStatus string

const (
	StatusIdle    ListStatus = "idle"
	StatusLoading ListStatus = "loading"
	StatusLoaded  ListStatus = "loaded"
	StatusError   ListStatus = "error"
)

// ListMode selects whether a fetched page replaces the items or is appended to them.
type ListMode string

const (
	ModePaged    ListMode = "paged"
	ModeInfinite ListMode = "infinite"
)

// ParseListMode accepts "infinite"/"scroll" for infinite scroll; anything else is paged.
func ParseListMode(raw string) ListMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "infinite", "scroll", "infinite-scroll":
		return ModeInfinite
	default:
		return ModePaged
	}
}

// ListState is what a view renders: loading/empty/error/data plus paging counters.
type ListState struct {
	Status     ListStatus `json:"status"`
	Mode       ListMode   `json:"mode"`
	Query      ListQuery  `json:"query"`
	Items      []Record   `json:"items"`
	TotalPages int        `json:"totalPages"`
	TotalCount int        `json:"totalCount"`
	Error      string     `json:"error,omitempty"`
	Generation uint64     `json:"generation"`
	Revision   uint64     `json:"revision"`
	HasMore    bool       `json:"hasMore"`
}

// Empty reports the loaded-but-nothing-to-show state.
func (s ListState) Empty() bool {
	return s.Status == StatusLoaded && len(s.Items) == 0
}

// Clone copies the slices so the snapshot can leave the controller's lock.
func (s ListState) Clone() ListState {
	cloned := s
	if s.Items != nil {
		cloned.Items = append([]Record(nil), s.Items...)
	}
	if s.Query.Filters != nil {
		filters := make(map[string]string, len(s.Query.Filters))
		for key, value := range s.Query.Filters {
			filters[key] = value
		}
		cloned.Query.Filters = filters
	}
	return cloned
}
