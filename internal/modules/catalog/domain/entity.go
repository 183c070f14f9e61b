package domain

import (
	"sort"
	"strings"

	"lmsWs/internal/shared/normalization"
)

// EntityConfig describes one backend resource. A single table of these replaces the
// per-entity copies of list/detail/create/update/delete helpers.
type EntityConfig struct {
	// Name is the canonical gateway name ("courses").
	Name string
	// Controller is the REST path segment ("Course").
	Controller string
	// SearchPath overrides the keyword search route; defaults to /{Controller}/search.
	SearchPath string
	// FilterAliases maps lower-cased filter keys onto backend query names.
	FilterAliases map[string]string
	// InjectStatus adds status=true to fetched records lacking one.
	InjectStatus bool
	// FileFields lists the form fields that may carry an upload; their presence switches
	// writes to multipart.
	FileFields []string
	DefaultSort       string
	DefaultDescending bool
	ReadOnly          bool
}

// ListPath is the collection route.
func (e EntityConfig) ListPath() string {
	return "/" + strings.Trim(e.Controller, "/")
}

// ResourcePath is the route of a single record.
func (e EntityConfig) ResourcePath(id string) string {
	return e.ListPath() + "/" + strings.TrimSpace(id)
}

// SearchRoute is the keyword search route.
func (e EntityConfig) SearchRoute() string {
	if path := strings.TrimSpace(e.SearchPath); path != "" {
		return path
	}
	return e.ListPath() + "/search"
}

// AcceptsFile reports whether field is a declared upload field.
func (e EntityConfig) AcceptsFile(field string) bool {
	for _, candidate := range e.FileFields {
		if strings.EqualFold(candidate, strings.TrimSpace(field)) {
			return true
		}
	}
	return false
}

// DefaultQuery is the mount-time query for this entity.
func (e EntityConfig) DefaultQuery(pageSize int) ListQuery {
	query := NewListQuery(pageSize)
	query.SortField = e.DefaultSort
	query.Ascending = !e.DefaultDescending
	return query
}

var entities = map[string]EntityConfig{
	"courses": {
		Name:         "courses",
		Controller:   "Course",
		InjectStatus: true,
		FileFields:   []string{"image", "thumbnail"},
	},
	"lessons": {
		Name:          "lessons",
		Controller:    "Lesson",
		InjectStatus:  true,
		FilterAliases: map[string]string{"courseid": "CourseID"},
	},
	"problems": {
		Name:          "problems",
		Controller:    "Problem",
		InjectStatus:  true,
		FilterAliases: map[string]string{"lessonid": "LessonID", "difficulty": "Difficulty"},
	},
	"blogs": {
		Name:          "blogs",
		Controller:    "Blog",
		InjectStatus:  true,
		FileFields:    []string{"image"},
		FilterAliases: map[string]string{"coderid": "CoderID"},
	},
	"coders": {
		Name:       "coders",
		Controller: "Coder",
		FileFields: []string{"avatar"},
	},
	"comments": {
		Name:       "comments",
		Controller: "Comment",
		FilterAliases: map[string]string{
			"blogid":    "BlogID",
			"problemid": "ProblemID",
			"coderid":   "CoderID",
		},
	},
	"submissions": {
		Name:       "submissions",
		Controller: "Submission",
		FilterAliases: map[string]string{
			"problemid": "ProblemID",
			"coderid":   "CoderID",
		},
		DefaultSort:       "submitTime",
		DefaultDescending: true,
	},
	"testcases": {
		Name:          "testcases",
		Controller:    "TestCase",
		FilterAliases: map[string]string{"problemid": "ProblemID"},
	},
	"languages": {
		Name:       "languages",
		Controller: "Language",
		ReadOnly:   true,
	},
	"rankings": {
		Name:              "rankings",
		Controller:        "Ranking",
		DefaultSort:       "totalScore",
		DefaultDescending: true,
		ReadOnly:          true,
	},
}

// LookupEntity resolves any accepted spelling of an entity name.
func LookupEntity(name string) (EntityConfig, bool) {
	config, ok := entities[normalization.NormalizeEntity(name)]
	return config, ok
}

// EntityNames lists every configured entity, sorted.
func EntityNames() []string {
	names := make([]string, 0, len(entities))
	for name := range entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
