package normalization

import "strings"

// entityAliases maps the spellings front ends use for a resource to its canonical plural.
var entityAliases = map[string]string{
	"":        "",
	"-":       "",
	"default": "",

	"course":  "courses",
	"courses": "courses",

	"lesson":  "lessons",
	"lessons": "lessons",

	"problem":  "problems",
	"problems": "problems",

	"blog":  "blogs",
	"blogs": "blogs",
	"post":  "blogs",
	"posts": "blogs",

	"coder":   "coders",
	"coders":  "coders",
	"user":    "coders",
	"users":   "coders",
	"profile": "coders",

	"comment":  "comments",
	"comments": "comments",

	"submission":  "submissions",
	"submissions": "submissions",

	"testcase":   "testcases",
	"testcases":  "testcases",
	"test-case":  "testcases",
	"test-cases": "testcases",

	"language":  "languages",
	"languages": "languages",

	"ranking":     "rankings",
	"rankings":    "rankings",
	"leaderboard": "rankings",
}

// NormalizeEntity converts an entity name to its canonical form: lowercase, hyphenated,
// plural. Unknown names are returned normalized but otherwise untouched.
//
//	NormalizeEntity("Course")     => "courses"
//	NormalizeEntity("TEST_CASE")  => "testcases"
func NormalizeEntity(raw string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")
	if canonical, ok := entityAliases[normalized]; ok {
		return canonical
	}
	return normalized
}
