package normalization

import "testing"

func TestNormalizeEntity(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Course":       "courses",
		" lessons ":    "lessons",
		"TEST_CASE":    "testcases",
		"leaderboard":  "rankings",
		"user":         "coders",
		"custom-thing": "custom-thing",
		"Custom_Thing": "custom-thing",
	}
	for input, expected := range cases {
		if got := NormalizeEntity(input); got != expected {
			t.Fatalf("NormalizeEntity(%q) expected %q got %q", input, expected, got)
		}
	}
}

func TestAsInt(t *testing.T) {
	cases := []struct {
		in   any
		want int
	}{
		{float64(12), 12},
		{"7", 7},
		{" 3.0 ", 3},
		{"x", 0},
		{nil, 0},
		{int64(9), 9},
	}
	for _, tc := range cases {
		if got := AsInt(tc.in); got != tc.want {
			t.Fatalf("AsInt(%#v) expected %d got %d", tc.in, tc.want, got)
		}
	}
}

func TestAsStringFormatsIDs(t *testing.T) {
	if got := AsString(float64(1234567)); got != "1234567" {
		t.Fatalf("expected plain integer formatting, got %q", got)
	}
	if got := AsString("  abc "); got != "abc" {
		t.Fatalf("expected trimmed string, got %q", got)
	}
}

func TestAsBool(t *testing.T) {
	if v, ok := AsBool("true"); !ok || !v {
		t.Fatal("expected true")
	}
	if _, ok := AsBool("maybe"); ok {
		t.Fatal("expected not ok")
	}
	if v, ok := AsBool(false); !ok || v {
		t.Fatal("expected false, ok")
	}
}

func TestAsMapSliceSkipsNonObjects(t *testing.T) {
	items := AsMapSlice([]any{map[string]any{"id": 1.0}, "x", 3.0})
	if len(items) != 1 {
		t.Fatalf("expected one object, got %d", len(items))
	}
}
