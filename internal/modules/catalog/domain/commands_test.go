package domain

import "testing"

func TestOpenListCommandQuery(t *testing.T) {
	descending := false
	command := OpenListCommand{PageSize: 20, SortField: "createdAt", Ascending: &descending, Keyword: "  dp "}
	query := command.Query(NewListQuery(10))

	if query.Page != 1 || query.PageSize != 20 {
		t.Fatalf("unexpected paging %+v", query)
	}
	if query.SortField != "createdAt" || query.Ascending {
		t.Fatalf("unexpected sort %+v", query)
	}
	if query.Keyword != "dp" {
		t.Fatalf("expected trimmed keyword, got %q", query.Keyword)
	}
}

func TestWriteEntityCommandPayload(t *testing.T) {
	command := WriteEntityCommand{
		Fields: map[string]any{"title": "Intro"},
		Files:  []EncodedFile{{Field: "image", FileName: "a.png", ContentType: "image/png", Content: "aGVsbG8="}},
	}
	payload, err := command.Payload()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !payload.HasFiles() || string(payload.Files[0].Content) != "hello" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	command.Files[0].Content = "%%%"
	if _, err := command.Payload(); err == nil {
		t.Fatal("expected invalid base64 to fail")
	}
}

func TestValidationErrorKeepsFirstMessage(t *testing.T) {
	validation := NewValidationError()
	validation.Add("username", "required")
	validation.Add("username", "too short")
	validation.Add("password", "required")

	if validation.Fields["username"] != "required" {
		t.Fatalf("expected first message to win, got %q", validation.Fields["username"])
	}
	if validation.Error() != "validation failed: password: required; username: required" {
		t.Fatalf("unexpected message %q", validation.Error())
	}
}
