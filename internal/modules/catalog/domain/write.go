package domain

// FileUpload is one file carried by a create/update (avatar, course image, ...).
type FileUpload struct {
	Field       string
	FileName    string
	ContentType string
	Content     []byte
}

// WritePayload is the body of a create or update.
type WritePayload struct {
	Fields map[string]any
	Files  []FileUpload
}

// HasFiles reports whether the payload must travel as multipart form data.
func (p WritePayload) HasFiles() bool {
	for _, file := range p.Files {
		if len(file.Content) > 0 {
			return true
		}
	}
	return false
}
