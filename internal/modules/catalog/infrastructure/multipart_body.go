package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strings"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/normalization"
)

// encodeWriteBody renders a create/update payload. Payloads carrying files go out as
// multipart form data; everything else is JSON.
func encodeWriteBody(entity domain.EntityConfig, payload domain.WritePayload) (io.Reader, string, error) {
	if !payload.HasFiles() {
		fields := payload.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil, "", fmt.Errorf("encode %s payload: %w", entity.Name, err)
		}
		return bytes.NewReader(encoded), "application/json", nil
	}

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)

	keys := make([]string, 0, len(payload.Fields))
	for key := range payload.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value, ok := formValue(payload.Fields[key])
		if !ok {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}

	for _, file := range payload.Files {
		if len(file.Content) == 0 {
			continue
		}
		if !entity.AcceptsFile(file.Field) {
			return nil, "", fmt.Errorf("%w: %s does not accept a file in %q", port.ErrUnsupported, entity.Name, file.Field)
		}
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.Field), escapeQuotes(fileNameOrDefault(file))))
		contentType := strings.TrimSpace(file.ContentType)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buffer, writer.FormDataContentType(), nil
}

func formValue(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		return typed, true
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	default:
		if text := normalization.AsString(typed); text != "" {
			return text, true
		}
		return fmt.Sprint(typed), true
	}
}

func fileNameOrDefault(file domain.FileUpload) string {
	if name := strings.TrimSpace(file.FileName); name != "" {
		return name
	}
	return file.Field
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(value string) string {
	return quoteEscaper.Replace(value)
}
