package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"

	"lmsWs/internal/modules/catalog/application/usecase"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/shared/auth"
)

const maxUploadBytes = 32 << 20

var schemaDecoder = func() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return decoder
}()

// listParams is the query string accepted by GET /api/:entity. Every other query key is
// treated as a filter.
type listParams struct {
	Page      int    `schema:"page" validate:"omitempty,min=1"`
	PageSize  int    `schema:"pageSize" validate:"omitempty,min=1,max=100"`
	SortField string `schema:"sortField" validate:"max=64"`
	Ascending *bool  `schema:"ascending"`
	Keyword   string `schema:"keyword" validate:"max=200"`
}

var reservedListKeys = map[string]struct{}{
	"page": {}, "pagesize": {}, "sortfield": {}, "ascending": {}, "keyword": {}, "token": {},
}

// EntityHandler proxies list/detail/write calls for every configured entity.
type EntityHandler struct {
	catalog  *usecase.CatalogUseCase
	validate *validator.Validate
	pageSize int
}

func NewEntityHandler(catalog *usecase.CatalogUseCase, validate *validator.Validate, pageSize int) *EntityHandler {
	if validate == nil {
		validate = usecase.NewValidator()
	}
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &EntityHandler{catalog: catalog, validate: validate, pageSize: pageSize}
}

func (h *EntityHandler) List(c echo.Context) error {
	config, err := h.resolve(c)
	if err != nil {
		return err
	}
	query, err := h.decodeQuery(c, config)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, http.StatusOK, h.catalog.List(c.Request().Context(), requestToken(c), config.Name, query))
}

func (h *EntityHandler) Search(c echo.Context) error {
	config, err := h.resolve(c)
	if err != nil {
		return err
	}
	query, err := h.decodeQuery(c, config)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, http.StatusOK, h.catalog.Search(c.Request().Context(), requestToken(c), config.Name, query.Keyword, query))
}

func (h *EntityHandler) Detail(c echo.Context) error {
	config, err := h.resolve(c)
	if err != nil {
		return err
	}
	return respondResult(c, http.StatusOK, h.catalog.Detail(c.Request().Context(), requestToken(c), config.Name, c.Param("id")))
}

func (h *EntityHandler) Create(c echo.Context) error {
	config, err := h.resolveWritable(c)
	if err != nil {
		return err
	}
	payload, err := decodeWriteBody(c)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, http.StatusCreated, h.catalog.Create(c.Request().Context(), requestToken(c), config.Name, payload))
}

func (h *EntityHandler) Update(c echo.Context) error {
	config, err := h.resolveWritable(c)
	if err != nil {
		return err
	}
	payload, err := decodeWriteBody(c)
	if err != nil {
		return respondError(c, err)
	}
	return respondResult(c, http.StatusOK, h.catalog.Update(c.Request().Context(), requestToken(c), config.Name, c.Param("id"), payload))
}

func (h *EntityHandler) Delete(c echo.Context) error {
	config, err := h.resolveWritable(c)
	if err != nil {
		return err
	}
	return respondResult(c, http.StatusOK, h.catalog.Delete(c.Request().Context(), requestToken(c), config.Name, c.Param("id")))
}

func (h *EntityHandler) resolve(c echo.Context) (domain.EntityConfig, error) {
	config, err := h.catalog.Resolve(c.Param("entity"))
	if err != nil {
		return config, echo.NewHTTPError(http.StatusNotFound, "entity "+strings.TrimSpace(c.Param("entity"))+" is not integrated")
	}
	return config, nil
}

func (h *EntityHandler) resolveWritable(c echo.Context) (domain.EntityConfig, error) {
	config, err := h.resolve(c)
	if err != nil {
		return config, err
	}
	if config.ReadOnly {
		return config, echo.NewHTTPError(http.StatusMethodNotAllowed, config.Name+" is read-only")
	}
	return config, nil
}

func (h *EntityHandler) decodeQuery(c echo.Context, config domain.EntityConfig) (domain.ListQuery, error) {
	values := c.QueryParams()
	var params listParams
	if err := schemaDecoder.Decode(&params, values); err != nil {
		verr := domain.NewValidationError()
		verr.Add("query", err.Error())
		return domain.ListQuery{}, verr
	}
	if err := h.validate.Struct(params); err != nil {
		verr := domain.NewValidationError()
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range fieldErrs {
				name := schemaName(fieldErr.StructField())
				verr.Add(name, fmt.Sprintf("%s must satisfy %s", name, fieldErr.Tag()))
			}
		} else {
			verr.Add("query", err.Error())
		}
		return domain.ListQuery{}, verr
	}

	query := config.DefaultQuery(h.pageSize)
	if params.Page > 0 {
		query.Page = params.Page
	}
	if params.PageSize > 0 {
		query.PageSize = params.PageSize
	}
	if field := strings.TrimSpace(params.SortField); field != "" {
		query.SortField = field
		query.Ascending = true
	}
	if params.Ascending != nil {
		query.Ascending = *params.Ascending
	}
	query.Keyword = params.Keyword
	for key, list := range values {
		if _, reserved := reservedListKeys[strings.ToLower(key)]; reserved || len(list) == 0 {
			continue
		}
		if query.Filters == nil {
			query.Filters = map[string]string{}
		}
		query.Filters[key] = list[0]
	}
	return query.Normalize(), nil
}

func schemaName(structField string) string {
	switch structField {
	case "PageSize":
		return "pageSize"
	case "SortField":
		return "sortField"
	default:
		return strings.ToLower(structField)
	}
}

// decodeWriteBody accepts JSON, a WriteEntityCommand-shaped JSON with inline files, or
// multipart form data.
func decodeWriteBody(c echo.Context) (domain.WritePayload, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		return decodeMultipart(c)
	}
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		verr := domain.NewValidationError()
		verr.Add("body", "invalid json")
		return domain.WritePayload{}, verr
	}
	fields, hasFields := body["fields"].(map[string]any)
	if !hasFields {
		return domain.WritePayload{Fields: body}, nil
	}
	command := domain.WriteEntityCommand{Fields: fields}
	if files, ok := body["files"].([]any); ok {
		for _, entry := range files {
			file, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			command.Files = append(command.Files, domain.EncodedFile{
				Field:       stringField(file, "field"),
				FileName:    stringField(file, "fileName"),
				ContentType: stringField(file, "contentType"),
				Content:     stringField(file, "content"),
			})
		}
	}
	payload, err := command.Payload()
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("files", err.Error())
		return domain.WritePayload{}, verr
	}
	return payload, nil
}

func decodeMultipart(c echo.Context) (domain.WritePayload, error) {
	if err := c.Request().ParseMultipartForm(maxUploadBytes); err != nil {
		verr := domain.NewValidationError()
		verr.Add("body", "invalid multipart form")
		return domain.WritePayload{}, verr
	}
	form := c.Request().MultipartForm
	payload := domain.WritePayload{Fields: map[string]any{}}
	for key, values := range form.Value {
		if len(values) > 0 {
			payload.Fields[key] = values[0]
		}
	}
	for field, headers := range form.File {
		for _, header := range headers {
			upload, err := readUpload(field, header)
			if err != nil {
				verr := domain.NewValidationError()
				verr.Add(field, err.Error())
				return domain.WritePayload{}, verr
			}
			payload.Files = append(payload.Files, upload)
		}
	}
	return payload, nil
}

func readUpload(field string, header *multipart.FileHeader) (domain.FileUpload, error) {
	file, err := header.Open()
	if err != nil {
		return domain.FileUpload{}, fmt.Errorf("open upload %s: %w", field, err)
	}
	defer file.Close()
	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return domain.FileUpload{}, fmt.Errorf("read upload %s: %w", field, err)
	}
	return domain.FileUpload{
		Field:       field,
		FileName:    header.Filename,
		ContentType: header.Header.Get(echo.HeaderContentType),
		Content:     content,
	}, nil
}

func stringField(object map[string]any, key string) string {
	value, _ := object[key].(string)
	return value
}

func requestToken(c echo.Context) string {
	return auth.BearerFromHeader(c.Request().Header.Get(echo.HeaderAuthorization))
}
