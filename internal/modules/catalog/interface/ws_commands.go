package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"lmsWs/internal/modules/catalog/application/port"
	"lmsWs/internal/modules/catalog/application/usecase"
	"lmsWs/internal/modules/catalog/domain"
	"lmsWs/internal/modules/catalog/infrastructure"
)

const defaultListID = "default"

// listSession holds what one websocket connection needs to drive its lists.
type listSession struct {
	connectionID string
	entity       domain.EntityConfig
	token        string
	catalog      *usecase.CatalogUseCase
	lists        *usecase.ListRegistry
	opts         WebsocketOptions
	client       *infrastructure.Client
}

func (s *listSession) register(processor *infrastructure.CommandProcessor) {
	processor.Register("open", s.handleOpen)
	processor.Register("sort", s.handleSort)
	processor.Register("page", s.handlePage)
	processor.Register("page_size", s.handlePageSize)
	processor.Register("search", s.handleSearch)
	processor.Register("filter", s.handleFilter)
	processor.Register("load_more", s.handleLoadMore)
	processor.Register("refresh", s.handleRefresh)
	processor.Register("close", s.handleClose)
	processor.RegisterAsync("detail", s.handleDetail)
	processor.RegisterAsync("create", s.handleCreate)
	processor.RegisterAsync("update", s.handleUpdate)
	processor.RegisterAsync("delete", s.handleDelete)
}

func (s *listSession) handleOpen(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.OpenListCommand](cmd.Payload)
	if err != nil {
		s.sendError(client, "", "open", "invalid payload", nil)
		return
	}
	listID := listIDOrDefault(payload.ListID)
	query := payload.Query(s.entity.DefaultQuery(s.opts.PageSize))
	debounce := s.opts.Debounce
	if query.Keyword != "" && s.opts.SearchDebounce > 0 {
		debounce = s.opts.SearchDebounce
	}

	controller := usecase.NewListController(s.catalog.ListFetcher(s.token, s.entity), usecase.ListControllerOptions{
		ID:       listID,
		Entity:   s.entity.Name,
		Mode:     domain.ParseListMode(payload.Mode),
		Query:    query,
		Debounce: debounce,
		OnChange: func(state domain.ListState) {
			client.SendListState(listID, domain.BuildStateMessage(s.entity.Name, listID, state, time.Now()))
		},
	})
	s.lists.Open(s.connectionID, controller)
	controller.Start()
	slog.Info("ws list opened", slog.String("entity", s.entity.Name), slog.String("listId", listID), slog.String("mode", string(controller.State().Mode)), slog.String("connectionId", s.connectionID))
}

func (s *listSession) handleSort(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.SortCommand](cmd.Payload)
	if err != nil || strings.TrimSpace(payload.Field) == "" {
		s.sendError(client, payload.ListID, "sort", "invalid payload", nil)
		return
	}
	if controller, ok := s.controller(client, payload.ListID, "sort"); ok {
		controller.ToggleSort(payload.Field)
	}
}

func (s *listSession) handlePage(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.PageCommand](cmd.Payload)
	if err != nil || payload.Page < 1 {
		s.sendError(client, payload.ListID, "page", "invalid payload", nil)
		return
	}
	if controller, ok := s.controller(client, payload.ListID, "page"); ok {
		controller.SetPage(payload.Page)
	}
}

func (s *listSession) handlePageSize(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.PageSizeCommand](cmd.Payload)
	if err != nil || payload.PageSize < 1 {
		s.sendError(client, payload.ListID, "page_size", "invalid payload", nil)
		return
	}
	if controller, ok := s.controller(client, payload.ListID, "page_size"); ok {
		controller.SetPageSize(payload.PageSize)
	}
}

func (s *listSession) handleSearch(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.SearchCommand](cmd.Payload)
	if err != nil {
		s.sendError(client, payload.ListID, "search", "invalid payload", nil)
		return
	}
	if controller, ok := s.controller(client, payload.ListID, "search"); ok {
		controller.SetKeyword(payload.Keyword)
	}
}

func (s *listSession) handleFilter(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.FilterCommand](cmd.Payload)
	if err != nil {
		s.sendError(client, payload.ListID, "filter", "invalid payload", nil)
		return
	}
	if controller, ok := s.controller(client, payload.ListID, "filter"); ok {
		controller.SetFilters(payload.Filters)
	}
}

func (s *listSession) handleLoadMore(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.ListRefCommand](cmd.Payload)
	if err != nil {
		s.sendError(client, "", "load_more", "invalid payload", nil)
		return
	}
	controller, ok := s.controller(client, payload.ListID, "load_more")
	if !ok {
		return
	}
	if err := controller.LoadMore(); err != nil {
		if errors.Is(err, usecase.ErrLoadMoreBlocked) {
			slog.Debug("ws load more ignored", slog.String("entity", s.entity.Name), slog.String("listId", controller.ID()))
			return
		}
		s.sendError(client, controller.ID(), "load_more", err.Error(), nil)
	}
}

func (s *listSession) handleRefresh(_ context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.ListRefCommand](cmd.Payload)
	if err != nil {
		s.sendError(client, "", "refresh", "invalid payload", nil)
		return
	}
	if controller, ok := s.controller(client, payload.ListID, "refresh"); ok {
		controller.Refresh()
	}
}

func (s *listSession) handleClose(_ context.Context, _ *infrastructure.Client, cmd infrastructure.Command) {
	payload, _ := decodeCommand[domain.ListRefCommand](cmd.Payload)
	listID := listIDOrDefault(payload.ListID)
	if s.lists.Close(s.connectionID, listID) {
		slog.Info("ws list closed", slog.String("entity", s.entity.Name), slog.String("listId", listID))
	}
}

func (s *listSession) handleDetail(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.GetEntityCommand](cmd.Payload)
	if err != nil || strings.TrimSpace(payload.ID) == "" {
		s.sendError(client, "", "detail", "invalid payload", nil)
		return
	}
	record, err := s.catalog.Detail(ctx, s.token, s.entity.Name, payload.ID).Unwrap()
	if err != nil {
		s.sendFailure(client, "detail", err)
		return
	}
	client.SendDomainMessage(domain.BuildRecordMessage(s.entity.Name, domain.ActionDetail, payload.ID, record, time.Now()))
}

func (s *listSession) handleCreate(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	_, writePayload, ok := s.decodeWrite(client, cmd, "create")
	if !ok {
		return
	}
	record, err := s.catalog.Create(ctx, s.token, s.entity.Name, writePayload).Unwrap()
	if err != nil {
		s.sendFailure(client, "create", err)
		return
	}
	client.SendDomainMessage(domain.BuildRecordMessage(s.entity.Name, domain.ActionCreated, "", record, time.Now()))
}

func (s *listSession) handleUpdate(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, writePayload, ok := s.decodeWrite(client, cmd, "update")
	if !ok {
		return
	}
	record, err := s.catalog.Update(ctx, s.token, s.entity.Name, payload.ID, writePayload).Unwrap()
	if err != nil {
		s.sendFailure(client, "update", err)
		return
	}
	client.SendDomainMessage(domain.BuildRecordMessage(s.entity.Name, domain.ActionUpdated, payload.ID, record, time.Now()))
}

func (s *listSession) handleDelete(ctx context.Context, client *infrastructure.Client, cmd infrastructure.Command) {
	payload, err := decodeCommand[domain.GetEntityCommand](cmd.Payload)
	if err != nil || strings.TrimSpace(payload.ID) == "" {
		s.sendError(client, "", "delete", "invalid payload", nil)
		return
	}
	id, err := s.catalog.Delete(ctx, s.token, s.entity.Name, payload.ID).Unwrap()
	if err != nil {
		s.sendFailure(client, "delete", err)
		return
	}
	client.SendDomainMessage(domain.BuildRecordMessage(s.entity.Name, domain.ActionDeleted, id, nil, time.Now()))
}

func (s *listSession) decodeWrite(client *infrastructure.Client, cmd infrastructure.Command, action string) (domain.WriteEntityCommand, domain.WritePayload, bool) {
	payload, err := decodeCommand[domain.WriteEntityCommand](cmd.Payload)
	if err != nil {
		s.sendError(client, "", action, "invalid payload", nil)
		return payload, domain.WritePayload{}, false
	}
	writePayload, err := payload.Payload()
	if err != nil {
		s.sendError(client, "", action, err.Error(), nil)
		return payload, domain.WritePayload{}, false
	}
	return payload, writePayload, true
}

func (s *listSession) controller(client *infrastructure.Client, listID, action string) (*usecase.ListController, bool) {
	id := listIDOrDefault(listID)
	controller, ok := s.lists.Get(s.connectionID, id)
	if !ok {
		s.sendError(client, id, action, "list not open", nil)
		return nil, false
	}
	return controller, true
}

// sendFailure reports a failed catalog call, keeping server field errors for forms.
func (s *listSession) sendFailure(client *infrastructure.Client, action string, err error) {
	slog.Warn("ws command failed", slog.String("entity", s.entity.Name), slog.String("action", action), slog.Any("error", err))
	var (
		serverErr *port.ServerError
		verr      *domain.ValidationError
	)
	switch {
	case errors.As(err, &verr):
		s.sendError(client, "", action, verr.Error(), verr.Fields)
	case errors.As(err, &serverErr):
		s.sendError(client, "", action, serverErr.Message, serverErr.Fields)
	default:
		s.sendError(client, "", action, err.Error(), nil)
	}
}

func (s *listSession) sendError(client *infrastructure.Client, listID, action, reason string, fields map[string]string) {
	client.SendDomainMessage(domain.BuildErrorMessage(s.entity.Name, strings.TrimSpace(listID), action, reason, fields, time.Now()))
}

func listIDOrDefault(listID string) string {
	if trimmed := strings.TrimSpace(listID); trimmed != "" {
		return trimmed
	}
	return defaultListID
}

func decodeCommand[T any](raw json.RawMessage) (T, error) {
	var payload T
	if len(raw) == 0 {
		return payload, nil
	}
	return payload, json.Unmarshal(raw, &payload)
}
