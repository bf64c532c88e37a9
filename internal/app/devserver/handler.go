package devserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Handler implements the development stub of the site API: the same
// envelope, create-id and idempotency contract as production, backed
// by in-memory state.
type Handler struct {
	store *Store
	log   *slog.Logger
}

func NewHandler(store *Store, log *slog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With(slog.String("component", "devserver")),
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthOp(), h.health)
	huma.Register(api, h.loginOp(), h.login)
	huma.Register(api, h.listTasksOp(), h.listTasks)
	huma.Register(api, h.createTaskOp(), h.createTask)
	huma.Register(api, h.patchTaskOp(), h.patchTask)
	huma.Register(api, h.uploadPhotoOp(), h.uploadPhoto)
	huma.Register(api, h.createZoneOp(), h.createZone)
}

func (h *Handler) health(_ context.Context, _ *struct{}) (*healthOutput, error) {
	out := &healthOutput{}
	out.Body.Status = "OK"
	return out, nil
}

func (h *Handler) login(_ context.Context, input *loginInput) (*loginOutput, error) {
	if input.Body.Login == "" || input.Body.Password == "" {
		return nil, huma.Error400BadRequest("login and password are required")
	}

	token := uuid.NewString()
	h.store.IssueToken(token, input.Body.Login)
	h.log.Info("issued token", "login", input.Body.Login)

	return &loginOutput{Body: envelope[loginData]{
		Success: true,
		Data:    loginData{AccessToken: token},
	}}, nil
}

func (h *Handler) requireAuth(authorization string) error {
	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || !h.store.ValidToken(token) {
		return huma.Error401Unauthorized("Unauthorized")
	}
	return nil
}

func (h *Handler) listTasks(_ context.Context, input *authedInput) (*listTasksOutput, error) {
	if err := h.requireAuth(input.Authorization); err != nil {
		return nil, err
	}

	h.store.Lock()
	defer h.store.Unlock()

	tasks := make([]*Task, 0, len(h.store.Tasks))
	for _, task := range h.store.Tasks {
		tasks = append(tasks, task)
	}

	return &listTasksOutput{Body: envelope[[]*Task]{Success: true, Data: tasks}}, nil
}

func (h *Handler) createTask(_ context.Context, input *createTaskInput) (*taskOutput, error) {
	if err := h.requireAuth(input.Authorization); err != nil {
		return nil, err
	}
	if input.Body.Name == "" {
		return nil, huma.Error422UnprocessableEntity("name is required")
	}

	h.store.Lock()
	defer h.store.Unlock()

	if data, seen := h.store.Replayed(input.IdempotencyKey); seen {
		var task Task
		if err := json.Unmarshal(data, &task); err == nil {
			h.log.Info("deduplicated task create", "idempotency_key", input.IdempotencyKey)
			return &taskOutput{Body: envelope[*Task]{Success: true, Data: &task}}, nil
		}
	}

	if input.Body.ZoneID != "" {
		if _, ok := h.store.Zones[input.Body.ZoneID]; !ok {
			return nil, huma.Error422UnprocessableEntity("unknown zone: " + input.Body.ZoneID)
		}
	}

	task := &Task{
		ID:     h.store.newID("t"),
		Name:   input.Body.Name,
		Status: "open",
		ZoneID: input.Body.ZoneID,
	}
	h.store.Tasks[task.ID] = task

	if data, err := json.Marshal(task); err == nil {
		h.store.RememberReplay(input.IdempotencyKey, data)
	}

	return &taskOutput{Body: envelope[*Task]{Success: true, Data: task}}, nil
}

func (h *Handler) patchTask(_ context.Context, input *patchTaskInput) (*taskOutput, error) {
	if err := h.requireAuth(input.Authorization); err != nil {
		return nil, err
	}

	h.store.Lock()
	defer h.store.Unlock()

	task, ok := h.store.Tasks[input.ID]
	if !ok {
		return nil, huma.Error404NotFound("task not found: " + input.ID)
	}

	if input.Body.Status != "" {
		task.Status = input.Body.Status
	}
	if input.Body.Name != "" {
		task.Name = input.Body.Name
	}

	return &taskOutput{Body: envelope[*Task]{Success: true, Data: task}}, nil
}

func (h *Handler) uploadPhoto(_ context.Context, input *uploadPhotoInput) (*photoOutput, error) {
	if err := h.requireAuth(input.Authorization); err != nil {
		return nil, err
	}

	taskID := ""
	caption := ""
	if values := input.RawBody.Value["taskId"]; len(values) > 0 {
		taskID = values[0]
	}
	if values := input.RawBody.Value["caption"]; len(values) > 0 {
		caption = values[0]
	}

	h.store.Lock()
	defer h.store.Unlock()

	if data, seen := h.store.Replayed(input.IdempotencyKey); seen {
		var photo Photo
		if err := json.Unmarshal(data, &photo); err == nil {
			h.log.Info("deduplicated photo upload", "idempotency_key", input.IdempotencyKey)
			return &photoOutput{Body: envelope[*Photo]{Success: true, Data: &photo}}, nil
		}
	}

	if _, ok := h.store.Tasks[taskID]; !ok {
		return nil, huma.Error422UnprocessableEntity("unknown task: " + taskID)
	}

	files := input.RawBody.File["photo"]
	if len(files) == 0 {
		return nil, huma.Error422UnprocessableEntity("photo file is required")
	}

	photo := &Photo{
		ID:       h.store.newID("p"),
		TaskID:   taskID,
		FileName: files[0].Filename,
		Size:     int(files[0].Size),
		Caption:  caption,
	}
	h.store.Photos[photo.ID] = photo

	if data, err := json.Marshal(photo); err == nil {
		h.store.RememberReplay(input.IdempotencyKey, data)
	}

	return &photoOutput{Body: envelope[*Photo]{Success: true, Data: photo}}, nil
}

func (h *Handler) createZone(_ context.Context, input *createZoneInput) (*zoneOutput, error) {
	if err := h.requireAuth(input.Authorization); err != nil {
		return nil, err
	}
	if input.Body.Name == "" {
		return nil, huma.Error422UnprocessableEntity("name is required")
	}

	h.store.Lock()
	defer h.store.Unlock()

	if data, seen := h.store.Replayed(input.IdempotencyKey); seen {
		var zone Zone
		if err := json.Unmarshal(data, &zone); err == nil {
			h.log.Info("deduplicated zone create", "idempotency_key", input.IdempotencyKey)
			return &zoneOutput{Body: envelope[*Zone]{Success: true, Data: &zone}}, nil
		}
	}

	zone := &Zone{
		ID:       h.store.newID("z"),
		Name:     input.Body.Name,
		ParentID: input.Body.ParentID,
	}
	h.store.Zones[zone.ID] = zone

	if data, err := json.Marshal(zone); err == nil {
		h.store.RememberReplay(input.IdempotencyKey, data)
	}

	return &zoneOutput{Body: envelope[*Zone]{Success: true, Data: zone}}, nil
}
