package devserver

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthOp() huma.Operation {
	return huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check endpoint",
		Tags:        []string{"health"},
	}
}

func (h *Handler) loginOp() huma.Operation {
	return huma.Operation{
		OperationID: "auth-login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Sign in and obtain a bearer token",
		Tags:        []string{"auth"},
	}
}

func (h *Handler) listTasksOp() huma.Operation {
	return huma.Operation{
		OperationID: "tasks-list",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Tags:        []string{"tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}
}

func (h *Handler) createTaskOp() huma.Operation {
	return huma.Operation{
		OperationID: "tasks-create",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a task",
		Description: "Accepts an X-Idempotency-Key header and deduplicates repeated deliveries of the same key.",
		Tags:        []string{"tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}
}

func (h *Handler) patchTaskOp() huma.Operation {
	return huma.Operation{
		OperationID: "tasks-patch",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"tasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}
}

func (h *Handler) uploadPhotoOp() huma.Operation {
	return huma.Operation{
		OperationID: "photos-upload",
		Method:      http.MethodPost,
		Path:        "/photos",
		Summary:     "Upload a photo for a task",
		Tags:        []string{"photos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}
}

func (h *Handler) createZoneOp() huma.Operation {
	return huma.Operation{
		OperationID: "zones-create",
		Method:      http.MethodPost,
		Path:        "/zones",
		Summary:     "Create an annotated zone",
		Tags:        []string{"zones"},
		Security:    []map[string][]string{{"bearer": {}}},
	}
}
