package devserver

import "mime/multipart"

// The stub mirrors the production API envelope: every success payload
// arrives under "data", every rejection under "error".

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

type loginInput struct {
	Body struct {
		Login    string `json:"login" doc:"Account login"`
		Password string `json:"password" doc:"Account password"`
	}
}

type loginOutput struct {
	Body envelope[loginData]
}

type loginData struct {
	AccessToken string `json:"accessToken"`
}

type authedInput struct {
	Authorization string `header:"Authorization"`
}

type createTaskInput struct {
	Authorization  string `header:"Authorization"`
	IdempotencyKey string `header:"X-Idempotency-Key"`
	Body           struct {
		Name        string `json:"name" doc:"Task name"`
		Description string `json:"description,omitempty"`
		ZoneID      string `json:"zoneId,omitempty"`
	}
}

type taskOutput struct {
	Body envelope[*Task]
}

type listTasksOutput struct {
	Body envelope[[]*Task]
}

type patchTaskInput struct {
	Authorization  string `header:"Authorization"`
	IdempotencyKey string `header:"X-Idempotency-Key"`
	ID             string `path:"id"`
	Body           struct {
		Status string `json:"status,omitempty"`
		Name   string `json:"name,omitempty"`
	}
}

type uploadPhotoInput struct {
	Authorization  string `header:"Authorization"`
	IdempotencyKey string `header:"X-Idempotency-Key"`
	RawBody        multipart.Form
}

type photoOutput struct {
	Body envelope[*Photo]
}

type createZoneInput struct {
	Authorization  string `header:"Authorization"`
	IdempotencyKey string `header:"X-Idempotency-Key"`
	Body           struct {
		Name     string `json:"name" doc:"Zone name"`
		ParentID string `json:"parentId,omitempty"`
	}
}

type zoneOutput struct {
	Body envelope[*Zone]
}

type healthOutput struct {
	Body struct {
		Status string `json:"status" example:"OK"`
	}
}
