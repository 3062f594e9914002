package coordinator

import (
	"context"
	"coursehub/ordering"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// HTTPPersister talks to the admin structure endpoints.
type HTTPPersister struct {
	client *resty.Client
}

// NewHTTPPersister returns a persister for the API at baseURL, authenticated
// with a bearer token.
func NewHTTPPersister(baseURL, token string, timeout time.Duration) *HTTPPersister {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &HTTPPersister{client: client}
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type reorderBody struct {
	Items []ordering.Assignment `json:"items"`
}

func (p *HTTPPersister) ReorderChapters(ctx context.Context, courseID uint, changes []ordering.Assignment) ordering.Result {
	path := fmt.Sprintf("/admin/course/%d/chapters/reorder", courseID)
	return p.do(ctx, http.MethodPut, path, reorderBody{Items: changes}, nil)
}

func (p *HTTPPersister) ReorderLessons(ctx context.Context, courseID, chapterID uint, changes []ordering.Assignment) ordering.Result {
	path := fmt.Sprintf("/admin/course/%d/chapter/%d/lessons/reorder", courseID, chapterID)
	return p.do(ctx, http.MethodPut, path, reorderBody{Items: changes}, nil)
}

func (p *HTTPPersister) DeleteChapter(ctx context.Context, courseID, chapterID uint) ordering.Result {
	path := fmt.Sprintf("/admin/course/%d/chapter/%d", courseID, chapterID)
	return p.do(ctx, http.MethodDelete, path, nil, nil)
}

func (p *HTTPPersister) DeleteLesson(ctx context.Context, courseID, chapterID, lessonID uint) ordering.Result {
	path := fmt.Sprintf("/admin/course/%d/chapter/%d/lesson/%d", courseID, chapterID, lessonID)
	return p.do(ctx, http.MethodDelete, path, nil, nil)
}

func (p *HTTPPersister) Outline(ctx context.Context, courseID uint) (Outline, ordering.Result) {
	var outline Outline
	res := p.do(ctx, http.MethodGet, fmt.Sprintf("/admin/course/%d/structure", courseID), nil, &outline)
	return outline, res
}

func (p *HTTPPersister) do(ctx context.Context, method, path string, body, out interface{}) ordering.Result {
	requestID := CallID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var env envelope
	req := p.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID).
		SetResult(&env).
		SetError(&env)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return ordering.Failure(ordering.KindPersistence, "Could not reach the server, changes were not saved")
	}
	if resp.IsError() || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return ordering.Failure(kindForStatus(resp.StatusCode()), msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return ordering.Failure(ordering.KindPersistence, "Unexpected response from the server")
		}
	}
	return ordering.Success(env.Message)
}

func kindForStatus(code int) ordering.Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ordering.KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return ordering.KindAuthorization
	case http.StatusNotFound:
		return ordering.KindNotFound
	case http.StatusConflict:
		return ordering.KindCrossParent
	}
	return ordering.KindPersistence
}
