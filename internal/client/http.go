package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"

	"github.com/tidwall/gjson"
)

const listPageSize = 100

// APIError is a failed response of the board API.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("board api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("board api: %d %s (%s)", e.Status, e.Message, strings.Join(e.Details, ", "))
}

// Unwrap maps the status back to the board error kinds.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrValidation
	}
	return nil
}

// HTTPAPI talks to the board server over its JSON API.
type HTTPAPI struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPAPI(baseURL, token string) *HTTPAPI {
	return &HTTPAPI{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// do sends one request and returns the parsed envelope.
func (a *HTTPAPI) do(ctx context.Context, method, path string, body any) (gjson.Result, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return gjson.Result{}, err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, rd)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	env := gjson.ParseBytes(raw)
	if resp.StatusCode >= 300 || !env.Get("success").Bool() {
		apiErr := &APIError{Status: resp.StatusCode, Message: env.Get("message").String()}
		for _, d := range env.Get("errors").Array() {
			apiErr.Details = append(apiErr.Details, d.String())
		}
		return gjson.Result{}, apiErr
	}
	return env, nil
}

func decodeData[T any](env gjson.Result) (T, error) {
	var v T
	data := env.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return v, nil
	}
	if err := json.Unmarshal([]byte(data.Raw), &v); err != nil {
		return v, fmt.Errorf("decode data: %w", err)
	}
	return v, nil
}

func (a *HTTPAPI) ListColumns(ctx context.Context) ([]domain.ColumnView, error) {
	env, err := a.do(ctx, http.MethodGet, "/api/v1/columns", nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]domain.ColumnView](env)
}

func (a *HTTPAPI) CreateColumn(ctx context.Context, name string) (domain.ColumnView, error) {
	env, err := a.do(ctx, http.MethodPost, "/api/v1/columns", map[string]string{"name": name})
	if err != nil {
		return domain.ColumnView{}, err
	}
	return decodeData[domain.ColumnView](env)
}

func (a *HTTPAPI) UpdateColumn(ctx context.Context, id string, u ColumnUpdate) (domain.ColumnView, error) {
	env, err := a.do(ctx, http.MethodPut, "/api/v1/columns/"+url.PathEscape(id), u)
	if err != nil {
		return domain.ColumnView{}, err
	}
	return decodeData[domain.ColumnView](env)
}

func (a *HTTPAPI) DeleteColumn(ctx context.Context, id string) error {
	_, err := a.do(ctx, http.MethodDelete, "/api/v1/columns/"+url.PathEscape(id), nil)
	return err
}

func (a *HTTPAPI) ReorderColumns(ctx context.Context, entries []ordering.Entry) ([]domain.ColumnView, error) {
	if entries == nil {
		entries = []ordering.Entry{}
	}
	env, err := a.do(ctx, http.MethodPatch, "/api/v1/columns/reorder", entries)
	if err != nil {
		return nil, err
	}
	return decodeData[[]domain.ColumnView](env)
}

// ListTasks walks every page of the owner's tasks.
func (a *HTTPAPI) ListTasks(ctx context.Context) ([]domain.TaskView, error) {
	var all []domain.TaskView
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", fmt.Sprint(page))
		q.Set("pageSize", fmt.Sprint(listPageSize))
		env, err := a.do(ctx, http.MethodGet, "/api/v1/tasks?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		items, err := decodeData[[]domain.TaskView](env)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || len(all) >= int(env.Get("total").Int()) {
			break
		}
	}
	if all == nil {
		all = []domain.TaskView{}
	}
	return all, nil
}

func (a *HTTPAPI) CreateTask(ctx context.Context, d TaskDraft) (domain.TaskView, error) {
	env, err := a.do(ctx, http.MethodPost, "/api/v1/tasks", d)
	if err != nil {
		return domain.TaskView{}, err
	}
	return decodeData[domain.TaskView](env)
}

func (a *HTTPAPI) UpdateTask(ctx context.Context, id string, u TaskUpdate) (domain.TaskView, error) {
	env, err := a.do(ctx, http.MethodPut, "/api/v1/tasks/"+url.PathEscape(id), u)
	if err != nil {
		return domain.TaskView{}, err
	}
	return decodeData[domain.TaskView](env)
}

func (a *HTTPAPI) MoveTask(ctx context.Context, id, columnID string) (domain.TaskView, error) {
	env, err := a.do(ctx, http.MethodPatch, "/api/v1/tasks/"+url.PathEscape(id)+"/move",
		map[string]string{"columnId": columnID})
	if err != nil {
		return domain.TaskView{}, err
	}
	return decodeData[domain.TaskView](env)
}

func (a *HTTPAPI) DeleteTask(ctx context.Context, id string) error {
	_, err := a.do(ctx, http.MethodDelete, "/api/v1/tasks/"+url.PathEscape(id), nil)
	return err
}

// Bootstrap seeds the default board and reports whether anything was created.
func (a *HTTPAPI) Bootstrap(ctx context.Context) ([]domain.ColumnView, bool, error) {
	env, err := a.do(ctx, http.MethodPost, "/api/v1/board/bootstrap", nil)
	if err != nil {
		return nil, false, err
	}
	cols, err := decodeData[[]domain.ColumnView](env)
	return cols, env.Get("message").String() == "Board created", err
}
