// Package asana implements the service.Service interface using the Asana REST API.
package asana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"golang.org/x/oauth2"

	"datesync/internal/config"
	"datesync/internal/service"
)

const (
	// parentFields are the task fields requested when listing a project.
	parentFields = "name,start_on,due_on,num_subtasks"

	// subtaskFields are the task fields requested when listing subtasks.
	subtaskFields = "name,start_on,due_on"

	// jsonContentType is forced on every response so a non-JSON body fails
	// decoding instead of leaving the result empty.
	jsonContentType = "application/json"

	projectTasksPath = "/projects/{project_gid}/tasks"
	subtasksPath     = "/tasks/{task_gid}/subtasks"
	taskPath         = "/tasks/{task_gid}"
)

// Client implements service.Service using the Asana REST API.
type Client struct {
	rc      *resty.Client
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new Asana client authenticated with the configured token.
// The token is attached as a static bearer token to every request.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%s is empty", config.EnvToken)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	})
	httpClient := oauth2.NewClient(ctx, tokenSource)

	return NewWithHTTPClient(httpClient, cfg.BaseURL, cfg.Timeout, logger), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// The HTTP client is responsible for authorization.
func NewWithHTTPClient(httpClient *http.Client, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	rc := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", jsonContentType).
		SetLogger(restyLogger{logger})

	return &Client{
		rc:      rc,
		timeout: timeout,
		logger:  logger,
	}
}

type listEnvelope struct {
	Data []service.Task `json:"data"`
}

type taskEnvelope struct {
	Data service.Task `json:"data"`
}

type updateEnvelope struct {
	Data service.DateUpdate `json:"data"`
}

type apiError struct {
	Message string `json:"message"`
	Help    string `json:"help,omitempty"`
}

type errorEnvelope struct {
	Errors []apiError `json:"errors"`
}

func (e *errorEnvelope) message() string {
	if e == nil {
		return ""
	}
	msgs := lo.FilterMap(e.Errors, func(item apiError, _ int) (string, bool) {
		return item.Message, item.Message != ""
	})
	return strings.Join(msgs, "; ")
}

// ListParentTasks returns the non-completed tasks of a project.
func (c *Client) ListParentTasks(ctx context.Context, projectID string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out listEnvelope
	req := c.rc.R().
		SetContext(ctx).
		SetPathParam("project_gid", projectID).
		SetQueryParams(map[string]string{
			"completed_since": "now",
			"opt_fields":      parentFields,
		}).
		SetResult(&out).
		SetError(&errorEnvelope{}).
		ForceContentType(jsonContentType)

	resp, err := req.Get(projectTasksPath)
	if err := c.check("list project tasks", "/projects/"+projectID+"/tasks", resp, err); err != nil {
		return nil, err
	}

	c.logger.Debug("listed project tasks",
		slog.String("project", projectID),
		slog.Int("count", len(out.Data)))
	return out.Data, nil
}

// ListSubtasks returns the direct subtasks of a task.
func (c *Client) ListSubtasks(ctx context.Context, taskID string) ([]service.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out listEnvelope
	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("task_gid", taskID).
		SetQueryParam("opt_fields", subtaskFields).
		SetResult(&out).
		SetError(&errorEnvelope{}).
		ForceContentType(jsonContentType).
		Get(subtasksPath)
	if err := c.check("list subtasks", "/tasks/"+taskID+"/subtasks", resp, err); err != nil {
		return nil, err
	}

	c.logger.Debug("listed subtasks",
		slog.String("task", taskID),
		slog.Int("count", len(out.Data)))
	return out.Data, nil
}

// UpdateTaskDates writes the present bounds of update to the task.
// An empty update is a no-op and issues no request.
func (c *Client) UpdateTaskDates(ctx context.Context, taskID string, update service.DateUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("task_gid", taskID).
		SetBody(updateEnvelope{Data: update}).
		SetResult(&taskEnvelope{}).
		SetError(&errorEnvelope{}).
		ForceContentType(jsonContentType).
		Put(taskPath)
	if err := c.check("update task", "/tasks/"+taskID, resp, err); err != nil {
		return err
	}

	c.logger.Debug("updated task dates",
		slog.String("task", taskID),
		slog.String("start_on", service.FormatDate(update.StartOn)),
		slog.String("due_on", service.FormatDate(update.DueOn)))
	return nil
}

// check turns a resty result into a *TransportError, or nil on a 2xx response.
func (c *Client) check(op, path string, resp *resty.Response, err error) error {
	if err != nil {
		status := 0
		if resp != nil && resp.RawResponse != nil {
			status = resp.StatusCode()
		}
		return wrapError(&TransportError{Op: op, Path: path, StatusCode: status, Err: err})
	}
	if resp.IsError() {
		apiErr, _ := resp.Error().(*errorEnvelope)
		return wrapError(&TransportError{
			Op:         op,
			Path:       path,
			StatusCode: resp.StatusCode(),
			Message:    apiErr.message(),
		})
	}
	return nil
}

// TransportError reports a failed API call: a network failure, a non-2xx
// status or a response body that could not be decoded.
type TransportError struct {
	Op         string
	Path       string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// wrapError fills in user-friendly messages for well-known failures.
func wrapError(err *TransportError) error {
	switch {
	case err.Timeout():
		err.Message = "request timed out"
	case err.StatusCode == http.StatusUnauthorized || err.StatusCode == http.StatusForbidden:
		if err.Message == "" {
			err.Message = fmt.Sprintf("token rejected (check %s)", config.EnvToken)
		}
	case err.StatusCode == http.StatusNotFound:
		if err.Message == "" {
			err.Message = "not found"
		}
	}
	return err
}

// restyLogger routes resty's internal warnings into slog.
type restyLogger struct {
	logger *slog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}
