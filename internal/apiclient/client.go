// Package apiclient is the HTTP and websocket client for the supportdesk API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/supportdesk/internal/adminapi"
	"github.com/fentz26/supportdesk/internal/models"
	"github.com/gorilla/websocket"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error (%d %s): %s", e.Status, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client wraps calls to the supportdesk API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	dialer     *websocket.Dialer
}

// New creates a client for baseURL. token is sent as a bearer token when set.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		dialer:     &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// BaseURL returns the API address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) doJSON(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env adminapi.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if resp.StatusCode >= 400 || !env.OK {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health returns the daemon health. Unlike other calls it returns the parsed
// body even when the daemon reports itself unhealthy.
func (c *Client) Health() (*adminapi.HealthResponse, error) {
	req, err := c.newRequest(http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health adminapi.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &health, nil
}

// --- Tasks ---

// ListTasks fetches tasks, optionally restricted to one status.
func (c *Client) ListTasks(status string) ([]models.Task, error) {
	path := "/tasks"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var tasks []models.Task
	if err := c.doJSON(http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(id string) (*models.Task, error) {
	var task models.Task
	if err := c.doJSON(http.MethodGet, "/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(req adminapi.TaskRequest) (*models.Task, error) {
	var task models.Task
	if err := c.doJSON(http.MethodPost, "/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask replaces the editable fields of a task.
func (c *Client) UpdateTask(id string, req adminapi.TaskRequest) (*models.Task, error) {
	var task models.Task
	if err := c.doJSON(http.MethodPut, "/tasks/"+url.PathEscape(id), req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(id string) error {
	return c.doJSON(http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil)
}

// CancelTask cancels a task.
func (c *Client) CancelTask(id string) (*models.Task, error) {
	var task models.Task
	if err := c.doJSON(http.MethodPost, "/tasks/"+url.PathEscape(id)+"/cancel", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AssignTask replaces the members of a task.
func (c *Client) AssignTask(id string, members []models.Member) (*models.Task, error) {
	var task models.Task
	body := map[string]any{"members": members}
	if err := c.doJSON(http.MethodPost, "/tasks/"+url.PathEscape(id)+"/assign", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// --- Representatives and customers ---

// ListRepresentatives fetches all representatives.
func (c *Client) ListRepresentatives() ([]models.Representative, error) {
	var reps []models.Representative
	if err := c.doJSON(http.MethodGet, "/representatives", nil, &reps); err != nil {
		return nil, err
	}
	return reps, nil
}

// CreateRepresentative adds a representative.
func (c *Client) CreateRepresentative(req adminapi.RepresentativeRequest) (*models.Representative, error) {
	var rep models.Representative
	if err := c.doJSON(http.MethodPost, "/representatives", req, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ListCustomers fetches all customers.
func (c *Client) ListCustomers() ([]models.Customer, error) {
	var customers []models.Customer
	if err := c.doJSON(http.MethodGet, "/customers", nil, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// UploadCustomers posts a CSV file and returns the number of rows imported.
func (c *Client) UploadCustomers(filename string, r io.Reader) (int, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return 0, fmt.Errorf("read csv: %w", err)
	}
	if err := mw.Close(); err != nil {
		return 0, err
	}

	req, err := c.newRequest(http.MethodPost, "/customers/upload", &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var res adminapi.UploadResult
	if err := c.send(req, &res); err != nil {
		return 0, err
	}
	return res.Imported, nil
}

// Stats fetches dashboard counters.
func (c *Client) Stats() (*models.Stats, error) {
	var stats models.Stats
	if err := c.doJSON(http.MethodGet, "/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Audit fetches the most recent audit entries.
func (c *Client) Audit(limit int) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	if err := c.doJSON(http.MethodGet, "/audit?limit="+strconv.Itoa(limit), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// --- Events ---

// Subscribe connects to the event stream. The returned channel is closed
// when ctx is done or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan adminapi.Event, error) {
	u, err := url.Parse(c.baseURL + "/events")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, fmt.Errorf("connect events: %w", err)
	}

	events := make(chan adminapi.Event, 8)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer close(done)
		for {
			var ev adminapi.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
