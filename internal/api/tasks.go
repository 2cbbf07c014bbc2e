package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/facultyflow/internal/model"
)

type submitRequest struct {
	Summary string   `json:"summary"`
	Links   []string `json:"links"`
}

type reviewRequest struct {
	Decision model.Decision `json:"decision"`
	Note     string         `json:"note,omitempty"`
}

func taskPath(id int64, suffix string) string {
	return fmt.Sprintf("/tasks/%d%s", id, suffix)
}

func withStatus(path string, status model.TaskStatus) string {
	if status == "" {
		return path
	}
	q := url.Values{}
	q.Set("status", string(status))
	return path + "?" + q.Encode()
}

// ListTasks returns the tasks visible to the current user. The backend
// scopes the collection by role. An empty status lists every status.
func (c *Client) ListTasks(ctx context.Context, status model.TaskStatus) ([]model.Task, error) {
	var ws []*wireTask
	if err := c.get(ctx, withStatus("/tasks", status), &ws); err != nil {
		return nil, err
	}
	return decodeTasks(ws), nil
}

// TasksByUser lists the tasks assigned to one user.
func (c *Client) TasksByUser(ctx context.Context, userID int64, status model.TaskStatus) ([]model.Task, error) {
	var ws []*wireTask
	path := withStatus(fmt.Sprintf("/tasks/by-user/%d", userID), status)
	if err := c.get(ctx, path, &ws); err != nil {
		return nil, err
	}
	return decodeTasks(ws), nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id int64) (model.Task, error) {
	var w wireTask
	if err := c.get(ctx, taskPath(id, ""), &w); err != nil {
		return model.Task{}, err
	}
	return decodeTask(w), nil
}

// CreateTask creates a task and returns the server's copy.
func (c *Client) CreateTask(ctx context.Context, in model.TaskCreate) (model.Task, error) {
	var w wireTask
	if err := c.post(ctx, "/tasks", in, &w); err != nil {
		return model.Task{}, err
	}
	return decodeTask(w), nil
}

// StartTask asks the backend to move a task into progress.
func (c *Client) StartTask(ctx context.Context, id int64) (model.Task, error) {
	var w wireTask
	if err := c.patch(ctx, taskPath(id, "/start"), nil, &w); err != nil {
		return model.Task{}, err
	}
	return decodeTask(w), nil
}

// SubmitTask records a submission for a task in progress.
func (c *Client) SubmitTask(ctx context.Context, id int64, summary string, links []string) (model.Task, error) {
	if links == nil {
		links = []string{}
	}
	var w wireTask
	if err := c.post(ctx, taskPath(id, "/submit"), submitRequest{Summary: summary, Links: links}, &w); err != nil {
		return model.Task{}, err
	}
	return decodeTask(w), nil
}

// ReviewTask records a decision on the task's pending submission.
func (c *Client) ReviewTask(ctx context.Context, id int64, decision model.Decision, note string) (model.Submission, error) {
	var w wireSubmission
	if err := c.post(ctx, taskPath(id, "/review"), reviewRequest{Decision: decision, Note: note}, &w); err != nil {
		return model.Submission{}, err
	}
	return decodeSubmission(w), nil
}

// Submissions returns the submission history of a task in server order.
func (c *Client) Submissions(ctx context.Context, id int64) ([]model.Submission, error) {
	var ws []*wireSubmission
	if err := c.get(ctx, taskPath(id, "/submissions"), &ws); err != nil {
		return nil, err
	}
	return decodeSubmissions(ws), nil
}
