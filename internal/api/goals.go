package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

func (c *Client) ListGoals(ctx context.Context) (GoalList, error) {
	var out GoalList
	err := c.get(ctx, "/goals", nil, &out)
	return out, err
}

func (c *Client) CreateGoal(ctx context.Context, g Goal) (Goal, error) {
	var out Goal
	err := c.post(ctx, "/goals", g, &out)
	return out, err
}

// UpdateGoal sends the whole goal. The server replaces the step list when
// steps are present.
func (c *Client) UpdateGoal(ctx context.Context, g Goal) (Goal, error) {
	if err := requireID(g.ID); err != nil {
		return Goal{}, err
	}
	var out Goal
	err := c.put(ctx, "/goals/"+escape(g.ID), g, &out)
	return out, err
}

func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/goals/"+escape(id))
}

func (c *Client) ReorderGoals(ctx context.Context, orderedIDs []string) error {
	return c.put(ctx, "/goals/reorder", map[string][]string{"ordered_ids": orderedIDs}, nil)
}

func (c *Client) GoalAnalytics(ctx context.Context) (GoalAnalytics, error) {
	var out GoalAnalytics
	err := c.get(ctx, "/goals/analytics", nil, &out)
	return out, err
}

func (c *Client) AddGoalStep(ctx context.Context, goalID string, s Step) (Step, error) {
	if err := requireID(goalID); err != nil {
		return Step{}, err
	}
	var out Step
	err := c.post(ctx, "/goals/"+escape(goalID)+"/steps", s, &out)
	return out, err
}

func (c *Client) UpdateGoalStep(ctx context.Context, goalID string, s Step) (Step, error) {
	if err := requireID(goalID); err != nil {
		return Step{}, err
	}
	if err := requireID(s.ID); err != nil {
		return Step{}, err
	}
	var out Step
	err := c.patch(ctx, "/goals/"+escape(goalID)+"/steps/"+escape(s.ID), s, &out)
	return out, err
}

func (c *Client) DeleteGoalStep(ctx context.Context, goalID, stepID string) error {
	if err := requireID(goalID); err != nil {
		return err
	}
	return c.delete(ctx, "/goals/"+escape(goalID)+"/steps/"+escape(stepID))
}

// UploadGoalImage posts an image as multipart form field "file" and returns
// the URL the server stored it under.
func (c *Client) UploadGoalImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/goals/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, "/goals/upload", &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
