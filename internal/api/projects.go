package api

import "context"

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	err := c.get(ctx, "/projects", nil, &out)
	return out, err
}

// CreateProject returns the new id; the server does not echo the full record.
func (c *Client) CreateProject(ctx context.Context, p Project) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/projects", p, &out)
	return out.ID, err
}

func (c *Client) UpdateProject(ctx context.Context, p Project) error {
	if err := requireID(p.ID); err != nil {
		return err
	}
	body := p
	body.Tasks = nil
	return c.put(ctx, "/projects/"+escape(p.ID), body, nil)
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/projects/"+escape(id))
}

func (c *Client) ProjectActivity(ctx context.Context, id string) ([]ProjectActivity, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	var out []ProjectActivity
	err := c.get(ctx, "/projects/"+escape(id)+"/activity", nil, &out)
	return out, err
}

func (c *Client) AddProjectTask(ctx context.Context, projectID string, t ProjectTask) (string, error) {
	if err := requireID(projectID); err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/projects/"+escape(projectID)+"/tasks", t, &out)
	return out.ID, err
}

func (c *Client) UpdateProjectTask(ctx context.Context, t ProjectTask) error {
	if err := requireID(t.ID); err != nil {
		return err
	}
	return c.put(ctx, "/projects/tasks/"+escape(t.ID), t, nil)
}

func (c *Client) DeleteProjectTask(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/projects/tasks/"+escape(id))
}
