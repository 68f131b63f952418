package api

import "context"

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.get(ctx, "/admin/users", nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, u NewUser) error {
	return c.post(ctx, "/admin/users", u, nil)
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.put(ctx, "/admin/users/"+escape(id), patch, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return c.delete(ctx, "/admin/users/"+escape(id))
}
