package restapi

import (
	"context"
	"fmt"
	"net/http"

	jsonv2 "encoding/json/v2"
)

const (
	loginPath  = "/api/auth/login"
	verifyPath = "/api/auth/verify"
)

// Login exchanges admin credentials for a bearer token. The caller is
// responsible for persisting the result in the session store.
func (c *Client) Login(ctx context.Context, email, password string) (string, map[string]any, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	body, err := c.SendJSON(ctx, http.MethodPost, loginPath, payload)
	if err != nil {
		return "", nil, err
	}

	var result struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}
	if err := jsonv2.Unmarshal(body, &result); err != nil {
		return "", nil, fmt.Errorf("restapi: decoding login response: %w", err)
	}
	if result.Token == "" {
		return "", nil, fmt.Errorf("restapi: login response carried no token")
	}

	return result.Token, result.User, nil
}

// Verify checks the current bearer token against the backend. A 401 clears
// the persisted session through the shared send path.
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.SendJSON(ctx, http.MethodPost, verifyPath, nil)
	return err
}
