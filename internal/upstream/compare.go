package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// CompareError carries the backend's user-facing rejection message, e.g. the
// four-item cap. The message is displayed verbatim.
type CompareError struct {
	Message string
}

func (e *CompareError) Error() string {
	return e.Message
}

type compareResponse struct {
	Success     bool     `json:"success"`
	CompareList []string `json:"compare_list"`
	Error       string   `json:"error"`
}

// CompareList fetches the authoritative session compare list.
func (c *Client) CompareList(ctx context.Context, session *Session) ([]string, error) {
	body, err := c.get(ctx, session, "/api/compare_list", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		CompareList []string `json:"compare_list"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid compare list payload: %w", err)
	}
	if payload.CompareList == nil {
		payload.CompareList = []string{}
	}
	return payload.CompareList, nil
}

// AddToCompare adds a product to the session compare list and returns the
// authoritative list from the response.
func (c *Client) AddToCompare(ctx context.Context, session *Session, bikeID string) ([]string, error) {
	return c.mutateCompare(ctx, session, "/add_to_compare", bikeID)
}

// RemoveFromCompare removes a product from the session compare list.
func (c *Client) RemoveFromCompare(ctx context.Context, session *Session, bikeID string) ([]string, error) {
	return c.mutateCompare(ctx, session, "/remove_from_compare", bikeID)
}

func (c *Client) mutateCompare(ctx context.Context, session *Session, path, bikeID string) ([]string, error) {
	body, err := c.postJSON(ctx, session, path, map[string]string{"bike_id": bikeID})

	// The backend answers the compare cap with a 400 plus a JSON error
	// message; prefer that message over the bare status error.
	var statusErr *StatusError
	if err != nil && !errors.As(err, &statusErr) {
		return nil, err
	}

	var resp compareResponse
	if jsonErr := json.Unmarshal(body, &resp); jsonErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("invalid compare payload: %w", jsonErr)
	}
	if !resp.Success {
		if resp.Error != "" {
			return nil, &CompareError{Message: resp.Error}
		}
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("compare mutation rejected")
	}
	if resp.CompareList == nil {
		resp.CompareList = []string{}
	}
	return resp.CompareList, nil
}

// ClearCompare empties the session compare list.
func (c *Client) ClearCompare(ctx context.Context, session *Session) error {
	body, err := c.postJSON(ctx, session, "/clear_compare", struct{}{})
	if err != nil {
		return err
	}
	var resp compareResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("invalid clear payload: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("clear compare rejected")
	}
	return nil
}
