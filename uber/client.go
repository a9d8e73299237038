package uber

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"restaurant-service/models"
)

// Gateway is the platform's order-control surface. Write calls return an
// *APIError on non-success status; callers must persist local state only
// after the call succeeds.
type Gateway interface {
	FetchOrder(ctx context.Context, id string) (*models.OrderPayload, error)
	AcceptOrder(ctx context.Context, id string) error
	DenyOrder(ctx context.Context, id string) error
	MarkReady(ctx context.Context, id string) error
	ListOrders(ctx context.Context, storeID, pageSize, pageToken string) (*OrderPage, error)
	ListStores(ctx context.Context) (json.RawMessage, error)
}

// APIError carries the upstream status code and response text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("uber api: %d %s", e.StatusCode, e.Body)
}

// OrderPage is one page of a store's order listing.
type OrderPage struct {
	Orders        []json.RawMessage `json:"orders"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

// Client talks to the delivery platform's API with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uber api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode uber api response: %w", err)
	}
	return nil
}

// FetchOrder retrieves the full order document. The endpoint wraps the order
// in an envelope on newer API versions; both shapes are accepted.
func (c *Client) FetchOrder(ctx context.Context, id string) (*models.OrderPayload, error) {
	var envelope struct {
		Order *models.OrderPayload `json:"order"`
		models.OrderPayload
	}
	if err := c.do(ctx, http.MethodGet, "/v2/eats/order/"+url.PathEscape(id), &envelope); err != nil {
		return nil, err
	}
	if envelope.Order != nil {
		return envelope.Order, nil
	}
	return &envelope.OrderPayload, nil
}

func (c *Client) AcceptOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/eats/orders/"+url.PathEscape(id)+"/accept_pos_order", nil)
}

func (c *Client) DenyOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/eats/orders/"+url.PathEscape(id)+"/deny_pos_order", nil)
}

func (c *Client) MarkReady(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/v1/delivery/order/"+url.PathEscape(id)+"/ready", nil)
}

// ListOrders pages through a store's open orders.
func (c *Client) ListOrders(ctx context.Context, storeID, pageSize, pageToken string) (*OrderPage, error) {
	if pageSize == "" {
		pageSize = "10"
	}
	q := url.Values{}
	q.Set("page_size", pageSize)
	if pageToken != "" {
		q.Set("next_page_token", pageToken)
	}
	var resp struct {
		Data           []json.RawMessage `json:"data"`
		PaginationData struct {
			NextPageToken string `json:"next_page_token"`
		} `json:"pagination_data"`
	}
	path := "/v1/delivery/store/" + url.PathEscape(storeID) + "/orders?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, err
	}
	return &OrderPage{Orders: resp.Data, NextPageToken: resp.PaginationData.NextPageToken}, nil
}

// ListStores returns the raw store list for the dashboard to render.
func (c *Client) ListStores(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/v1/eats/stores", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
