package icona

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

// pageLimit is the largest page the upstream serves.
const pageLimit = 100

// Filter selects orders. UserID scopes to a seller, Customer to a buyer; they
// are mutually exclusive.
type Filter struct {
	UserID     string
	Customer   string
	Status     order.Status
	CustomerID string
	Page       int
	Limit      int
}

func (f Filter) Validate() error {
	if f.UserID != "" && f.Customer != "" {
		return order.NewValidationError("userId", "cannot be combined with customer")
	}
	if f.Status != "" && !f.Status.Valid() {
		return order.NewValidationError("status", "unknown status %q", f.Status)
	}
	if f.Page < 0 || f.Limit < 0 {
		return order.NewValidationError("page", "page and limit must not be negative")
	}
	return nil
}

func (f Filter) query() url.Values {
	q := url.Values{}
	if f.UserID != "" {
		q.Set("userId", f.UserID)
	}
	if f.Customer != "" {
		q.Set("customer", f.Customer)
	}
	if f.Status != "" {
		q.Set("status", f.Status.String())
	}
	if f.CustomerID != "" {
		q.Set("customerId", f.CustomerID)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

type OrderPage struct {
	Orders []order.Order `json:"orders"`
	Total  int           `json:"total"`
	Pages  int           `json:"pages"`
}

func (c *Client) ListOrders(ctx context.Context, f Filter) (*OrderPage, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var page OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders", f.query(), nil, &page); err != nil {
		return nil, err
	}
	if page.Orders == nil {
		page.Orders = []order.Order{}
	}
	return &page, nil
}

// ListAllOrders walks every page and returns the complete order set for f,
// ignoring f.Page and f.Limit.
func (c *Client) ListAllOrders(ctx context.Context, f Filter) ([]order.Order, error) {
	f.Limit = pageLimit
	var all []order.Order
	for page := 1; ; page++ {
		f.Page = page
		res, err := c.ListOrders(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders page %d: %w", page, err)
		}
		all = append(all, res.Orders...)
		if page >= res.Pages || len(res.Orders) == 0 {
			break
		}
	}
	return all, nil
}

func (c *Client) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UpdateOrder(ctx context.Context, id string, patch order.Patch) (*order.Order, error) {
	var o order.Order
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id), nil, patch, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

type unbundleItemsRequest struct {
	OrderID string   `json:"orderId"`
	ItemIDs []string `json:"itemIds"`
}

type unbundleItemsResponse struct {
	Orders []order.Order `json:"orders"`
}

// UnbundleItems moves itemIDs out of orderID into new orders and returns them.
func (c *Client) UnbundleItems(ctx context.Context, orderID string, itemIDs []string) ([]order.Order, error) {
	var res unbundleItemsResponse
	req := unbundleItemsRequest{OrderID: orderID, ItemIDs: itemIDs}
	if err := c.do(ctx, http.MethodPost, "/orders/unbundle", nil, req, &res); err != nil {
		return nil, err
	}
	return res.Orders, nil
}
