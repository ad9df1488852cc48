// Package booqable implements repository.BookingBackend against the
// Booqable REST API (v1). Request and response bodies are wrapped in a
// singular resource key, e.g. {"order": {...}}.
package booqable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gearshare-backend/internal/config"
	"gearshare-backend/internal/repository"
	"gearshare-backend/internal/repository/restclient"
)

// APIError is the upstream error type returned for status >= 400.
type APIError = restclient.APIError

// IsRateLimited reports whether err is an HTTP 429 from Booqable.
func IsRateLimited(err error) bool {
	return restclient.IsRateLimited(err)
}

type client struct {
	rest *restclient.Client
}

func NewClient(cfg config.BookingConfig) repository.BookingBackend {
	return &client{rest: restclient.New(repository.BackendBooking, cfg.ClientConfig)}
}

type productGroupEnvelope struct {
	ProductGroup *repository.ProductGroup `json:"product_group"`
}

type productGroupsEnvelope struct {
	ProductGroups []repository.ProductGroup `json:"product_groups"`
}

type productEnvelope struct {
	Product *repository.Product `json:"product"`
}

type orderEnvelope struct {
	Order *repository.Order `json:"order"`
}

type ordersEnvelope struct {
	Orders []repository.Order `json:"orders"`
}

type lineEnvelope struct {
	Line *repository.OrderLine `json:"line"`
}

func (c *client) CreateProductGroup(ctx context.Context, group *repository.ProductGroup) (*repository.ProductGroup, error) {
	var out productGroupEnvelope
	if err := c.rest.Do(ctx, "CreateProductGroup", http.MethodPost, "/product_groups", nil, productGroupEnvelope{group}, &out); err != nil {
		return nil, fmt.Errorf("create product group: %w", err)
	}
	return unwrapProductGroup(out)
}

func (c *client) GetProductGroup(ctx context.Context, id string) (*repository.ProductGroup, error) {
	var out productGroupEnvelope
	if err := c.rest.Do(ctx, "GetProductGroup", http.MethodGet, "/product_groups/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get product group %s: %w", id, err)
	}
	return unwrapProductGroup(out)
}

func (c *client) UpdateProductGroup(ctx context.Context, id string, group *repository.ProductGroup) (*repository.ProductGroup, error) {
	var out productGroupEnvelope
	if err := c.rest.Do(ctx, "UpdateProductGroup", http.MethodPut, "/product_groups/"+url.PathEscape(id), nil, productGroupEnvelope{group}, &out); err != nil {
		return nil, fmt.Errorf("update product group %s: %w", id, err)
	}
	return unwrapProductGroup(out)
}

// ArchiveProductGroup archives the group. Booqable never hard-deletes
// product groups; DELETE archives them.
func (c *client) ArchiveProductGroup(ctx context.Context, id string) error {
	if err := c.rest.Do(ctx, "ArchiveProductGroup", http.MethodDelete, "/product_groups/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return fmt.Errorf("archive product group %s: %w", id, err)
	}
	return nil
}

func (c *client) ListProductGroups(ctx context.Context) ([]repository.ProductGroup, error) {
	var out productGroupsEnvelope
	if err := c.rest.Do(ctx, "ListProductGroups", http.MethodGet, "/product_groups", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list product groups: %w", err)
	}
	return out.ProductGroups, nil
}

func (c *client) GetProduct(ctx context.Context, id string) (*repository.Product, error) {
	var out productEnvelope
	if err := c.rest.Do(ctx, "GetProduct", http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	if out.Product == nil {
		return nil, errMissing("product")
	}
	return out.Product, nil
}

func (c *client) CreateOrder(ctx context.Context, order *repository.Order) (*repository.Order, error) {
	var out orderEnvelope
	if err := c.rest.Do(ctx, "CreateOrder", http.MethodPost, "/orders", nil, orderEnvelope{order}, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return unwrapOrder(out)
}

func (c *client) GetOrder(ctx context.Context, id string) (*repository.Order, error) {
	var out orderEnvelope
	if err := c.rest.Do(ctx, "GetOrder", http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return unwrapOrder(out)
}

func (c *client) UpdateOrder(ctx context.Context, id string, order *repository.Order) (*repository.Order, error) {
	var out orderEnvelope
	if err := c.rest.Do(ctx, "UpdateOrder", http.MethodPut, "/orders/"+url.PathEscape(id), nil, orderEnvelope{order}, &out); err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	return unwrapOrder(out)
}

func (c *client) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]repository.Order, error) {
	q := url.Values{}
	if len(filter.Statuses) > 0 {
		q.Set("status", strings.Join(filter.Statuses, ","))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.PerPage > 0 {
		q.Set("per", strconv.Itoa(filter.PerPage))
	}

	var out ordersEnvelope
	if err := c.rest.Do(ctx, "ListOrders", http.MethodGet, "/orders", q, nil, &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return out.Orders, nil
}

func (c *client) AddOrderLine(ctx context.Context, orderID string, line *repository.OrderLine) (*repository.OrderLine, error) {
	var out lineEnvelope
	path := fmt.Sprintf("/orders/%s/lines", url.PathEscape(orderID))
	if err := c.rest.Do(ctx, "AddOrderLine", http.MethodPost, path, nil, lineEnvelope{line}, &out); err != nil {
		return nil, fmt.Errorf("add line to order %s: %w", orderID, err)
	}
	if out.Line == nil {
		return nil, errMissing("line")
	}
	return out.Line, nil
}

func (c *client) ReserveOrder(ctx context.Context, id string) (*repository.Order, error) {
	var out orderEnvelope
	path := fmt.Sprintf("/orders/%s/reserve", url.PathEscape(id))
	if err := c.rest.Do(ctx, "ReserveOrder", http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("reserve order %s: %w", id, err)
	}
	return unwrapOrder(out)
}

func (c *client) CancelOrder(ctx context.Context, id string) (*repository.Order, error) {
	var out orderEnvelope
	path := fmt.Sprintf("/orders/%s/cancel", url.PathEscape(id))
	if err := c.rest.Do(ctx, "CancelOrder", http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("cancel order %s: %w", id, err)
	}
	return unwrapOrder(out)
}

func unwrapProductGroup(env productGroupEnvelope) (*repository.ProductGroup, error) {
	if env.ProductGroup == nil {
		return nil, errMissing("product_group")
	}
	return env.ProductGroup, nil
}

func unwrapOrder(env orderEnvelope) (*repository.Order, error) {
	if env.Order == nil {
		return nil, errMissing("order")
	}
	return env.Order, nil
}

func errMissing(key string) error {
	return errors.New("response has no " + key + " object")
}
