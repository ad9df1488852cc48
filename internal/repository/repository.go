package repository

import (
	"context"
	"errors"
	"time"

	"gearshare-backend/internal/domain"
)

// ErrRateLimited is wrapped by backend errors caused by an upstream HTTP 429.
var ErrRateLimited = errors.New("rate limited")

// Backend names used in errors, logs and metrics.
const (
	BackendBooking   = "booking"
	BackendRecords   = "records"
	BackendDocuments = "documents"
	BackendEmail     = "email"
)

// ProductGroup is a rentable catalogue entry in the Booking Backend.
type ProductGroup struct {
	ID               string    `json:"id,omitempty"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	BasePriceInCents int64     `json:"base_price_in_cents"`
	Quantity         int       `json:"quantity,omitempty"`
	TagList          []string  `json:"tag_list,omitempty"`
	Archived         bool      `json:"archived,omitempty"`
	Products         []Product `json:"products,omitempty"`
}

// Product is a stock-keeping unit inside a ProductGroup.
type Product struct {
	ID             string `json:"id,omitempty"`
	ProductGroupID string `json:"product_group_id,omitempty"`
	Name           string `json:"name,omitempty"`
	Quantity       int    `json:"quantity,omitempty"`
}

type Order struct {
	ID         string      `json:"id,omitempty"`
	Number     int         `json:"number,omitempty"`
	CustomerID string      `json:"customer_id,omitempty"`
	StartsAt   *time.Time  `json:"starts_at,omitempty"`
	StopsAt    *time.Time  `json:"stops_at,omitempty"`
	Status     string      `json:"status,omitempty"`
	Lines      []OrderLine `json:"lines,omitempty"`
}

type OrderLine struct {
	ID       string `json:"id,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// OrderFilter narrows ListOrders. Zero values mean no constraint.
type OrderFilter struct {
	Statuses []string
	Page     int
	PerPage  int
}

// BookingBackend is the rental/order-management platform.
type BookingBackend interface {
	CreateProductGroup(ctx context.Context, group *ProductGroup) (*ProductGroup, error)
	GetProductGroup(ctx context.Context, id string) (*ProductGroup, error)
	UpdateProductGroup(ctx context.Context, id string, group *ProductGroup) (*ProductGroup, error)
	ArchiveProductGroup(ctx context.Context, id string) error
	ListProductGroups(ctx context.Context) ([]ProductGroup, error)
	GetProduct(ctx context.Context, id string) (*Product, error)

	CreateOrder(ctx context.Context, order *Order) (*Order, error)
	GetOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrder(ctx context.Context, id string, order *Order) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	AddOrderLine(ctx context.Context, orderID string, line *OrderLine) (*OrderLine, error)
	ReserveOrder(ctx context.Context, id string) (*Order, error)
	CancelOrder(ctx context.Context, id string) (*Order, error)
}

type Op string

const (
	OpEq  Op = "="
	OpNeq Op = "!="
	// OpGte compares timestamps or strings; time.Time values are supported.
	OpGte Op = ">="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

type Sort struct {
	Field      string
	Descending bool
}

// Query is a structured select. Filters are ANDed.
type Query struct {
	Filters    []Filter
	Sort       []Sort
	MaxRecords int
}

// Record is one row of a Records Backend table.
type Record struct {
	ID          string
	CreatedTime time.Time
	Fields      domain.Fields
}

// RecordStore is the spreadsheet-like records platform.
type RecordStore interface {
	Create(ctx context.Context, table string, fields domain.Fields) (*Record, error)
	Get(ctx context.Context, table, id string) (*Record, error)
	Update(ctx context.Context, table, id string, fields domain.Fields) (*Record, error)
	Delete(ctx context.Context, table, id string) error
	Select(ctx context.Context, table string, q Query) ([]Record, error)
}

type Document struct {
	ID   string
	Data domain.Fields
}

// DocumentStore is the NoSQL mirror. Update merges the given keys.
type DocumentStore interface {
	Create(ctx context.Context, collection string, data domain.Fields) (string, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Update(ctx context.Context, collection, id string, data domain.Fields) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}
