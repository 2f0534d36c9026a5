package bundle

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/liveshop-shipping/internal/domain/order"
)

// Row is one line of the shipping list: a bundle, or a standalone order.
// BundleLike marks a multi-item standalone order shown as a one-member bundle.
type Row struct {
	ID          string          `json:"id"`
	BundleID    string          `json:"bundleId,omitempty"`
	BundleLike  bool            `json:"bundleLike"`
	Customer    string          `json:"customer"`
	Status      order.Status    `json:"status"`
	ItemCount   int             `json:"itemCount"`
	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalWeight decimal.Decimal `json:"totalWeight"`
	CreatedAt   time.Time       `json:"createdAt"`
	Orders      []order.Order   `json:"orders"`
}

// Rows groups the shipping list into bundle rows and standalone rows.
type Rows struct {
	Bundles    []Row `json:"bundles"`
	Standalone []Row `json:"standalone"`
}

// DisplayRows builds the shipping list from the full order set. The status
// filter is applied to rows after bundles were computed.
func DisplayRows(orders []order.Order, status order.Status) Rows {
	standalone, bundles := Aggregate(orders)
	rows := Rows{Bundles: []Row{}, Standalone: []Row{}}

	for _, b := range bundles {
		row := Row{
			ID:          b.ID,
			BundleID:    b.ID,
			Customer:    customerOf(b.Orders),
			Status:      b.Status,
			ItemCount:   b.ItemCount,
			TotalValue:  b.TotalValue,
			TotalWeight: b.TotalWeight,
			CreatedAt:   b.CreatedAt,
			Orders:      b.Orders,
		}
		if matches(row, status) {
			rows.Bundles = append(rows.Bundles, row)
		}
	}

	for _, o := range standalone {
		members := []order.Order{o}
		row := Row{
			ID:          o.ID,
			BundleLike:  len(o.Items) > 1,
			Customer:    o.CustomerName(),
			Status:      o.Status,
			ItemCount:   o.ItemCount(),
			TotalValue:  TotalValue(members),
			TotalWeight: o.WeightOz(),
			CreatedAt:   o.CreatedAt,
			Orders:      members,
		}
		if !matches(row, status) {
			continue
		}
		if row.BundleLike {
			rows.Bundles = append(rows.Bundles, row)
		} else {
			rows.Standalone = append(rows.Standalone, row)
		}
	}
	return rows
}

func matches(row Row, status order.Status) bool {
	return status == "" || row.Status == status
}

func customerOf(orders []order.Order) string {
	for i := range orders {
		if name := orders[i].CustomerName(); name != "" {
			return name
		}
	}
	return ""
}

const (
	SortCustomer = "customer"
	SortStatus   = "status"
	SortItems    = "items"
	SortTotal    = "total"
	SortDate     = "date"
)

type Sort struct {
	Column string
	Desc   bool
}

// ParseSort reads the sort and dir query values. An empty column sorts by
// creation date, newest first.
func ParseSort(column, dir string) (Sort, error) {
	switch column {
	case "":
		return Sort{Column: SortDate, Desc: true}, nil
	case SortCustomer, SortStatus, SortItems, SortTotal, SortDate:
	default:
		return Sort{}, order.NewValidationError("sort", "unknown column %q", column)
	}

	switch strings.ToLower(dir) {
	case "", "asc":
		return Sort{Column: column}, nil
	case "desc":
		return Sort{Column: column, Desc: true}, nil
	default:
		return Sort{}, order.NewValidationError("dir", "must be asc or desc")
	}
}

// SortRows sorts rows in place. Equal rows keep their relative order.
func SortRows(rows []Row, s Sort) {
	compare := comparator(s.Column)
	slices.SortStableFunc(rows, func(a, b Row) int {
		if s.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

func comparator(column string) func(a, b Row) int {
	switch column {
	case SortCustomer:
		return func(a, b Row) int {
			return strings.Compare(strings.ToLower(a.Customer), strings.ToLower(b.Customer))
		}
	case SortStatus:
		return func(a, b Row) int {
			return strings.Compare(string(a.Status), string(b.Status))
		}
	case SortItems:
		return func(a, b Row) int { return a.ItemCount - b.ItemCount }
	case SortTotal:
		return func(a, b Row) int { return a.TotalValue.Cmp(b.TotalValue) }
	default:
		return func(a, b Row) int { return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()) }
	}
}
