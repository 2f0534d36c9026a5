package api_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/liveshop-shipping/internal/bundle"
	"github.com/example/liveshop-shipping/internal/domain/order"
	"github.com/example/liveshop-shipping/internal/icona"
	"github.com/example/liveshop-shipping/internal/infrastructure/store"
	"github.com/example/liveshop-shipping/internal/shipping"
)

type MockOrderReader struct {
	mock.Mock
}

func (m *MockOrderReader) ListOrders(ctx context.Context, f icona.Filter) (*icona.OrderPage, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*icona.OrderPage), args.Error(1)
}

func (m *MockOrderReader) ListAllOrders(ctx context.Context, f icona.Filter) ([]order.Order, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderReader) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockBundleService struct {
	mock.Mock
}

func (m *MockBundleService) Create(ctx context.Context, userID string, orderIDs []string) (*bundle.Created, error) {
	args := m.Called(ctx, userID, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.Created), args.Error(1)
}

func (m *MockBundleService) Unbundle(ctx context.Context, userID, bundleID string, orderIDs []string) (*bundle.UnbundleResult, error) {
	args := m.Called(ctx, userID, bundleID, orderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.UnbundleResult), args.Error(1)
}

func (m *MockBundleService) UnbundleItems(ctx context.Context, userID, orderID string, itemIDs []string) ([]order.Order, error) {
	args := m.Called(ctx, userID, orderID, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockBundleService) Ship(ctx context.Context, userID, bundleID string) (*bundle.ShipResult, error) {
	args := m.Called(ctx, userID, bundleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.ShipResult), args.Error(1)
}

func (m *MockBundleService) UpdateStatus(ctx context.Context, userID, orderID string, status order.Status, relist bool) (*order.Order, error) {
	args := m.Called(ctx, userID, orderID, status, relist)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockBundleService) CancelBundle(ctx context.Context, userID, bundleID string, relist bool) (*bundle.CancelResult, error) {
	args := m.Called(ctx, userID, bundleID, relist)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bundle.CancelResult), args.Error(1)
}

type MockLabelService struct {
	mock.Mock
}

func (m *MockLabelService) PurchaseForOrder(ctx context.Context, req shipping.OrderLabelRequest) (*shipping.LabelResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.LabelResult), args.Error(1)
}

func (m *MockLabelService) PurchaseForBundle(ctx context.Context, req shipping.BundleLabelRequest) (*shipping.LabelResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.LabelResult), args.Error(1)
}

func (m *MockLabelService) PurchaseBulk(ctx context.Context, req shipping.BulkLabelRequest) (*shipping.BulkResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.BulkResult), args.Error(1)
}

func (m *MockLabelService) ListUnapplied(ctx context.Context, userID string) ([]store.LabelRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.LabelRecord), args.Error(1)
}

func (m *MockLabelService) Reapply(ctx context.Context, userID, trackingNumber string) (*shipping.ReapplyResult, error) {
	args := m.Called(ctx, userID, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.ReapplyResult), args.Error(1)
}
