package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/catalog/internal/product/events"
	producterrors "github.com/abgdnv/catalog/internal/product/errors"
	"github.com/abgdnv/catalog/internal/product/store"
	"github.com/abgdnv/catalog/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	metricsdk "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) List(ctx context.Context, query store.ListQuery) (*store.Page, error) {
	args := m.Called(ctx, query)
	var page *store.Page
	if args.Get(0) != nil {
		page = args.Get(0).(*store.Page)
	}
	return page, args.Error(1)
}

func (m *MockProductStore) FindByID(ctx context.Context, id string) (*store.Product, error) {
	args := m.Called(ctx, id)
	var product *store.Product
	if args.Get(0) != nil {
		product = args.Get(0).(*store.Product)
	}
	return product, args.Error(1)
}

func (m *MockProductStore) Create(ctx context.Context, fields store.ProductFields) (*store.Product, error) {
	args := m.Called(ctx, fields)
	var product *store.Product
	if args.Get(0) != nil {
		product = args.Get(0).(*store.Product)
	}
	return product, args.Error(1)
}

func (m *MockProductStore) Update(ctx context.Context, id string, fields store.ProductFields) (*store.Product, error) {
	args := m.Called(ctx, id, fields)
	var product *store.Product
	if args.Get(0) != nil {
		product = args.Get(0).(*store.Product)
	}
	return product, args.Error(1)
}

func (m *MockProductStore) DeleteByID(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event messaging.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo store.ProductStore, publisher messaging.Publisher, defaultLimit int) *Service {
	s := NewService(repo, publisher, defaultLimit, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return fixedNow }
	return s
}

func validPayload() map[string]any {
	return map[string]any{
		"name":        "Phone",
		"description": "Smartphone",
		"price":       599.99,
		"category":    "Electronics",
		"inStock":     true,
	}
}

func validFields() store.ProductFields {
	return store.ProductFields{
		Name:        "Phone",
		Description: "Smartphone",
		Price:       599.99,
		Category:    "Electronics",
		InStock:     true,
	}
}

func Test_ProductService_FindAll(t *testing.T) {
	testCases := []struct {
		name          string
		defaultLimit  int
		query         ListQuery
		expectedQuery store.ListQuery
	}{
		{
			name:          "configured default limit",
			defaultLimit:  25,
			query:         ListQuery{Page: 2},
			expectedQuery: store.ListQuery{Page: 2, Limit: 25},
		},
		{
			name:          "invalid default limit falls back",
			defaultLimit:  0,
			query:         ListQuery{Page: 1},
			expectedQuery: store.ListQuery{Page: 1, Limit: store.DefaultLimit},
		},
		{
			name:          "explicit limit and category",
			defaultLimit:  25,
			query:         ListQuery{Category: "Books", Page: 3, Limit: 4},
			expectedQuery: store.ListQuery{Category: "Books", Page: 3, Limit: 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			repo := new(MockProductStore)
			repo.On("List", ctx, tc.expectedQuery).Return(&store.Page{
				Total: 1,
				Page:  tc.expectedQuery.Page,
				Limit: tc.expectedQuery.Limit,
				Data:  []store.Product{{ID: "1", ProductFields: validFields()}},
			}, nil)
			s := newTestService(repo, nil, tc.defaultLimit)
			// when
			page, err := s.FindAll(ctx, tc.query)
			// then
			require.NoError(t, err)
			assert.Equal(t, 1, page.Total)
			assert.Equal(t, tc.expectedQuery.Page, page.Page)
			assert.Equal(t, tc.expectedQuery.Limit, page.Limit)
			require.Len(t, page.Data, 1)
			assert.Equal(t, "Phone", page.Data[0].Name)
			repo.AssertExpectations(t)
		})
	}
}

func Test_ProductService_FindAll_EmptyDataIsNotNull(t *testing.T) {
	// given
	ctx := context.Background()
	repo := new(MockProductStore)
	repo.On("List", ctx, mock.Anything).Return(&store.Page{Page: 5, Limit: 10, Data: []store.Product{}}, nil)
	s := newTestService(repo, nil, 10)
	// when
	page, err := s.FindAll(ctx, ListQuery{Page: 5})
	require.NoError(t, err)
	body, err := json.Marshal(page)
	// then
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"page":5,"limit":10,"data":[]}`, string(body))
}

func Test_ProductService_FindByID(t *testing.T) {
	testCases := []struct {
		name        string
		mockProduct *store.Product
		mockError   error
		expected    *ProductDto
		expectError error
	}{
		{
			name:        "Success - product found",
			mockProduct: &store.Product{ID: "1", ProductFields: validFields()},
			expected: &ProductDto{
				ID:          "1",
				Name:        "Phone",
				Description: "Smartphone",
				Price:       599.99,
				Category:    "Electronics",
				InStock:     true,
			},
		},
		{
			name:        "Error - product not found",
			mockError:   producterrors.ErrProductNotFound,
			expectError: producterrors.ErrProductNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			repo := new(MockProductStore)
			repo.On("FindByID", ctx, "1").Return(tc.mockProduct, tc.mockError)
			s := newTestService(repo, nil, 10)
			// when
			found, err := s.FindByID(ctx, "1")
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, found)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, found)
		})
	}
}

func Test_ProductService_Create(t *testing.T) {
	// given
	ctx := context.Background()
	payload := validPayload()
	payload["id"] = "ignored"
	payload["color"] = "red"
	expectedFields := validFields()
	expectedFields.Extra = map[string]any{"color": "red"}

	repo := new(MockProductStore)
	repo.On("Create", ctx, expectedFields).Return(&store.Product{ID: "new-id", ProductFields: expectedFields}, nil)
	publisher := new(MockPublisher)
	publisher.On("Publish", ctx, mock.MatchedBy(func(e messaging.Event) bool {
		changed, ok := e.(events.ProductChangedEvent)
		return ok && changed.Subject() == events.ProductCreatedSubject &&
			changed.ProductID == "new-id" && changed.OccurredAt.Equal(fixedNow)
	})).Return(nil)
	s := newTestService(repo, publisher, 10)
	// when
	created, err := s.Create(ctx, payload)
	// then
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	body, err := json.Marshal(created)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"new-id","name":"Phone","description":"Smartphone","price":599.99,"category":"Electronics","inStock":true,"color":"red"}`, string(body))
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func Test_ProductService_Create_Invalid(t *testing.T) {
	// given
	repo := new(MockProductStore)
	publisher := new(MockPublisher)
	s := newTestService(repo, publisher, 10)
	payload := validPayload()
	payload["price"] = -1
	// when
	created, err := s.Create(context.Background(), payload)
	// then
	assert.Nil(t, created)
	assert.ErrorIs(t, err, producterrors.ErrInvalidPrice)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func Test_ProductService_Create_PublishFailureIsTolerated(t *testing.T) {
	// given
	ctx := context.Background()
	repo := new(MockProductStore)
	repo.On("Create", ctx, validFields()).Return(&store.Product{ID: "1", ProductFields: validFields()}, nil)
	publisher := new(MockPublisher)
	publisher.On("Publish", ctx, mock.Anything).Return(messaging.ErrPublisherUnavailable)
	s := newTestService(repo, publisher, 10)
	// when
	created, err := s.Create(ctx, validPayload())
	// then
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	publisher.AssertExpectations(t)
}

func Test_ProductService_Update(t *testing.T) {
	testCases := []struct {
		name        string
		payload     map[string]any
		mockProduct *store.Product
		mockError   error
		expectError error
		expectStore bool
		expectEvent bool
	}{
		{
			name:        "success",
			payload:     validPayload(),
			mockProduct: &store.Product{ID: "1", ProductFields: validFields()},
			expectStore: true,
			expectEvent: true,
		},
		{
			name:        "not found",
			payload:     validPayload(),
			mockError:   producterrors.ErrProductNotFound,
			expectError: producterrors.ErrProductNotFound,
			expectStore: true,
		},
		{
			name:        "validation runs before lookup",
			payload:     map[string]any{"name": "Only name"},
			expectError: producterrors.ErrMissingFields,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			repo := new(MockProductStore)
			if tc.expectStore {
				repo.On("Update", ctx, "1", validFields()).Return(tc.mockProduct, tc.mockError)
			}
			publisher := new(MockPublisher)
			if tc.expectEvent {
				publisher.On("Publish", ctx, mock.MatchedBy(func(e messaging.Event) bool {
					return e.Subject() == events.ProductUpdatedSubject
				})).Return(nil)
			}
			s := newTestService(repo, publisher, 10)
			// when
			updated, err := s.Update(ctx, "1", tc.payload)
			// then
			if tc.expectError != nil {
				assert.ErrorIs(t, err, tc.expectError)
				assert.Nil(t, updated)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "1", updated.ID)
			}
			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
			if !tc.expectStore {
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
			}
			if !tc.expectEvent {
				publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			}
		})
	}
}

func Test_ProductService_DeleteByID(t *testing.T) {
	testCases := []struct {
		name        string
		mockError   error
		expectError error
	}{
		{name: "success"},
		{name: "not found", mockError: producterrors.ErrProductNotFound, expectError: producterrors.ErrProductNotFound},
		{name: "store failure", mockError: errors.New("boom"), expectError: errors.New("boom")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx := context.Background()
			repo := new(MockProductStore)
			repo.On("DeleteByID", ctx, "1").Return(tc.mockError)
			publisher := new(MockPublisher)
			if tc.mockError == nil {
				publisher.On("Publish", ctx, events.Deleted("1", fixedNow)).Return(nil)
			}
			s := newTestService(repo, publisher, 10)
			// when
			err := s.DeleteByID(ctx, "1")
			// then
			if tc.expectError != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectError.Error())
				publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			publisher.AssertExpectations(t)
		})
	}
}

func Test_ProductDto_MarshalJSON_CoreFieldsWin(t *testing.T) {
	// given
	dto := ProductDto{
		ID:       "1",
		Name:     "Phone",
		Price:    1,
		Category: "X",
		Extra:    map[string]any{"name": "shadow", "color": "red"},
	}
	// when
	body, err := json.Marshal(dto)
	// then
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1","name":"Phone","description":"","price":1,"category":"X","inStock":false,"color":"red"}`, string(body))
}

// counterValues collects every int64 sum recorded under MeterName.
func counterValues(t *testing.T, reader *metricsdk.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	values := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != MeterName {
			continue
		}
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				values[m.Name] += dp.Value
			}
		}
	}
	return values
}

func Test_ProductService_CountsMutations(t *testing.T) {
	// given
	ctx := context.Background()
	reader := metricsdk.NewManualReader()
	otel.SetMeterProvider(metricsdk.NewMeterProvider(metricsdk.WithReader(reader)))
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })

	product := &store.Product{ID: "1", ProductFields: validFields()}
	repo := new(MockProductStore)
	repo.On("Create", ctx, validFields()).Return(product, nil)
	repo.On("Update", ctx, "1", validFields()).Return(product, nil)
	repo.On("DeleteByID", ctx, "1").Return(nil)
	repo.On("DeleteByID", ctx, "2").Return(producterrors.ErrProductNotFound)
	s := newTestService(repo, nil, 10)
	// when
	_, err := s.Create(ctx, validPayload())
	require.NoError(t, err)
	_, err = s.Create(ctx, map[string]any{})
	require.Error(t, err)
	_, err = s.Update(ctx, "1", validPayload())
	require.NoError(t, err)
	require.NoError(t, s.DeleteByID(ctx, "1"))
	require.Error(t, s.DeleteByID(ctx, "2"))
	// then
	assert.Equal(t, map[string]int64{
		"products_created": 1,
		"products_updated": 1,
		"products_deleted": 1,
	}, counterValues(t, reader))
}
