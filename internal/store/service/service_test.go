package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/common/logger"
	"github.com/AlibekovAA/shop-dash/backend/internal/shopify"
	"github.com/AlibekovAA/shop-dash/backend/internal/store/domain"
)

type call struct {
	operation string
	vars      map[string]any
}

// fakeExecutor answers by GraphQL operation name.
type fakeExecutor struct {
	responses map[string]func(vars map[string]any) (any, error)
	calls     []call
}

func (f *fakeExecutor) Execute(_ context.Context, query string, vars map[string]any, out any) error {
	op := shopify.OperationName(query)
	f.calls = append(f.calls, call{operation: op, vars: vars})

	respond, ok := f.responses[op]
	if !ok {
		return fmt.Errorf("unexpected operation %q", op)
	}
	data, err := respond(vars)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func countOf(field string, n int) func(map[string]any) (any, error) {
	return func(map[string]any) (any, error) {
		return map[string]any{field: map[string]any{"count": n}}, nil
	}
}

func newTestService() *StoreService {
	log, _ := logger.New("", "test", "error")
	svc := NewStoreService(Config{OrdersPageSize: 2}, log)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestCounts(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productsCount":    countOf("productsCount", 12),
		"collectionsCount": countOf("collectionsCount", 3),
		"ordersCount":      countOf("ordersCount", 41),
	}}
	svc := newTestService()

	n, err := svc.ProductsCount(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = svc.CollectionsCount(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = svc.OrdersCount(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, 41, n)
}

func ordersPages(total int) func(map[string]any) (any, error) {
	return func(vars map[string]any) (any, error) {
		first := vars["first"].(int)
		offset := 0
		if after, ok := vars["after"].(string); ok {
			_, _ = fmt.Sscanf(after, "c%d", &offset)
		}
		n := total - offset
		if n > first {
			n = first
		}
		nodes := make([]map[string]any, n)
		for i := range nodes {
			nodes[i] = map[string]any{"id": "gid://shopify/Order/1"}
		}
		next := offset+n < total
		return map[string]any{"orders": map[string]any{
			"nodes":    nodes,
			"pageInfo": map[string]any{"hasNextPage": next, "endCursor": fmt.Sprintf("c%d", offset+n)},
		}}, nil
	}
}

func TestSummary(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productsCount":    countOf("productsCount", 5),
		"collectionsCount": countOf("collectionsCount", 2),
		"ordersCount":      countOf("ordersCount", 9),
		"ordersPage": func(vars map[string]any) (any, error) {
			if vars["query"] == shopify.FulfilledOrdersFilter {
				return ordersPages(5)(vars)
			}
			return ordersPages(4)(vars)
		},
	}}

	sum, err := newTestService().Summary(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, domain.Summary{
		ProductsCount:    5,
		CollectionsCount: 2,
		OrdersCount:      9,
		FulfilledOrders:  5,
		RemainingOrders:  4,
		GeneratedAt:      time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}, sum)
}

func TestSummary_FailureAborts(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productsCount": countOf("productsCount", 5),
		"collectionsCount": func(map[string]any) (any, error) {
			return nil, commonerrors.ErrUpstreamTimeout
		},
	}}

	_, err := newTestService().Summary(context.Background(), exec)
	assert.ErrorIs(t, err, commonerrors.ErrUpstreamTimeout)
	assert.Len(t, exec.calls, 2)
}

func TestRecentOrders_Flattens(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"recentOrders": func(vars map[string]any) (any, error) {
			assert.EqualValues(t, 50, vars["first"])
			assert.EqualValues(t, 10, vars["lineItems"])
			return map[string]any{"orders": map[string]any{"edges": []any{
				map[string]any{"node": map[string]any{
					"id":                       "gid://shopify/Order/7",
					"name":                     "#1007",
					"createdAt":                "2025-02-01T10:00:00Z",
					"updatedAt":                "2025-02-02T10:00:00Z",
					"totalPriceSet":            map[string]any{"shopMoney": map[string]any{"amount": "19.90", "currencyCode": "EUR"}},
					"displayFinancialStatus":   "PAID",
					"displayFulfillmentStatus": "UNFULFILLED",
					"customer":                 nil,
					"lineItems": map[string]any{"edges": []any{
						map[string]any{"node": map[string]any{
							"title":                "misty river",
							"quantity":             2,
							"originalUnitPriceSet": map[string]any{"shopMoney": map[string]any{"amount": "9.95", "currencyCode": "EUR"}},
						}},
					}},
				}},
			}}}, nil
		},
	}}

	orders, err := newTestService().RecentOrders(context.Background(), exec)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "#1007", o.Name)
	assert.Equal(t, "19.90", o.TotalPrice)
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, "PAID", o.FinancialStatus)
	assert.Nil(t, o.Customer)
	assert.Equal(t, []domain.LineItem{{Title: "misty river", Quantity: 2, Price: "9.95", Currency: "EUR"}}, o.LineItems)
}

func TestListProducts_MapsImageAndVariants(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productsList": func(map[string]any) (any, error) {
			return map[string]any{"products": map[string]any{"edges": []any{
				map[string]any{"node": map[string]any{
					"id": "gid://shopify/Product/1", "title": "A", "handle": "a", "descriptionHtml": "<p>a</p>",
					"images":   map[string]any{"edges": []any{map[string]any{"node": map[string]any{"url": "https://cdn/a.png"}}}},
					"variants": map[string]any{"edges": []any{map[string]any{"node": map[string]any{"id": "v1", "price": "5.00", "sku": "A-1"}}}},
				}},
				map[string]any{"node": map[string]any{
					"id": "gid://shopify/Product/2", "title": "B", "handle": "b",
					"images":   map[string]any{"edges": []any{}},
					"variants": map[string]any{"edges": []any{}},
				}},
			}}}, nil
		},
	}}

	products, err := newTestService().ListProducts(context.Background(), exec)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, &domain.Image{Src: "https://cdn/a.png"}, products[0].Image)
	assert.Equal(t, "<p>a</p>", products[0].BodyHTML)
	assert.Equal(t, []domain.Variant{{ID: "v1", Price: "5.00", SKU: "A-1"}}, products[0].Variants)
	assert.Nil(t, products[1].Image)
}

func TestCreateSampleProducts(t *testing.T) {
	var titles []string
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productCreate": func(vars map[string]any) (any, error) {
			title := vars["product"].(map[string]any)["title"].(string)
			titles = append(titles, title)
			return map[string]any{"productCreate": map[string]any{
				"product":    map[string]any{"id": "gid://shopify/Product/1", "title": title, "handle": "x"},
				"userErrors": []any{},
			}}, nil
		},
	}}

	created, err := newTestService().CreateSampleProducts(context.Background(), exec, 0)
	require.NoError(t, err)
	assert.Len(t, created, 5)
	assert.Len(t, titles, 5)
	for _, title := range titles {
		assert.Regexp(t, `^[a-z]+ [a-z]+$`, title)
	}
}

func TestCreateSampleProducts_UserErrorStops(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productCreate": func(map[string]any) (any, error) {
			return map[string]any{"productCreate": map[string]any{
				"product":    nil,
				"userErrors": []any{map[string]any{"field": []string{"title"}, "message": "Title can't be blank"}},
			}}, nil
		},
	}}

	created, err := newTestService().CreateSampleProducts(context.Background(), exec, 3)
	require.Error(t, err)
	assert.Empty(t, created)
	assert.Len(t, exec.calls, 1)

	de, ok := commonerrors.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, 400, de.HTTPStatus())
	assert.Equal(t, "Title can't be blank", de.Message())
}

func TestUpdateProduct(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productUpdate": func(vars map[string]any) (any, error) {
			input := vars["product"].(map[string]any)
			assert.Equal(t, "gid://shopify/Product/1", input["id"])
			assert.Equal(t, "New", input["title"])
			assert.NotContains(t, input, "handle")
			return map[string]any{"productUpdate": map[string]any{
				"product":    map[string]any{"id": input["id"], "title": "New", "handle": "old", "descriptionHtml": "<p>x</p>"},
				"userErrors": []any{},
			}}, nil
		},
	}}

	p, err := newTestService().UpdateProduct(context.Background(), exec, domain.ProductUpdate{
		ID: "gid://shopify/Product/1", Title: "New", BodyHTML: "<p>x</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "New", p.Title)
	assert.Equal(t, "<p>x</p>", p.BodyHTML)

	_, err = newTestService().UpdateProduct(context.Background(), exec, domain.ProductUpdate{Title: "x"})
	assert.ErrorIs(t, err, ErrProductIDRequired)
}

func TestDeleteProduct(t *testing.T) {
	exec := &fakeExecutor{responses: map[string]func(map[string]any) (any, error){
		"productDelete": func(vars map[string]any) (any, error) {
			id := vars["input"].(map[string]any)["id"]
			if id == "gid://shopify/Product/404" {
				return map[string]any{"productDelete": map[string]any{
					"deletedProductId": nil,
					"userErrors":       []any{map[string]any{"field": []string{"id"}, "message": "Product does not exist"}},
				}}, nil
			}
			return map[string]any{"productDelete": map[string]any{"deletedProductId": id, "userErrors": []any{}}}, nil
		},
	}}
	svc := newTestService()

	id, err := svc.DeleteProduct(context.Background(), exec, "gid://shopify/Product/1")
	require.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/1", id)

	_, err = svc.DeleteProduct(context.Background(), exec, "gid://shopify/Product/404")
	assert.ErrorIs(t, err, ErrProductRejected)

	_, err = svc.DeleteProduct(context.Background(), exec, "")
	assert.ErrorIs(t, err, ErrProductIDRequired)
	assert.Len(t, exec.calls, 2)
}
