package shopify

import (
	"context"
	"fmt"
	"time"

	"github.com/AlibekovAA/shop-dash/backend/internal/common/constants"
	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
	"github.com/AlibekovAA/shop-dash/backend/internal/observability/metrics"
)

const (
	FulfilledOrdersFilter = "fulfillment_status:fulfilled"
	RemainingOrdersFilter = "fulfillment_status:unfulfilled OR fulfillment_status:partial"
)

var ErrInvalidPageSize = commonerrors.NewValidationError(
	"INVALID_PAGE_SIZE",
	fmt.Sprintf("page size must be between 1 and %d", constants.ShopifyMaxPageSize),
)

var ErrMalformedPage = commonerrors.NewUpstreamError(
	"MALFORMED_PAGE",
	"upstream returned a malformed page",
)

// Page is one slice of a cursor-paginated connection.
type Page struct {
	Items    int
	PageInfo PageInfo
}

// PageFetcher requests the page after cursor; an empty cursor means the
// first page.
type PageFetcher func(ctx context.Context, cursor string) (Page, error)

// Aggregate walks every page sequentially and sums the items. Any page
// error aborts the walk without a partial result.
func Aggregate(ctx context.Context, connection string, fetch PageFetcher) (int, error) {
	start := time.Now()
	total := 0
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			observeAggregation(connection, "cancelled", start)
			return 0, err
		}

		page, err := fetch(ctx, cursor)
		if err != nil {
			observeAggregation(connection, "error", start)
			return 0, err
		}
		metrics.AggregationPagesFetched.WithLabelValues(connection).Inc()

		total += page.Items

		if !page.PageInfo.HasNextPage {
			observeAggregation(connection, "ok", start)
			return total, nil
		}
		if page.PageInfo.EndCursor == "" {
			observeAggregation(connection, "error", start)
			return 0, ErrMalformedPage.WithCause(fmt.Errorf("%s: hasNextPage without endCursor after %d items", connection, total))
		}
		cursor = page.PageInfo.EndCursor
	}
}

func observeAggregation(connection, result string, start time.Time) {
	metrics.AggregationDurationSeconds.WithLabelValues(connection, result).Observe(time.Since(start).Seconds())
}

type ordersPage struct {
	Orders struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		PageInfo PageInfo `json:"pageInfo"`
	} `json:"orders"`
}

// CountOrders returns how many orders match filter, fetching pageSize
// orders per request.
func CountOrders(ctx context.Context, exec Executor, filter string, pageSize int) (int, error) {
	if pageSize < 1 || pageSize > constants.ShopifyMaxPageSize {
		return 0, ErrInvalidPageSize
	}

	return Aggregate(ctx, "orders", func(ctx context.Context, cursor string) (Page, error) {
		vars := map[string]any{
			"first": pageSize,
			"query": filter,
		}
		if cursor != "" {
			vars["after"] = cursor
		}

		var out ordersPage
		if err := exec.Execute(ctx, OrdersPageQuery, vars, &out); err != nil {
			return Page{}, err
		}
		return Page{Items: len(out.Orders.Nodes), PageInfo: out.Orders.PageInfo}, nil
	})
}
