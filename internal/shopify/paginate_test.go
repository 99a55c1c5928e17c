package shopify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "github.com/AlibekovAA/shop-dash/backend/internal/common/errors"
)

func pagedOrders(total, pageSize int) *fakeExecutor {
	return &fakeExecutor{
		executeFunc: func(_ context.Context, _ string, vars map[string]any) (any, error) {
			offset := 0
			if after, ok := vars["after"].(string); ok {
				_, _ = fmt.Sscanf(after, "cursor-%d", &offset)
			}
			n := total - offset
			if n > pageSize {
				n = pageSize
			}
			next := offset+n < total
			return ordersPageData(n, next, fmt.Sprintf("cursor-%d", offset+n)), nil
		},
	}
}

func TestCountOrders_SumsAcrossPages(t *testing.T) {
	exec := pagedOrders(600, 250)

	count, err := CountOrders(context.Background(), exec, FulfilledOrdersFilter, 250)
	require.NoError(t, err)
	assert.Equal(t, 600, count)
	require.Len(t, exec.calls, 3)

	_, hasAfter := exec.calls[0]["after"]
	assert.False(t, hasAfter)
	assert.Equal(t, "cursor-250", exec.calls[1]["after"])
	assert.Equal(t, "cursor-500", exec.calls[2]["after"])
	for _, vars := range exec.calls {
		assert.Equal(t, FulfilledOrdersFilter, vars["query"])
		assert.Equal(t, 250, vars["first"])
	}
}

func TestCountOrders_ExactMultipleOfPageSize(t *testing.T) {
	exec := pagedOrders(500, 250)

	count, err := CountOrders(context.Background(), exec, RemainingOrdersFilter, 250)
	require.NoError(t, err)
	assert.Equal(t, 500, count)
	assert.Len(t, exec.calls, 2)
}

func TestCountOrders_EmptyResultIsOneFetch(t *testing.T) {
	exec := pagedOrders(0, 250)

	count, err := CountOrders(context.Background(), exec, FulfilledOrdersFilter, 250)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, exec.calls, 1)
}

func TestCountOrders_PageErrorAbortsWithoutPartialResult(t *testing.T) {
	calls := 0
	exec := &fakeExecutor{
		executeFunc: func(context.Context, string, map[string]any) (any, error) {
			calls++
			if calls == 2 {
				return nil, commonerrors.ErrUpstream.WithCause(errors.New("throttled"))
			}
			return ordersPageData(250, true, "cursor-250"), nil
		},
	}

	count, err := CountOrders(context.Background(), exec, FulfilledOrdersFilter, 250)
	require.Error(t, err)
	assert.ErrorIs(t, err, commonerrors.ErrUpstream)
	assert.Equal(t, 0, count)
	assert.Equal(t, 2, calls)
}

func TestCountOrders_MissingCursorIsMalformed(t *testing.T) {
	exec := &fakeExecutor{
		executeFunc: func(context.Context, string, map[string]any) (any, error) {
			return ordersPageData(10, true, ""), nil
		},
	}

	_, err := CountOrders(context.Background(), exec, FulfilledOrdersFilter, 250)
	assert.ErrorIs(t, err, ErrMalformedPage)
	assert.Len(t, exec.calls, 1)
}

func TestCountOrders_RejectsPageSize(t *testing.T) {
	for _, size := range []int{0, -1, 251} {
		_, err := CountOrders(context.Background(), pagedOrders(1, 1), FulfilledOrdersFilter, size)
		assert.ErrorIs(t, err, ErrInvalidPageSize, "size %d", size)
	}
}

func TestAggregate_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetches := 0

	_, err := Aggregate(ctx, "orders", func(context.Context, string) (Page, error) {
		fetches++
		cancel()
		return Page{Items: 1, PageInfo: PageInfo{HasNextPage: true, EndCursor: "c"}}, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, fetches)
}
