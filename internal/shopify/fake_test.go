package shopify

import (
	"context"
	"encoding/json"
)

// fakeExecutor answers each call through a function field and records the
// variables it was called with.
type fakeExecutor struct {
	executeFunc func(ctx context.Context, query string, vars map[string]any) (any, error)
	calls       []map[string]any
}

func (f *fakeExecutor) Execute(ctx context.Context, query string, vars map[string]any, out any) error {
	f.calls = append(f.calls, vars)
	data, err := f.executeFunc(ctx, query, vars)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func ordersPageData(items int, hasNext bool, cursor string) map[string]any {
	nodes := make([]map[string]any, items)
	for i := range nodes {
		nodes[i] = map[string]any{"id": "gid://shopify/Order/1"}
	}
	return map[string]any{
		"orders": map[string]any{
			"nodes":    nodes,
			"pageInfo": map[string]any{"hasNextPage": hasNext, "endCursor": cursor},
		},
	}
}
