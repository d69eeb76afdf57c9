package gateway

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/metamcp/metamcp/pkg/logger"
	"github.com/metamcp/metamcp/pkg/metrics"
	"github.com/metamcp/metamcp/pkg/model"
)

// itemPrefixer rewrites one raw item returned by a backend into its
// aggregated name/uri and the original unprefixed name/uri.
type itemPrefixer func(backend *model.BackendDescriptor, item map[string]any) (prefixed, original string, ok bool)

// handleList fans out method to every active backend, concurrently,
// collecting listKey (e.g. "tools") from each successful response into
// one union array under resultKey. One backend's transport or JSON-RPC
// error is logged and excluded; it never fails the aggregate (§4.5).
func (e *Engine) handleList(ctx context.Context, id any, method, resultKey string, prefix itemPrefixer) (*model.Envelope, error) {
	start := time.Now()
	defer func() {
		metrics.AggregationDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	backends, err := e.backends.ListActive(ctx)
	if err != nil {
		return model.NewRPCError(id, codeServerError, "Database error: "+err.Error()), nil
	}

	type partial struct {
		items []map[string]any
	}
	results := make([]partial, len(backends))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		i, b := i, b
		g.Go(func() error {
			items, err := e.fetchList(gctx, b, method, resultKey)
			if err != nil {
				metrics.BackendErrorsTotal.WithLabelValues(b.Name).Inc()
				logger.Warnf("backend %q failed %s: %v", b.Name, method, err)
				return nil
			}
			results[i] = partial{items: items}
			return nil
		})
	}
	// errgroup's own cancellation-on-first-error is never triggered here
	// since every goroutine always returns nil; Wait simply joins all of
	// them, matching the "no ordering among fan-out results, one bad
	// backend must not fail the rest" discipline.
	_ = g.Wait()

	var aggregated []map[string]any
	for i, b := range backends {
		for _, raw := range results[i].items {
			prefixed, original, ok := prefix(b, raw)
			if !ok {
				continue
			}
			item := make(map[string]any, len(raw)+2)
			for k, v := range raw {
				item[k] = v
			}
			nameKey := "name"
			if resultKey == "resources" {
				nameKey = "uri"
			}
			item[nameKey] = prefixed
			item["_original_name"] = original
			item["_server_id"] = b.ID.String()
			aggregated = append(aggregated, item)
		}
	}
	if aggregated == nil {
		aggregated = []map[string]any{}
	}

	return model.NewResult(id, map[string]any{resultKey: aggregated}), nil
}

// fetchList issues method against one backend with a 30s deadline and
// extracts the resultKey array from its JSON-RPC result.
func (e *Engine) fetchList(ctx context.Context, b *model.BackendDescriptor, method, resultKey string) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	req := &model.Envelope{JSONRPC: model.RPCVersion, ID: forwardID(b.ID, method), Method: method}
	resp, err := e.transport.Forward(ctx, b, req)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, errRPC{resp.Error}
	}

	resultMap, ok := resp.Result.(map[string]any)
	if !ok {
		return nil, nil
	}
	rawItems, ok := resultMap[resultKey].([]any)
	if !ok {
		return nil, nil
	}
	items := make([]map[string]any, 0, len(rawItems))
	for _, raw := range rawItems {
		if m, ok := raw.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}

// errRPC wraps a backend's JSON-RPC error object as a Go error so it can
// flow through the same error-handling path as a transport failure.
type errRPC struct {
	rpcErr *model.RPCError
}

func (e errRPC) Error() string { return e.rpcErr.Message }
