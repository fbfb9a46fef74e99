package upstream

import (
	"encoding/json"

	"shiptrack/internal/domain"
)

// The commerce API has answered with several envelope shapes over time:
// a bare array, {orders: [...]}, {orders: {data: [...], last_page: N}} and
// {data: [...]}. Each known shape gets its own decoder, tried in priority
// order; anything unrecognized decodes to an empty result. Extraction never
// fails, so the rest of the service is isolated from upstream schema drift.

type pagedContainer struct {
	Data     []json.RawMessage `json:"data"`
	LastPage int               `json:"last_page"`
}

type ordersEnvelope struct {
	Orders json.RawMessage `json:"orders"`
	Data   json.RawMessage `json:"data"`
}

type orderEnvelope struct {
	Order json.RawMessage `json:"order"`
	Data  json.RawMessage `json:"data"`
}

// UnwrapOrder extracts a single order from a raw response body. Recognized
// envelopes are {order: {...}} and {data: {...}}; anything else is decoded as
// the order itself. A body that decodes to nothing yields a zero Order.
func UnwrapOrder(raw []byte) domain.Order {
	var env orderEnvelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if ord, ok := decodeOrder(env.Order); ok {
			return ord
		}
		if ord, ok := decodeOrder(env.Data); ok {
			return ord
		}
	}
	if ord, ok := decodeOrder(raw); ok {
		return ord
	}
	return domain.Order{}
}

// UnwrapOrderList extracts the flattened order list plus the last-page hint
// (1 when the envelope carries none).
func UnwrapOrderList(raw []byte) ([]domain.Order, int) {
	// Bare array.
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return decodeOrders(items), 1
	}

	var env ordersEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return []domain.Order{}, 1
	}

	// {orders: {data: [...], last_page: N}}
	if len(env.Orders) > 0 {
		var paged pagedContainer
		if err := json.Unmarshal(env.Orders, &paged); err == nil && paged.Data != nil {
			lastPage := paged.LastPage
			if lastPage < 1 {
				lastPage = 1
			}
			return decodeOrders(paged.Data), lastPage
		}

		// {orders: [...]}
		if err := json.Unmarshal(env.Orders, &items); err == nil {
			return decodeOrders(items), 1
		}
	}

	// {data: [...]}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err == nil {
			return decodeOrders(items), 1
		}
	}

	return []domain.Order{}, 1
}

func decodeOrders(items []json.RawMessage) []domain.Order {
	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		if ord, ok := decodeOrder(item); ok {
			orders = append(orders, ord)
		}
	}
	return orders
}

func decodeOrder(raw json.RawMessage) (domain.Order, bool) {
	if len(raw) == 0 {
		return domain.Order{}, false
	}
	var ord domain.Order
	if err := json.Unmarshal(raw, &ord); err != nil {
		return domain.Order{}, false
	}
	if ord.ID == 0 && ord.NumberString() == "" {
		return domain.Order{}, false
	}
	ord.Raw = append(json.RawMessage(nil), raw...)
	return ord, true
}
