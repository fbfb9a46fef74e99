package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"

	"go.uber.org/zap"

	"shiptrack/internal/upstream"
)

const rawSampleBytes = 2000

// RawGetter is the raw-passthrough slice of the upstream client.
type RawGetter interface {
	GetRaw(ctx context.Context, path string, query url.Values) (body []byte, status int, contentType string, err error)
}

// Controller exposes the upstream shape diagnostics. These endpoints mirror
// whatever the commerce API answers so schema drift can be inspected without
// redeploying.
type Controller struct {
	api    RawGetter
	logger *zap.Logger
}

func NewController(api RawGetter, logger *zap.Logger) *Controller {
	return &Controller{api: api, logger: logger}
}

// OrdersRaw answers /api/_diag/orders_raw: upstream status, content type and
// the first 2000 characters of the raw body, under the upstream's own status
// code.
func (c *Controller) OrdersRaw(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		page = "1"
	}

	body, statusCode, contentType, err := c.api.GetRaw(r.Context(), "/orders", url.Values{"page": {page}})
	if err != nil {
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "diag_failed",
			"detail": err.Error(),
		})
		return
	}

	sample := string(body)
	if len(sample) > rawSampleBytes {
		sample = sample[:rawSampleBytes]
	}

	c.writeJSON(w, statusCode, map[string]interface{}{
		"ok":          statusCode >= 200 && statusCode < 300,
		"status":      statusCode,
		"contentType": contentType,
		"sample":      sample,
	})
}

// OrdersShape answers /api/_diag/orders_shape: the top-level JSON shape of
// page 1 plus what the envelope normalizer detects in it.
func (c *Controller) OrdersShape(w http.ResponseWriter, r *http.Request) {
	body, statusCode, _, err := c.api.GetRaw(r.Context(), "/orders", url.Values{"page": {"1"}})
	if err != nil {
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "shape_failed",
			"detail": err.Error(),
		})
		return
	}
	if statusCode < 200 || statusCode >= 300 {
		c.writeJSON(w, statusCode, map[string]interface{}{
			"ok":     false,
			"status": statusCode,
			"hint":   "failed to reach /orders",
		})
		return
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		c.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "shape_failed",
			"detail": err.Error(),
		})
		return
	}

	orders, _ := upstream.UnwrapOrderList(body)
	firstOrderKeys := []string{}
	if len(orders) > 0 {
		firstOrderKeys = jsonKeys(orders[0].Raw)
	}

	c.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":                true,
		"detected_list_len": len(orders),
		"top_level_shape":   describeShape(data),
		"first_order_keys":  firstOrderKeys,
	})
}

func describeShape(data interface{}) map[string]interface{} {
	switch v := data.(type) {
	case []interface{}:
		keys := []string{}
		if len(v) > 0 {
			if first, ok := v[0].(map[string]interface{}); ok {
				keys = mapKeys(first)
			}
		}
		return map[string]interface{}{
			"type":   "array",
			"length": len(v),
			"keys":   keys,
		}
	case map[string]interface{}:
		return map[string]interface{}{
			"type": "object",
			"keys": mapKeys(v),
		}
	default:
		return map[string]interface{}{"type": "scalar"}
	}
}

func jsonKeys(raw json.RawMessage) []string {
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return []string{}
	}
	return mapKeys(obj)
}

func mapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Controller) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
