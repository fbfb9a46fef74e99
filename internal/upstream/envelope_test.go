package upstream

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersJSON = `[
	{"id": 1, "number": 1001, "email": "a@example.com"},
	{"id": 2, "number": 1002, "email": "b@example.com"}
]`

// Every envelope shape the upstream has been seen answering with must
// flatten to the same order sequence.
func TestUnwrapOrderList_AllShapesEquivalent(t *testing.T) {
	shapes := map[string]string{
		"bare array":   ordersJSON,
		"orders array": fmt.Sprintf(`{"orders": %s}`, ordersJSON),
		"orders paged": fmt.Sprintf(`{"orders": {"data": %s, "last_page": 3}}`, ordersJSON),
		"flat data":    fmt.Sprintf(`{"data": %s}`, ordersJSON),
	}

	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			orders, _ := UnwrapOrderList([]byte(raw))
			require.Len(t, orders, 2)
			assert.Equal(t, int64(1), orders[0].ID)
			assert.Equal(t, "1001", orders[0].NumberString())
			assert.Equal(t, int64(2), orders[1].ID)
			assert.Equal(t, "b@example.com", orders[1].Email)
		})
	}
}

func TestUnwrapOrderList_LastPageHint(t *testing.T) {
	orders, lastPage := UnwrapOrderList([]byte(
		fmt.Sprintf(`{"orders": {"data": %s, "last_page": 7}}`, ordersJSON)))
	assert.Len(t, orders, 2)
	assert.Equal(t, 7, lastPage)

	// Absent hint defaults to 1, for every other shape.
	_, lastPage = UnwrapOrderList([]byte(ordersJSON))
	assert.Equal(t, 1, lastPage)

	_, lastPage = UnwrapOrderList([]byte(fmt.Sprintf(`{"orders": %s}`, ordersJSON)))
	assert.Equal(t, 1, lastPage)

	_, lastPage = UnwrapOrderList([]byte(`{"orders": {"data": [], "last_page": 0}}`))
	assert.Equal(t, 1, lastPage)
}

// Unknown shapes normalize to empty, never to a failure.
func TestUnwrapOrderList_UnknownShapes(t *testing.T) {
	inputs := []string{
		`{}`,
		`{"foo": "bar"}`,
		`"just a string"`,
		`42`,
		`null`,
		`not json at all`,
		``,
		`{"orders": "oops"}`,
		`{"data": {"nested": true}}`,
	}

	for _, raw := range inputs {
		orders, lastPage := UnwrapOrderList([]byte(raw))
		assert.NotNil(t, orders, "input=%q", raw)
		assert.Empty(t, orders, "input=%q", raw)
		assert.Equal(t, 1, lastPage, "input=%q", raw)
	}
}

func TestUnwrapOrderList_SkipsUndecodableElements(t *testing.T) {
	orders, _ := UnwrapOrderList([]byte(`[{"id": 5}, "garbage", {"id": 6}]`))
	require.Len(t, orders, 2)
	assert.Equal(t, int64(5), orders[0].ID)
	assert.Equal(t, int64(6), orders[1].ID)
}

func TestUnwrapOrder_Shapes(t *testing.T) {
	bare := `{"id": 9, "number": 1009, "fulfillment_status": "fulfilled"}`

	tests := map[string]string{
		"bare object":    bare,
		"order envelope": fmt.Sprintf(`{"order": %s}`, bare),
		"data envelope":  fmt.Sprintf(`{"data": %s}`, bare),
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			ord := UnwrapOrder([]byte(raw))
			assert.Equal(t, int64(9), ord.ID)
			assert.Equal(t, "fulfilled", ord.FulfillmentStatus)
			assert.NotEmpty(t, ord.Raw)
		})
	}
}

func TestUnwrapOrder_UnknownShapeYieldsZero(t *testing.T) {
	ord := UnwrapOrder([]byte(`{"unrelated": true}`))
	assert.Equal(t, int64(0), ord.ID)

	ord = UnwrapOrder([]byte(`garbage`))
	assert.Equal(t, int64(0), ord.ID)
}

func TestUnwrapOrder_KeepsRawForDebug(t *testing.T) {
	raw := `{"order": {"id": 3, "custom_field": "kept"}}`
	ord := UnwrapOrder([]byte(raw))
	assert.Equal(t, int64(3), ord.ID)
	assert.Contains(t, string(ord.Raw), "custom_field")
}
