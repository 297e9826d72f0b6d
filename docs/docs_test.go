package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "github.com/jhoicas/remisiones-api/docs"
)

func TestSwaggerRegistrado(t *testing.T) {
	doc, err := swag.ReadDoc("swagger")
	require.NoError(t, err)

	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))
	assert.Contains(t, spec.Paths["/api/remissions/{id}/invoice"], "post")
	assert.Contains(t, spec.Paths["/api/payments/allocations/{id}"], "delete")
}
