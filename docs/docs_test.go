package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	_ "github.com/japh99/TRIDENTI-ERP-sub000/docs"
)

func TestSwaggerRegistrado(t *testing.T) {
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var spec struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))
	for _, p := range []string{"/api/inventory/purchases", "/api/recipes/{kind}/{owner_id}", "/api/sales/sync"} {
		assert.Contains(t, spec.Paths, p)
	}
}
