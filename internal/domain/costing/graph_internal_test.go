package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexOf(t *testing.T) {
	path := []string{"plato", "salsa", "fondo"}
	assert.Equal(t, 1, indexOf(path, "salsa"))
	assert.Equal(t, -1, indexOf(path, "tomate"))
	assert.Equal(t, -1, indexOf(nil, "tomate"))
}
