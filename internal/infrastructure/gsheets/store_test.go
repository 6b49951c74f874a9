package gsheets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/infrastructure/rowstore"
)

func TestCellName(t *testing.T) {
	assert.Equal(t, "A2", CellName(0, 0))
	assert.Equal(t, "H11", CellName(9, 7))
	assert.Equal(t, "Z2", CellName(0, 25))
	assert.Equal(t, "AA2", CellName(0, 26))
	assert.Equal(t, "AB5", CellName(3, 27))
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "4", cellString(float64(4)))
	assert.Equal(t, "0.25", cellString(0.25))
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "Kilo", cellString("Kilo"))
}

func TestClassify(t *testing.T) {
	assert.True(t, rowstore.IsTransient(classify(&googleapi.Error{Code: 429})))
	assert.True(t, rowstore.IsTransient(classify(&googleapi.Error{Code: 503})))
	assert.False(t, rowstore.IsTransient(classify(&googleapi.Error{Code: 403})))
	assert.False(t, rowstore.IsTransient(classify(errors.New("otro"))))
	assert.NoError(t, classify(nil))
}
