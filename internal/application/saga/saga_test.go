package saga_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/saga"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

var errStore = errors.New("almacén caído")

func ok(trace *[]string, name string) func(context.Context) error {
	return func(context.Context) error {
		*trace = append(*trace, name)
		return nil
	}
}

func TestRun_TodoBien(t *testing.T) {
	var trace []string
	err := saga.New("compra", zerolog.Nop()).
		Add("saldo", ok(&trace, "saldo")).
		Add("kardex", ok(&trace, "kardex")).
		Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"saldo", "kardex"}, trace)
}

func TestRun_FallaPrimerPaso(t *testing.T) {
	var trace []string
	err := saga.New("compra", zerolog.Nop()).
		Add("saldo", func(context.Context) error { return errStore }).
		Add("kardex", ok(&trace, "kardex")).
		Run(context.Background())
	require.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, domain.ErrPartialWrite)
	assert.Empty(t, trace)
}

func TestRun_EscrituraParcial(t *testing.T) {
	var trace []string
	err := saga.New("produccion", zerolog.Nop()).ForItem("salsa").
		Add("saldos", ok(&trace, "saldos")).
		Add("kardex", func(context.Context) error { return errStore }).
		Add("alerta", ok(&trace, "alerta")).
		Run(context.Background())

	require.ErrorIs(t, err, domain.ErrPartialWrite)
	require.ErrorIs(t, err, errStore)
	var pw *domain.PartialWriteError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, []string{"saldos"}, pw.Completed)
	assert.Equal(t, "kardex", pw.Failed)
	assert.Equal(t, []string{"alerta"}, pw.Pending)
}

func TestRun_CompensaYRevierte(t *testing.T) {
	var trace []string
	err := saga.New("compra", zerolog.Nop()).
		AddStep(saga.Step{Name: "saldo", Do: ok(&trace, "saldo"), Undo: ok(&trace, "deshacer saldo")}).
		Add("kardex", func(context.Context) error { return errStore }).
		Run(context.Background())

	require.ErrorIs(t, err, errStore)
	assert.NotErrorIs(t, err, domain.ErrPartialWrite, "todo lo escrito se deshizo")
	assert.Equal(t, []string{"saldo", "deshacer saldo"}, trace)
}

func TestRun_CompensacionFallida(t *testing.T) {
	err := saga.New("compra", zerolog.Nop()).
		AddStep(saga.Step{
			Name: "saldo",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { return errors.New("tampoco") },
		}).
		Add("kardex", func(context.Context) error { return errStore }).
		Run(context.Background())

	var pw *domain.PartialWriteError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, []string{"saldo"}, pw.Completed)
}
