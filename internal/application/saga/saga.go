// Package saga ejecuta operaciones de varios pasos sobre un almacén sin transacciones.
// Si un paso falla se intenta deshacer lo completado; lo que no se pueda deshacer
// se informa como domain.PartialWriteError para conciliación manual.
package saga

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

// Step un paso con nombre. Undo es opcional (los anexos al kardex no se deshacen).
type Step struct {
	Name string
	Do   func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Saga lista ordenada de pasos.
type Saga struct {
	operation string
	itemID    string
	steps     []Step
	log       zerolog.Logger
}

// New crea una saga para la operación dada.
func New(operation string, log zerolog.Logger) *Saga {
	return &Saga{operation: operation, log: log}
}

// ForItem agrega el insumo principal a los logs.
func (s *Saga) ForItem(id string) *Saga {
	s.itemID = id
	return s
}

// Add agrega un paso sin compensación.
func (s *Saga) Add(name string, do func(ctx context.Context) error) *Saga {
	return s.AddStep(Step{Name: name, Do: do})
}

// AddStep agrega un paso completo.
func (s *Saga) AddStep(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Steps nombres de los pasos en orden.
func (s *Saga) Steps() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name
	}
	return names
}

// Run ejecuta los pasos en orden. Si falla el primero devuelve el error tal cual
// (nada se escribió). Si falla uno posterior compensa en orden inverso.
func (s *Saga) Run(ctx context.Context) error {
	for i, st := range s.steps {
		if err := st.Do(ctx); err != nil {
			return s.fail(ctx, i, err)
		}
		s.log.Debug().Str("operation", s.operation).Str("step", st.Name).Str("item_id", s.itemID).Msg("paso completado")
	}
	return nil
}

func (s *Saga) fail(ctx context.Context, failed int, cause error) error {
	names := s.Steps()
	if failed == 0 {
		s.log.Warn().Err(cause).Str("operation", s.operation).Str("step", names[0]).Str("item_id", s.itemID).
			Msg("operación abortada sin escrituras")
		return fmt.Errorf("%s: %w", s.operation, cause)
	}

	// Compensar en orden inverso; lo que no se deshace queda como completado.
	var stillDone []string
	for i := failed - 1; i >= 0; i-- {
		st := s.steps[i]
		if st.Undo == nil {
			stillDone = append([]string{st.Name}, stillDone...)
			continue
		}
		if err := st.Undo(ctx); err != nil {
			s.log.Error().Err(err).Str("operation", s.operation).Str("step", st.Name).Msg("no se pudo compensar")
			stillDone = append([]string{st.Name}, stillDone...)
			continue
		}
		s.log.Warn().Str("operation", s.operation).Str("step", st.Name).Msg("paso compensado")
	}
	if len(stillDone) == 0 {
		s.log.Warn().Err(cause).Str("operation", s.operation).Str("step", names[failed]).Str("item_id", s.itemID).
			Msg("operación revertida")
		return fmt.Errorf("%s: %w", s.operation, cause)
	}

	perr := &domain.PartialWriteError{
		Operation: s.operation,
		Completed: stillDone,
		Failed:    names[failed],
		Pending:   append([]string(nil), names[failed+1:]...),
		Err:       cause,
	}
	s.log.Error().Err(cause).
		Str("operation", s.operation).
		Str("item_id", s.itemID).
		Strs("completed", perr.Completed).
		Str("failed", perr.Failed).
		Strs("pending", perr.Pending).
		Msg("escritura parcial, requiere conciliación")
	return perr
}
