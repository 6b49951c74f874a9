package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")

	// Taxonomía del motor de costeo.
	ErrConfiguration  = errors.New("error de configuración")
	ErrDivision       = errors.New("división por cantidad cero o negativa")
	ErrValidation     = errors.New("validación fallida")
	ErrTransientStore = errors.New("almacén no disponible temporalmente, reintente manualmente")
	ErrPartialWrite   = errors.New("escritura parcial")
	ErrGraphCycle     = errors.New("ciclo en la composición de recetas")
	ErrDomain         = errors.New("valor fuera de dominio")
	ErrMissingCost    = errors.New("insumo sin costo")
	ErrPeriodLocked   = errors.New("periodo bloqueado por fecha de lanzamiento")
)

// Validation envuelve ErrValidation con el detalle del campo.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Configuration envuelve ErrConfiguration con el detalle del parámetro.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// PartialWriteError indica que una operación de varios pasos quedó a medias:
// el diario y el libro de insumos pueden no coincidir hasta una conciliación manual.
type PartialWriteError struct {
	Operation string
	Completed []string
	Failed    string
	Pending   []string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: escritura parcial en %q (completados: [%s], pendientes: [%s]): %v",
		e.Operation, e.Failed,
		strings.Join(e.Completed, ", "), strings.Join(e.Pending, ", "), e.Err)
}

// Is permite errors.Is(err, ErrPartialWrite).
func (e *PartialWriteError) Is(target error) bool { return target == ErrPartialWrite }

func (e *PartialWriteError) Unwrap() error { return e.Err }

// CycleError describe el camino que cierra un ciclo en el grafo de recetas.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrGraphCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrGraphCycle }
