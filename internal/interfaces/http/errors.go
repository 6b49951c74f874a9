package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/japh99/TRIDENTI-ERP-sub000/internal/application/dto"
	"github.com/japh99/TRIDENTI-ERP-sub000/internal/domain"
)

var validate = validator.New()

// errorMapping sentinela → estado HTTP y código estable para el cliente.
var errorMapping = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrValidation, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrConfiguration, fiber.StatusBadRequest, "CONFIGURATION"},
	{domain.ErrDivision, fiber.StatusBadRequest, "DIVISION"},
	{domain.ErrDomain, fiber.StatusBadRequest, "DOMAIN"},
	{domain.ErrMissingCost, fiber.StatusBadRequest, "MISSING_COST"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrGraphCycle, fiber.StatusConflict, "GRAPH_CYCLE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrPeriodLocked, fiber.StatusConflict, "PERIOD_LOCKED"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT"},
	{domain.ErrTransientStore, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
}

// ErrorHandler traduce los errores que devuelven los handlers a respuestas JSON.
// Una escritura parcial responde 500 con los pasos que sí quedaron escritos.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var pw *domain.PartialWriteError
		if errors.As(err, &pw) {
			log.Error().Err(err).Str("path", c.Path()).Msg("escritura parcial")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.PartialWriteResponse{
				ErrorResponse: dto.ErrorResponse{Code: "PARTIAL_WRITE", Message: err.Error()},
				Operation:     pw.Operation,
				Completed:     pw.Completed,
				Failed:        pw.Failed,
				Pending:       pw.Pending,
			})
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP", Message: fe.Message})
		}
		status, code := classify(err)
		if code == "INTERNAL" {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
			return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
	}
}

func classify(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrPartialWrite) {
		return fiber.StatusInternalServerError
	}
	status, _ := classify(err)
	return status
}

// bindJSON decodifica el cuerpo y valida las etiquetas validate.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return domain.Validation("cuerpo inválido: %v", err)
	}
	return check(dst)
}

// bindQuery igual que bindJSON para parámetros de consulta.
func bindQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return domain.Validation("parámetros inválidos: %v", err)
	}
	return check(dst)
}

func check(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Validation("%v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
	}
	return domain.Validation("campos inválidos: %s", strings.Join(fields, ", "))
}
