package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/remission"
	"github.com/jhoicas/remisiones-api/internal/domain"
)

var validate = validator.New()

// respondError traduce un error de dominio a status HTTP y dto.ErrorResponse.
func respondError(c *fiber.Ctx, err error) error {
	body := dto.ErrorResponse{Code: domain.CodeOf(err), Message: err.Error()}

	var lines *domain.LinesError
	if errors.As(err, &lines) {
		body.Errors = remission.ToLineErrorResponses(lines.Lines)
	}

	status := fiber.StatusInternalServerError
	switch domain.KindOf(err) {
	case domain.KindValidation:
		status = fiber.StatusBadRequest
	case domain.KindNotFound:
		status = fiber.StatusNotFound
	case domain.KindConflict:
		status = fiber.StatusConflict
	case domain.KindBusinessRule:
		status = fiber.StatusUnprocessableEntity
	case domain.KindExternal:
		status = fiber.StatusBadGateway
		var ext *domain.ExternalServiceError
		if errors.As(err, &ext) && ext.Code == fiber.StatusGatewayTimeout {
			status = fiber.StatusGatewayTimeout
		}
	default:
		log.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Interface("request_id", c.Locals("requestid")).
			Msg("error interno")
		body.Message = "error interno"
	}
	return c.Status(status).JSON(body)
}

// bind parsea el cuerpo JSON y lo valida con las etiquetas validate del DTO.
// Devuelve false si ya respondió con 400.
func bind(c *fiber.Ctx, out interface{}) (bool, error) {
	if err := c.BodyParser(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)})
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

// paramID lee un parámetro de ruta entero positivo.
func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badID(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: name + " debe ser un entero positivo"})
}

// page lee limit/offset de la query con los límites del listado.
func page(c *fiber.Ctx) dto.PageRequest {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return dto.PageRequest{Limit: limit, Offset: offset}
}

// queryBool devuelve nil si el parámetro no viene.
func queryBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &b, nil
}
