package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PartialWriteResponse cuerpo de error cuando una operación quedó a medias.
// Completed lista lo que sí quedó escrito, para conciliar a mano.
type PartialWriteResponse struct {
	ErrorResponse
	Operation string   `json:"operation"`
	Completed []string `json:"completed"`
	Failed    string   `json:"failed"`
	Pending   []string `json:"pending"`
}
