package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// ErrorResponse cuerpo de error HTTP. Details lleva faltantes de stock o errores de validación por campo.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ValidationDetail error de validación de un campo.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
