package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"409"`
	Category string `json:"category" example:"STALE_SUFFICIENCY"`
	Message  string `json:"message" example:"A quantidade disponível na origem mudou desde o snapshot."`
}
