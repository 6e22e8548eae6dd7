package client

// CreateClientRequest represents a new client
type CreateClientRequest struct {
	Name    string `json:"name" validate:"required"`
	Code    string `json:"code" validate:"required,max=32"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// UpdateClientRequest carries optional fields; nil means unchanged.
type UpdateClientRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1"`
	Code    *string `json:"code" validate:"omitempty,min=1,max=32"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" validate:"omitempty,email"`
}
