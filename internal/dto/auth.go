package dto

type RegisterRequestDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=50" example:"alice"`
	Password string `json:"password" validate:"required,min=8" example:"password123"`
	Name     string `json:"name" validate:"max=100" example:"Alice"`
	Phone    string `json:"phone" validate:"omitempty,e164" example:"+201001234567"`
}

type RegisterResponseDTO struct {
	Message string `json:"message"`
	ID      int    `json:"id" example:"1"`
	Kind    string `json:"kind" example:"user"`
}

type LoginRequestDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=50" example:"alice"`
	Password string `json:"password" validate:"required,min=8" example:"password123"`
}

type LoginResponseDTO struct {
	Message string `json:"message"`
}

type PartnerRequestDTO struct {
	Partner *bool `json:"partner" validate:"required" example:"true"`
}

type PartnerResponseDTO struct {
	ID      int    `json:"id" example:"1"`
	Login   string `json:"login" example:"alice"`
	Partner bool   `json:"partner" example:"true"`
}
