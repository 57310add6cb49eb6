package request

// Credential is the encrypt/decrypt boundary operation.
type Credential struct {
	Action string `json:"action" validate:"required,oneof=encrypt decrypt"`
	Data   string `json:"data" validate:"required"`
}
