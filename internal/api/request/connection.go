package request

// TestConnection probes an endpoint with inline credentials. Nothing is
// persisted; the password only transits this request.
type TestConnection struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"required,min=1,max=65535"`
	Database string `json:"database" validate:"required"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	SSLMode  string `json:"ssl_mode"`
}

// CreateConnection registers a stored connection.
type CreateConnection struct {
	Name         string `json:"name" validate:"required,max=128"`
	Host         string `json:"host" validate:"required"`
	Port         int    `json:"port" validate:"required,min=1,max=65535"`
	DatabaseName string `json:"database_name" validate:"required"`
	Username     string `json:"username" validate:"required"`
	Password     string `json:"password" validate:"required"`
	SSLMode      string `json:"ssl_mode"`
}

// UpdateConnection modifies a stored connection. A nil Password keeps the
// stored credential.
type UpdateConnection struct {
	Name         string  `json:"name" validate:"required,max=128"`
	Host         string  `json:"host" validate:"required"`
	Port         int     `json:"port" validate:"required,min=1,max=65535"`
	DatabaseName string  `json:"database_name" validate:"required"`
	Username     string  `json:"username" validate:"required"`
	Password     *string `json:"password,omitempty"`
	SSLMode      string  `json:"ssl_mode"`
	IsActive     bool    `json:"is_active"`
}
