package custodysdk

// EnrollmentRequest enrolls a chat user. Either Message, holding
// "<password> <private key>", or both Password and PrivateKey must be set.
type EnrollmentRequest struct {
	UserID     string `json:"user_id" validate:"required,max=64"`
	Message    string `json:"message,omitempty" validate:"required_without_all=Password PrivateKey"`
	Password   string `json:"password,omitempty" validate:"required_with=PrivateKey"`
	PrivateKey string `json:"private_key,omitempty" validate:"required_with=Password"`
}

// ProfileResponse is the public view of an enrolled user.
type ProfileResponse struct {
	UserID  string `json:"user_id"`
	Address string `json:"address"`
}

// VerifyRequest checks a password against the stored secret.
type VerifyRequest struct {
	Password string `json:"password" validate:"required"`
}

// VerifyResponse reports a successful password check.
type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Address string `json:"address"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of dependencies in /readyz.
type HealthChecks struct {
	Store string `json:"store"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}
