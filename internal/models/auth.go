package models

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
}

// RegisterRequest is the body of POST /auth/register. The backend expects
// the plain password under "passwordHash" and hashes it itself.
type RegisterRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"passwordHash"`
	Role           Role   `json:"role"`
	Specialization string `json:"specialization,omitempty"`
	ClinicName     string `json:"clinicName,omitempty"`
	Location       string `json:"location,omitempty"`
}

// RegisterResult is returned after a successful registration.
type RegisterResult struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}
