package model

// CreateUserParams carries the fields of a user creation request.
type CreateUserParams struct {
	Login              string
	Email              string
	DisplayName        string
	RegistrationNumber string
	Groups             []string
	// Password is optional for internal users; a random initial password
	// is generated when empty. Ignored for external users.
	Password string
	Internal bool
}

// UpdateUserParams carries the profile fields of an update request.
type UpdateUserParams struct {
	Email              string
	DisplayName        string
	RegistrationNumber string
}
