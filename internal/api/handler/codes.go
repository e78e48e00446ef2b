package handler

// Machine-readable error codes carried in the "code" field of error bodies.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeValidation         = "validation_error"
	CodeDuplicateIdentity  = "duplicate_identity"
	CodeAuthorization      = "authorization_error"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeServerError        = "server_error"
)
