package models

// AuthPayload is both the request and response body of the account endpoints.
type AuthPayload struct {
	Name              string `json:"name,omitempty"`
	Email             string `json:"email"`
	Password          string `json:"password,omitempty"`
	APIToken          string `json:"api_token,omitempty"`
	IsDuplicatedEmail bool   `json:"is_duplicated_email"`
}

// CheckEmailRequest asks whether an email is already registered.
type CheckEmailRequest struct {
	Email string `json:"email"`
}

// DeleteAccountRequest re-confirms the credentials of the account to delete.
type DeleteAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
