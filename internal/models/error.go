package models

// Empty is the response type of endpoints that return no body.
type Empty struct{}

// ErrorBody is the structured error envelope of non-2xx, non-401, non-5xx responses.
// Some server versions send the status as "statusCode".
type ErrorBody struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"statusCode,omitempty"`
	Message    string `json:"message"`
	Detail     string `json:"detail"`
}

// Status returns whichever status field the server filled in.
func (e ErrorBody) Status() int {
	if e.Code != 0 {
		return e.Code
	}
	return e.StatusCode
}
