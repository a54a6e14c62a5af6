// Package request holds the decoded bodies and query parameters of API requests.
package request

// CreateAccountRequest represents the request body for creating an account
type CreateAccountRequest struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
}
