// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	accessDomain "github.com/allisson/controlplane/internal/accesscontrol/domain"
)

// IssueTokenResponse contains the issued bearer token.
// SECURITY: The token is only returned once; the server stores its hash.
type IssueTokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MapIssueTokenOutputToResponse converts a token issuance result to an API response.
func MapIssueTokenOutputToResponse(output *accessDomain.IssueTokenOutput) IssueTokenResponse {
	return IssueTokenResponse{
		AccessToken: output.PlainToken,
		TokenType:   "Bearer",
		ExpiresAt:   output.ExpiresAt,
	}
}
