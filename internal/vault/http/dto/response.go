package dto

import (
	"time"

	"github.com/google/uuid"

	vaultDomain "github.com/allisson/controlplane/internal/vault/domain"
)

// SecretResponse represents a secret version in API responses. Value is only
// populated on read operations; listings carry metadata alone.
type SecretResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Version        uint       `json:"version"`
	Status         string     `json:"status"`
	Value          []byte     `json:"value,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	DeprecatedAt   *time.Time `json:"deprecated_at,omitempty"`
	GraceExpiresAt *time.Time `json:"grace_expires_at,omitempty"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
}

// ListSecretsResponse represents a paginated list of secrets.
type ListSecretsResponse struct {
	Data []SecretResponse `json:"data"`
}

// SecretAccessLogResponse represents one access log row in API responses.
type SecretAccessLogResponse struct {
	ID         uuid.UUID `json:"id"`
	SecretName string    `json:"secret_name"`
	Version    uint      `json:"version"`
	ClientName string    `json:"client_name"`
	Action     string    `json:"action"`
	Success    bool      `json:"success"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListSecretAccessLogsResponse represents a paginated list of access logs.
type ListSecretAccessLogsResponse struct {
	Data []SecretAccessLogResponse `json:"data"`
}

// RotationPolicyResponse represents a rotation schedule in API responses.
type RotationPolicyResponse struct {
	SecretName         string     `json:"secret_name"`
	IntervalSeconds    int64      `json:"interval_seconds"`
	GracePeriodSeconds int64      `json:"grace_period_seconds"`
	LastRotatedAt      *time.Time `json:"last_rotated_at,omitempty"`
	NextRotationAt     time.Time  `json:"next_rotation_at"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// MapSecretToResponse converts a domain secret to a response, including the
// plaintext value when the use case populated it.
func MapSecretToResponse(secret *vaultDomain.Secret) SecretResponse {
	return SecretResponse{
		ID:             secret.ID,
		Name:           secret.Name,
		Version:        secret.Version,
		Status:         string(secret.Status),
		Value:          secret.Plaintext,
		CreatedBy:      secret.CreatedBy,
		CreatedAt:      secret.CreatedAt,
		DeprecatedAt:   secret.DeprecatedAt,
		GraceExpiresAt: secret.GraceExpiresAt,
		RevokedAt:      secret.RevokedAt,
	}
}

// MapSecretsToListResponse converts domain secrets to a list response.
func MapSecretsToListResponse(secrets []*vaultDomain.Secret) ListSecretsResponse {
	data := make([]SecretResponse, len(secrets))
	for i, secret := range secrets {
		data[i] = MapSecretToResponse(secret)
	}
	return ListSecretsResponse{Data: data}
}

// MapAccessLogsToListResponse converts domain access logs to a list response.
func MapAccessLogsToListResponse(logs []*vaultDomain.SecretAccessLog) ListSecretAccessLogsResponse {
	data := make([]SecretAccessLogResponse, len(logs))
	for i, log := range logs {
		data[i] = SecretAccessLogResponse{
			ID:         log.ID,
			SecretName: log.SecretName,
			Version:    log.Version,
			ClientName: log.ClientName,
			Action:     string(log.Action),
			Success:    log.Success,
			CreatedAt:  log.CreatedAt,
		}
	}
	return ListSecretAccessLogsResponse{Data: data}
}

// MapRotationPolicyToResponse converts a domain rotation policy to a response.
func MapRotationPolicyToResponse(policy *vaultDomain.RotationPolicy) RotationPolicyResponse {
	return RotationPolicyResponse{
		SecretName:         policy.SecretName,
		IntervalSeconds:    int64(policy.Interval.Seconds()),
		GracePeriodSeconds: int64(policy.GracePeriod.Seconds()),
		LastRotatedAt:      policy.LastRotatedAt,
		NextRotationAt:     policy.NextRotationAt,
		CreatedAt:          policy.CreatedAt,
		UpdatedAt:          policy.UpdatedAt,
	}
}
