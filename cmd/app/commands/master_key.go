package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	cryptoDomain "github.com/allisson/controlplane/internal/crypto/domain"
)

// RunCreateMasterKey generates a cryptographically secure 32-byte master key
// for envelope encryption and prints the environment variables needed to use
// it with the static key provider. Key material is zeroed after encoding.
//
// If keyID is empty, generates a default ID in format "master-key-YYYY-MM-DD".
//
// Static master keys are intended for development and single-node setups.
// In production, configure KMS_KEY_URI instead so DEKs are wrapped by a cloud
// KMS and no master key material lives in the environment.
func RunCreateMasterKey(keyID string, io IOTuple) error {
	if keyID == "" {
		keyID = fmt.Sprintf("master-key-%s", time.Now().Format("2006-01-02"))
	}

	masterKey := make([]byte, 32)
	if _, err := rand.Read(masterKey); err != nil {
		return fmt.Errorf("failed to generate master key: %w", err)
	}

	encodedKey := base64.StdEncoding.EncodeToString(masterKey)
	cryptoDomain.Zero(masterKey)

	fmt.Fprintln(io.Writer, "# Master Key Configuration (static provider)")
	fmt.Fprintln(io.Writer, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(io.Writer)
	fmt.Fprintf(io.Writer, "MASTER_KEYS=\"%s:%s\"\n", keyID, encodedKey)
	fmt.Fprintf(io.Writer, "ACTIVE_MASTER_KEY_ID=\"%s\"\n", keyID)
	fmt.Fprintln(io.Writer)
	fmt.Fprintln(io.Writer, "# For key rotation, append the new key and switch the active ID:")
	fmt.Fprintf(io.Writer, "# MASTER_KEYS=\"%s:...,new-key:base64key\"\n", keyID)
	fmt.Fprintln(io.Writer, "# ACTIVE_MASTER_KEY_ID=\"new-key\"")

	return nil
}
