package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/BBKML/BaibebaloProjets-sub007/db"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// Credential roles mirror the order actors that authenticate with a
// password (clients identify through their chat alone).
const (
	CredentialRoleRestaurant = ActorRestaurant
	CredentialRoleDriver     = ActorDriver
	CredentialRoleAdmin      = ActorAdmin
)

// UpsertCredential stores a bcrypt hash for the account/role pair,
// replacing any previous password.
func UpsertCredential(ctx context.Context, accountID int64, role, plainPassword string) error {
	if len(plainPassword) < 8 {
		return validationf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO user_credentials (account_id, role, password_hash, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (account_id, role) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			updated_at = now()`,
		accountID, role, string(hash),
	)
	return err
}

// VerifyCredential checks the password for the account/role; true only when
// the credential exists, is active and the password matches.
func VerifyCredential(ctx context.Context, accountID int64, role, plainPassword string) (bool, error) {
	var hash string
	var isActive bool
	err := db.Pool.QueryRow(ctx, `
		SELECT password_hash, is_active FROM user_credentials
		WHERE account_id = $1 AND role = $2`,
		accountID, role,
	).Scan(&hash, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	if !isActive {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plainPassword)) == nil, nil
}

// DeactivateCredential blocks logins without deleting the row, so the
// account can be reinstated with its history intact.
func DeactivateCredential(ctx context.Context, accountID int64, role string) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE user_credentials SET is_active = false, updated_at = now()
		WHERE account_id = $1 AND role = $2`,
		accountID, role,
	)
	return err
}
