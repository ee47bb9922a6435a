package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/fernet/fernet-go"
	"golang.org/x/crypto/pbkdf2"

	"github.com/davidmns/finsync/internal/apperrors"
)

const (
	saltLength = 16
	kdfRounds  = 120000

	// canaryPlaintext is encrypted with the derived key at first unlock and
	// verified on every subsequent one. A wrong password fails verification
	// before any encrypted column is read.
	canaryPlaintext = "finsync-vault-check"
)

// Vault derives the at-rest encryption key from the user password and
// encrypts or decrypts the credential and session columns. Every operation
// fails with ErrVaultLocked until Unlock succeeds.
type Vault struct {
	mu  sync.RWMutex
	key *fernet.Key
}

// New creates a locked Vault.
func New() *Vault {
	return &Vault{}
}

// Unlock derives the key from the password and verifies it against the
// canary stored in the vault table. The first unlock of a fresh database
// writes the salt and canary; later unlocks with a different password fail
// with ErrDecryption.
func (v *Vault) Unlock(db *sql.DB, password string) error {
	var saltHex, canary string
	err := db.QueryRow("SELECT salt, canary FROM vault WHERE id = 1").Scan(&saltHex, &canary)

	switch {
	case err == sql.ErrNoRows:
		return v.initialize(db, password)
	case err != nil:
		return fmt.Errorf("failed to read vault row: %w", err)
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return fmt.Errorf("failed to decode vault salt: %w", err)
	}

	key := deriveKey(password, salt)
	if fernet.VerifyAndDecrypt([]byte(canary), 0, []*fernet.Key{key}) == nil {
		return apperrors.ErrDecryption
	}

	v.mu.Lock()
	v.key = key
	v.mu.Unlock()
	return nil
}

// initialize writes the salt and canary for a fresh database.
func (v *Vault) initialize(db *sql.DB, password string) error {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate vault salt: %w", err)
	}

	key := deriveKey(password, salt)
	canary, err := fernet.EncryptAndSign([]byte(canaryPlaintext), key)
	if err != nil {
		return fmt.Errorf("failed to create vault canary: %w", err)
	}

	_, err = db.Exec(
		"INSERT INTO vault (id, salt, canary) VALUES (1, ?, ?)",
		hex.EncodeToString(salt), string(canary),
	)
	if err != nil {
		return fmt.Errorf("failed to write vault row: %w", err)
	}

	v.mu.Lock()
	v.key = key
	v.mu.Unlock()
	return nil
}

// Locked reports whether the vault still has no key.
func (v *Vault) Locked() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.key == nil
}

// Encrypt seals plaintext into a fernet token.
func (v *Vault) Encrypt(plaintext []byte) (string, error) {
	v.mu.RLock()
	key := v.key
	v.mu.RUnlock()

	if key == nil {
		return "", apperrors.ErrVaultLocked
	}

	token, err := fernet.EncryptAndSign(plaintext, key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt payload: %w", err)
	}
	return string(token), nil
}

// Decrypt opens a fernet token produced by Encrypt.
func (v *Vault) Decrypt(token string) ([]byte, error) {
	v.mu.RLock()
	key := v.key
	v.mu.RUnlock()

	if key == nil {
		return nil, apperrors.ErrVaultLocked
	}

	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{key})
	if plaintext == nil {
		return nil, apperrors.ErrDecryption
	}
	return plaintext, nil
}

// deriveKey stretches the password into a fernet key with PBKDF2-SHA256.
func deriveKey(password string, salt []byte) *fernet.Key {
	var key fernet.Key
	copy(key[:], pbkdf2.Key([]byte(password), salt, kdfRounds, len(key), sha256.New))
	return &key
}
