// ABOUTME: End-to-end encryption for the Matrix transport using the mautrix crypto helper
// ABOUTME: Keeps one crypto store per bot account and resets it when the device ID changes

package matrix

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"maunium.net/go/mautrix/crypto/cryptohelper"
	"maunium.net/go/mautrix/id"
)

// Crypto owns the crypto helper attached to a Matrix client.
type Crypto struct {
	helper *cryptohelper.CryptoHelper
	logger *slog.Logger
}

// EnableCrypto sets up E2EE for c, storing keys under dataDir. With a
// recovery key the device is also cross-signed; failure to do so is logged
// and encryption stays on. Must be called after Login.
func EnableCrypto(ctx context.Context, c *Client, recoveryKey, dataDir string, logger *slog.Logger) (*Crypto, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "matrix-crypto")

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	client := c.Mautrix()
	dbPath := cryptoDBPath(dataDir, client.UserID)
	logger.Info("setting up encryption", "db", dbPath)

	if err := resetOnDeviceChange(dbPath, client.DeviceID, logger); err != nil {
		return nil, err
	}

	helper, err := cryptohelper.NewCryptoHelper(client, storeKey(client.UserID), dbPath)
	if err != nil {
		return nil, fmt.Errorf("creating crypto helper: %w", err)
	}
	if err := helper.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing crypto helper: %w", err)
	}
	client.Crypto = helper

	cr := &Crypto{helper: helper, logger: logger}

	if recoveryKey == "" {
		logger.Info("encryption enabled without cross-signing")
		return cr, nil
	}
	if err := cr.verify(ctx, recoveryKey); err != nil {
		logger.Warn("failed to verify with recovery key", "error", err)
	} else {
		logger.Info("encryption enabled with cross-signing")
	}
	return cr, nil
}

func (cr *Crypto) verify(ctx context.Context, recoveryKey string) error {
	machine := cr.helper.Machine()
	if machine == nil {
		return errors.New("crypto machine not initialized")
	}
	if err := machine.VerifyWithRecoveryKey(ctx, recoveryKey); err != nil {
		return fmt.Errorf("recovery key verification failed: %w", err)
	}
	return nil
}

// Close releases the crypto store.
func (cr *Crypto) Close() error {
	if cr == nil || cr.helper == nil {
		return nil
	}
	return cr.helper.Close()
}

// cryptoDBPath names the store after the account, e.g. facil_matrix.org.
func cryptoDBPath(dataDir string, userID id.UserID) string {
	return filepath.Join(dataDir, fmt.Sprintf("matrix-crypto-%s.db", slugify(userID)))
}

// slugify converts a Matrix user ID to a filesystem-safe string.
func slugify(userID id.UserID) string {
	s := string(userID)
	if len(s) > 0 && s[0] == '@' {
		s = s[1:]
	}
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '.', ch == '-', ch == '_':
			result = append(result, ch)
		case ch == ':':
			result = append(result, '_')
		}
	}
	return string(result)
}

// storeKey derives the pickle key for the crypto store from the account.
func storeKey(userID id.UserID) []byte {
	h := sha256.Sum256([]byte("facil-bot-crypto:" + userID))
	return h[:]
}

// resetOnDeviceChange removes a crypto store that belongs to a previous
// device. A fresh password login creates a new device, and the old keys
// would otherwise make the helper refuse to start.
func resetOnDeviceChange(dbPath string, current id.DeviceID, logger *slog.Logger) error {
	stored, err := storedDeviceID(dbPath)
	if err != nil {
		logger.Debug("could not read stored device ID", "error", err)
		return nil
	}
	if stored == "" || stored == current.String() {
		return nil
	}

	logger.Warn("device ID changed, resetting crypto store", "stored", stored, "current", current.String())
	if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing old crypto database: %w", err)
	}
	_ = os.Remove(dbPath + "-wal")
	_ = os.Remove(dbPath + "-shm")
	return nil
}

// storedDeviceID returns the device ID recorded in the crypto store, or ""
// when there is no store or no account yet.
func storedDeviceID(dbPath string) (string, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", nil
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var deviceID string
	err = db.QueryRow("SELECT device_id FROM crypto_account LIMIT 1").Scan(&deviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return deviceID, nil
}
