package infra

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mutecomm/go-sqlcipher/v4" // Ensure sqlcipher driver is registered.

	"github.com/eliteGoblin/focusd/neuguard/internal/domain"
)

const (
	storeDBName = "neuguard.db"

	// MaxActivityEvents is how many history entries are retained.
	MaxActivityEvents = 500

	// SecretKeyPINHash is the secret store key for the unlock PIN hash.
	SecretKeyPINHash = "pin_hash"
	// SecretKeyKillswitch holds the activation time while the killswitch is on.
	SecretKeyKillswitch = "killswitch"
)

// EncryptedStore implements domain.SecretStore and domain.ActivityLog
// using a SQLCipher encrypted SQLite database.
type EncryptedStore struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedStore opens (or creates) the encrypted database in dataDir.
// The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedStore(dataDir string, key []byte) (*EncryptedStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, storeDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Wrong key surfaces here, not at Open.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	store := &EncryptedStore{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (s *EncryptedStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS secrets (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		type TEXT NOT NULL,
		reason TEXT DEFAULT '',
		time INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *EncryptedStore) Path() string {
	return s.dbPath
}

// --- domain.SecretStore implementation ---

// GetSecret retrieves a secret by key.
func (s *EncryptedStore) GetSecret(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM secrets WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", domain.ErrSecretNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret %q: %w", key, err)
	}
	return value, nil
}

// SetSecret stores a secret.
func (s *EncryptedStore) SetSecret(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO secrets (key, value, created_at) VALUES (?, ?, ?)`,
		key, value, time.Now().Unix())
	return err
}

// --- domain.ActivityLog implementation ---

// Append records an event and trims history to MaxActivityEvents.
func (s *EncryptedStore) Append(event domain.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO activity (id, type, reason, time) VALUES (?, ?, ?, ?)`,
		event.ID, string(event.Type), event.Reason, event.Time.UnixNano()); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM activity WHERE seq NOT IN (
		SELECT seq FROM activity ORDER BY seq DESC LIMIT ?)`, MaxActivityEvents); err != nil {
		return err
	}

	return tx.Commit()
}

// Recent returns up to limit events, newest first.
func (s *EncryptedStore) Recent(limit int) ([]domain.ActivityEvent, error) {
	if limit <= 0 || limit > MaxActivityEvents {
		limit = MaxActivityEvents
	}

	rows, err := s.db.Query(`SELECT id, type, reason, time FROM activity ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.ActivityEvent
	for rows.Next() {
		var (
			e     domain.ActivityEvent
			typ   string
			nanos int64
		)
		if err := rows.Scan(&e.ID, &typ, &e.Reason, &nanos); err != nil {
			return nil, err
		}
		e.Type = domain.ActivityEventType(typ)
		e.Time = time.Unix(0, nanos)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close releases the database connection.
func (s *EncryptedStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// OpenEncryptedStore resolves (or generates) the key in dataDir and opens the store.
func OpenEncryptedStore(dataDir string) (*EncryptedStore, error) {
	key, err := LoadOrCreateKey(NewKeyFile(dataDir))
	if err != nil {
		return nil, err
	}
	return NewEncryptedStore(dataDir, key)
}

// Ensure EncryptedStore implements both interfaces.
var _ domain.SecretStore = (*EncryptedStore)(nil)
var _ domain.ActivityLog = (*EncryptedStore)(nil)
