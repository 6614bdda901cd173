package infra

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mutecomm/go-sqlcipher/v4" // registers the sqlite3 driver with SQLCipher

	"github.com/kidcan/agent/internal/domain"
)

const configDBName = "agent.db"

// EncryptedConfigStore implements domain.ConfigStore on a SQLCipher
// encrypted SQLite database. Tracking intervals and the paired identity
// both survive process restart.
type EncryptedConfigStore struct {
	db     *sql.DB
	dbPath string
}

// OpenConfigStore opens (or creates) the encrypted store in dataDir.
// The key is applied as the SQLCipher passphrase via PRAGMA key.
func OpenConfigStore(dataDir string, key []byte) (*EncryptedConfigStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, configDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096",
		dbPath, hex.EncodeToString(key))

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	s := &EncryptedConfigStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *EncryptedConfigStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tracking_config (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		base_location_ms INTEGER NOT NULL,
		boost_location_ms INTEGER NOT NULL,
		base_battery_ms INTEGER NOT NULL,
		boost_battery_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS device_identity (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		child_id INTEGER NOT NULL,
		device_id TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// TrackingConfig returns the persisted intervals, or the defaults when
// nothing has been saved yet.
func (s *EncryptedConfigStore) TrackingConfig() (domain.TrackingConfig, error) {
	var cfg domain.TrackingConfig
	err := s.db.QueryRow(`
		SELECT base_location_ms, boost_location_ms, base_battery_ms, boost_battery_ms
		FROM tracking_config WHERE id = 1`).
		Scan(&cfg.BaseLocationMs, &cfg.BoostLocationMs, &cfg.BaseBatteryMs, &cfg.BoostBatteryMs)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultTrackingConfig(), nil
	}
	if err != nil {
		return domain.TrackingConfig{}, fmt.Errorf("failed to read tracking config: %w", err)
	}
	return cfg, nil
}

// SaveTrackingConfig overwrites the persisted intervals wholesale.
func (s *EncryptedConfigStore) SaveTrackingConfig(cfg domain.TrackingConfig) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO tracking_config
			(id, base_location_ms, boost_location_ms, base_battery_ms, boost_battery_ms)
		VALUES (1, ?, ?, ?, ?)`,
		cfg.BaseLocationMs, cfg.BoostLocationMs, cfg.BaseBatteryMs, cfg.BoostBatteryMs)
	if err != nil {
		return fmt.Errorf("failed to persist tracking config: %w", err)
	}
	return nil
}

// Identity returns the paired identity, or (nil, nil) when the device has
// not been paired.
func (s *EncryptedConfigStore) Identity() (*domain.DeviceIdentity, error) {
	var id domain.DeviceIdentity
	err := s.db.QueryRow(`SELECT child_id, device_id FROM device_identity WHERE id = 1`).
		Scan(&id.ChildID, &id.DeviceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read device identity: %w", err)
	}
	return &id, nil
}

// SaveIdentity persists the child/device pair.
func (s *EncryptedConfigStore) SaveIdentity(id domain.DeviceIdentity) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO device_identity (id, child_id, device_id)
		VALUES (1, ?, ?)`,
		id.ChildID, id.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to persist device identity: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (s *EncryptedConfigStore) Close() error {
	return s.db.Close()
}

var _ domain.ConfigStore = (*EncryptedConfigStore)(nil)
