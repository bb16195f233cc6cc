package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/wricardo/mcp-training/hexgrid/game/service"
)

// File extensions of persisted sessions
const (
	JSONExt = ".json"
	ZstdExt = ".json.zst"
)

// FilePersistence implements SessionPersistence using file system storage.
// Sessions are stored one file per ID, either as indented JSON or as
// zstd-compressed JSON.
type FilePersistence struct {
	sessionsDir string
	compress    bool
	codec       codec

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	return newFilePersistence(sessionsDir, configManager, false)
}

// NewCompressedFilePersistence creates a file persistence layer that writes
// zstd-compressed session files
func NewCompressedFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	return newFilePersistence(sessionsDir, configManager, true)
}

func newFilePersistence(sessionsDir string, configManager service.ConfigManager, compress bool) (*FilePersistence, error) {
	// Create sessions directory if it doesn't exist
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	fp := &FilePersistence{
		sessionsDir: sessionsDir,
		compress:    compress,
		codec:       codec{configManager: configManager},
	}

	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		fp.encoder = enc
		fp.decoder = dec
	}

	return fp, nil
}

// Save persists a session to a file
func (fp *FilePersistence) Save(session *service.Session) error {
	_, jsonData, err := fp.codec.encode(session)
	if err != nil {
		return err
	}

	if fp.compress {
		jsonData = fp.encoder.EncodeAll(jsonData, nil)
	}

	// Write to a temp file first so readers never see a partial session
	filePath := fp.getFilePath(session.ID)
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// Load retrieves a session from a file
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	filePath := fp.getFilePath(id)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	if fp.compress {
		data, err = fp.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress session file: %w", err)
		}
	}

	return fp.codec.decode(data)
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	ext := fp.ext()
	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ext) {
			continue
		}
		if id := strings.TrimSuffix(name, ext); id != "" {
			sessionIDs = append(sessionIDs, id)
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

// Close releases the zstd encoder and decoder
func (fp *FilePersistence) Close() error {
	if fp.encoder != nil {
		_ = fp.encoder.Close()
	}
	if fp.decoder != nil {
		fp.decoder.Close()
	}
	return nil
}

func (fp *FilePersistence) ext() string {
	if fp.compress {
		return ZstdExt
	}
	return JSONExt
}

// getFilePath returns the full file path for a session ID
func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, id+fp.ext())
}
