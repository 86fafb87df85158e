package localconfig

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	apperrors "mautic-installer/internal/errors"
	"mautic-installer/internal/install"
	"mautic-installer/internal/logger"
)

const moduleName = "localconfig"

// Store reads and writes the local configuration artifact.
type Store struct {
	path   string
	logger logger.Logger
}

// NewStore returns a Store for the artifact at path.
func NewStore(path string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewStandardLogger()
	}
	return &Store{path: path, logger: log}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the artifact. A missing file yields an empty document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &Document{}, nil
	}
	if err != nil {
		return nil, s.wrap(apperrors.CodeConfigRead, "Load", "failed to read local configuration", err)
	}

	doc := &Document{}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, s.wrap(apperrors.CodeConfigRead, "Load", "failed to parse local configuration", err)
	}
	return doc, nil
}

// IsInstalled reports whether a valid, complete artifact exists. Unreadable
// or malformed artifacts count as not installed.
func (s *Store) IsInstalled(ctx context.Context) bool {
	doc, err := s.Load()
	if err != nil {
		s.logger.WarnContext(ctx, "local configuration unreadable, treating as not installed",
			logger.String("path", s.path), logger.Error(err))
		return false
	}
	return doc.Installed()
}

// Values returns the persisted parameters as flat option keys.
func (s *Store) Values() (map[string]string, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc.Values(), nil
}

// SaveDatabase persists the database parameters without marking the
// installation complete.
func (s *Store) SaveDatabase(ctx context.Context, db install.DbParams) error {
	return s.update(ctx, "SaveDatabase", func(doc *Document) {
		doc.ApplyDatabase(db)
	})
}

// SaveConfiguration persists database, site and mailer parameters.
func (s *Store) SaveConfiguration(ctx context.Context, params install.CombinedParams) error {
	return s.update(ctx, "SaveConfiguration", func(doc *Document) {
		doc.ApplyCombined(params)
	})
}

// WriteFinal writes the final artifact for siteURL, generating the secret
// key and install id when absent, then reads it back to verify. Writing the
// same parameters twice yields identical content.
func (s *Store) WriteFinal(ctx context.Context, siteURL string, params install.CombinedParams) error {
	params.Site.SiteURL = siteURL

	var want *Document
	err := s.update(ctx, "WriteFinal", func(doc *Document) {
		doc.ApplyCombined(params)
		if doc.SecretKey == "" {
			doc.SecretKey = newSecretKey()
		}
		if doc.InstallID == "" {
			doc.InstallID = uuid.NewString()
		}
		copied := *doc
		want = &copied
	})
	if err != nil {
		return err
	}

	got, err := s.Load()
	if err != nil {
		return s.wrap(apperrors.CodeConfigVerify, "WriteFinal", "failed to read back local configuration", err)
	}
	if *got != *want || !got.Installed() {
		return s.wrap(apperrors.CodeConfigVerify, "WriteFinal", "local configuration content does not match what was written", nil)
	}

	s.logger.DebugContext(ctx, "local configuration verified", logger.String("path", s.path))
	return nil
}

func (s *Store) update(ctx context.Context, operation string, mutate func(*Document)) error {
	doc, err := s.Load()
	if err != nil {
		return err
	}
	mutate(doc)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return s.wrap(apperrors.CodeConfigWrite, operation, "failed to encode local configuration", err)
	}

	if current, err := os.ReadFile(s.path); err == nil && bytes.Equal(current, data) {
		s.logger.DebugContext(ctx, "local configuration unchanged", logger.String("path", s.path))
		return nil
	}

	if err := writeAtomic(s.path, data); err != nil {
		return s.wrap(apperrors.CodeConfigWrite, operation, "failed to write local configuration", err)
	}

	s.logger.DebugContext(ctx, "local configuration written",
		logger.String("path", s.path), logger.String("operation", operation))
	return nil
}

func (s *Store) wrap(code, operation, message string, err error) *apperrors.AppError {
	return apperrors.ConfigError(code, message, err).
		WithModule(moduleName).
		WithOperation(operation).
		WithField("path", s.path)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".local-*.yaml")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temporary file")
	}
	if err := tmp.Chmod(0o640); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to set permissions")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temporary file")
	}

	return errors.Wrapf(os.Rename(tmp.Name(), path), "failed to move configuration into %s", path)
}

func newSecretKey() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(buf)
}
