// Package dotfiles places a module's default assets into the user's home.
// The full dotfiles pipeline (symlink farms, adoption, conflict handling)
// is an external collaborator; this package only handles the first-run
// fallback copy, which never overwrites existing files.
package dotfiles

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/E-Coombs/arch-setup/pkg/errors"
	"github.com/E-Coombs/arch-setup/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Placer implements types.Placer on an afero filesystem
type Placer struct {
	fs     afero.Fs
	dryRun bool
	logger zerolog.Logger
}

// New creates a Placer on the given filesystem. Pass afero.NewOsFs() for
// real runs; tests use a MemMapFs.
func New(fsys afero.Fs, dryRun bool) *Placer {
	return &Placer{
		fs:     fsys,
		dryRun: dryRun,
		logger: logging.GetLogger("dotfiles"),
	}
}

// Exists reports whether path exists on the filesystem
func (p *Placer) Exists(path string) bool {
	_, err := p.fs.Stat(path)
	return err == nil
}

// ApplyDefaults copies sourceDir into targetDir recursively, creating
// directories as needed. Files that already exist in the target are left
// untouched, which makes the operation idempotent: pre-existing (and
// user-modified) files always win.
func (p *Placer) ApplyDefaults(sourceDir, targetDir string) error {
	return afero.Walk(p.fs, sourceDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot walk %s", path)
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot relativize %s", path)
		}
		dest := filepath.Join(targetDir, rel)

		if info.IsDir() {
			if p.dryRun {
				return nil
			}
			if err := p.fs.MkdirAll(dest, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrFileCreate, "cannot create directory %s", dest)
			}
			return nil
		}

		if p.Exists(dest) {
			p.logger.Debug().Str("path", dest).Msg("File exists, keeping it")
			return nil
		}

		if p.dryRun {
			p.logger.Info().Str("source", path).Str("dest", dest).Msg("Dry run - would copy default")
			return nil
		}

		return p.copyFile(path, dest, info.Mode())
	})
}

func (p *Placer) copyFile(source, dest string, mode fs.FileMode) error {
	data, err := afero.ReadFile(p.fs, source)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot read %s", source)
	}
	if err := afero.WriteFile(p.fs, dest, data, mode); err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "cannot write %s", dest)
	}
	p.logger.Debug().Str("source", source).Str("dest", dest).Msg("Default copied")
	return nil
}

// GetHomeDirectory returns the user's home directory. It first tries
// os.UserHomeDir(), then falls back to the HOME environment variable.
func GetHomeDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err == nil && homeDir != "" {
		return homeDir, nil
	}

	homeDir = os.Getenv("HOME")
	if homeDir != "" {
		return homeDir, nil
	}

	return "", errors.New(errors.ErrFileAccess,
		"unable to determine home directory: neither os.UserHomeDir() nor HOME are available")
}

// ExpandHome expands a leading ~ to the user's home directory
func ExpandHome(path string) (string, error) {
	if path == "~" {
		return GetHomeDirectory()
	}

	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		homeDir, err := GetHomeDirectory()
		if err != nil {
			return "", err
		}
		return homeDir + path[1:], nil
	}

	return path, nil
}
