// Package iofs creates application directories and finds catalog files.
package iofs

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/astroinject/astroinject/pkg/config"
	"github.com/astroinject/astroinject/pkg/templates"
)

// EnsureDirs creates config and log directories if they are missing.
func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

// EnsureConfigFile writes the embedded config.yaml template unless the
// file already exists.
func EnsureConfigFile(homeDir string) error {
	configPath := config.ConfigFilePath(homeDir)

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	err := os.WriteFile(configPath, []byte(templates.ConfigYAML), 0644)
	if err != nil {
		return WriteTemplateError(configPath, err)
	}

	return nil
}

// FindFiles walks folder recursively and returns regular files whose base
// name matches the shell pattern. The result is sorted, so the first file
// is the same from run to run.
func FindFiles(folder, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, FindFilesError(folder, pattern, err)
	}

	var res []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		// pattern was validated above
		if ok, _ := filepath.Match(pattern, d.Name()); ok {
			res = append(res, path)
		}
		return nil
	})
	if err != nil {
		return nil, FindFilesError(folder, pattern, err)
	}

	slices.Sort(res)
	return res, nil
}
