// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/flowforge/workflowcore/types"
)

// FileService is a filesystem-backed implementation of the artifact
// service, for runtime.artifact_service: file (spec §4.7). It mirrors
// [InMemoryService]'s path/versioning scheme, persisting each version as a
// gob-encoded file under dir instead of holding it in a process-wide map.
type FileService struct {
	dir string
	mu  sync.Mutex
}

var _ types.ArtifactService = (*FileService)(nil)

// NewFileService creates a [FileService] rooted at dir, creating it if
// necessary.
func NewFileService(dir string) (*FileService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact file service: %w", err)
	}
	return &FileService{dir: dir}, nil
}

func (a *FileService) fileHasUserNamespace(filename string) bool {
	return strings.HasPrefix(filename, "user:")
}

func (a *FileService) artifactDir(appName, userID, sessionID, filename string) string {
	safeName := strings.ReplaceAll(filename, string(filepath.Separator), "_")
	if a.fileHasUserNamespace(filename) {
		return filepath.Join(a.dir, appName, userID, "user", safeName)
	}
	return filepath.Join(a.dir, appName, userID, sessionID, safeName)
}

func (a *FileService) versionPath(dir string, version int) string {
	return filepath.Join(dir, strconv.Itoa(version)+".gob")
}

func (a *FileService) existingVersions(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	versions := make([]int, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".gob")
		if v, err := strconv.Atoi(name); err == nil {
			versions = append(versions, v)
		}
	}
	slices.Sort(versions)
	return versions, nil
}

// SaveArtifact implements [types.ArtifactService].
func (a *FileService) SaveArtifact(ctx context.Context, appName, userID, sessionID, filename string, artifact *genai.Part) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir := a.artifactDir(appName, userID, sessionID, filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	versions, err := a.existingVersions(dir)
	if err != nil {
		return 0, err
	}
	version := len(versions)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(artifact); err != nil {
		return 0, fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.WriteFile(a.versionPath(dir, version), buf.Bytes(), 0o644); err != nil {
		return 0, err
	}

	return version, nil
}

// LoadArtifact implements [types.ArtifactService].
func (a *FileService) LoadArtifact(ctx context.Context, appName, userID, sessionID, filename string, version int) (*genai.Part, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir := a.artifactDir(appName, userID, sessionID, filename)
	versions, err := a.existingVersions(dir)
	if err != nil || len(versions) == 0 {
		return nil, err
	}

	if version < 0 {
		version = versions[len(versions)-1]
	}

	data, err := os.ReadFile(a.versionPath(dir, version))
	if err != nil {
		return nil, err
	}

	var part genai.Part
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&part); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &part, nil
}

// ListArtifactKey implements [types.ArtifactService].
func (a *FileService) ListArtifactKey(ctx context.Context, appName, userID, sessionID string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	filenames := []string{}

	sessionDir := filepath.Join(a.dir, appName, userID, sessionID)
	if entries, err := os.ReadDir(sessionDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				filenames = append(filenames, e.Name())
			}
		}
	}

	userDir := filepath.Join(a.dir, appName, userID, "user")
	if entries, err := os.ReadDir(userDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				filenames = append(filenames, e.Name())
			}
		}
	}

	slices.Sort(filenames)
	return filenames, nil
}

// DeleteArtifact implements [types.ArtifactService].
func (a *FileService) DeleteArtifact(ctx context.Context, appName, userID, sessionID, filename string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	dir := a.artifactDir(appName, userID, sessionID, filename)
	return os.RemoveAll(dir)
}

// ListVersions implements [types.ArtifactService].
func (a *FileService) ListVersions(ctx context.Context, appName, userID, sessionID, filename string) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.existingVersions(a.artifactDir(appName, userID, sessionID, filename))
}

// Close implements [types.ArtifactService].
func (a *FileService) Close() error {
	return nil
}
