package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reliefcheck/internal/domain"
	"reliefcheck/internal/ports"
)

const timestampLayout = "20060102_150405"

// CaseStore keeps one indented JSON document per case under Dir, named
// case_<id>_<created timestamp>.json. Every save rewrites the file.
type CaseStore struct {
	Dir string
}

func New(dir string) (*CaseStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create case dir: %w", err)
	}
	return &CaseStore{Dir: dir}, nil
}

// FileName returns the file name used for c.
func FileName(c domain.Case) string {
	return fmt.Sprintf("case_%s_%s.json", c.CaseID, c.CreatedAt.Format(timestampLayout))
}

func (s *CaseStore) Load(_ context.Context, caseID string) (domain.Case, error) {
	path, err := s.find(caseID)
	if err != nil {
		return domain.Case{}, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Case{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Case{}, err
	}
	var c domain.Case
	if err := json.Unmarshal(b, &c); err != nil {
		return domain.Case{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return c, nil
}

func (s *CaseStore) Save(_ context.Context, c domain.Case) error {
	if c.CaseID == "" || strings.ContainsAny(c.CaseID, `/\*?[`) {
		return fmt.Errorf("invalid case id %q", c.CaseID)
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(s.Dir, FileName(c))
	tmp, err := os.CreateTemp(s.Dir, ".case-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// find returns the newest file for caseID.
func (s *CaseStore) find(caseID string) (string, error) {
	if caseID == "" || strings.ContainsAny(caseID, `/\*?[`) {
		return "", ports.ErrNotFound
	}
	matches, err := filepath.Glob(filepath.Join(s.Dir, "case_"+caseID+"_*.json"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ports.ErrNotFound
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
