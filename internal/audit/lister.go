package audit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Marker is the substring a source file must contain to be a candidate.
const Marker = "DAG"

// Lister enumerates and reads workflow definition files.
type Lister interface {
	ListCandidateFiles(ctx context.Context, root string) ([]string, error)
	ReadFile(ctx context.Context, id string) (string, error)
}

// LocalLister reads candidate files from a local directory tree.
type LocalLister struct{}

// ListCandidateFiles returns every *.py file under root that mentions Marker,
// in lexical order.
func (LocalLister) ListCandidateFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".py" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if strings.Contains(string(data), Marker) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("audit: listing %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile returns the file content with invalid UTF-8 dropped.
func (LocalLister) ReadFile(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(id)
	if err != nil {
		return "", fmt.Errorf("audit: reading %s: %w", id, err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
