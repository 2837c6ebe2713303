// Package export reads log groups from a local directory of NDJSON exports,
// one "<group>.ndjson" file per log group, each line a LogEvent.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crimson-sun/canopy/internal/connector"
	"github.com/crimson-sun/canopy/internal/model"
)

const ext = ".ndjson"

func init() {
	connector.Register("export", func(cfg connector.Config) (connector.Connector, error) {
		return New(cfg.Endpoint)
	})
}

// Connector implements connector.Connector over an export directory.
// Continuation tokens are line offsets into the group file.
type Connector struct {
	dir string
}

// New creates a Connector rooted at dir.
func New(dir string) (*Connector, error) {
	if dir == "" {
		return nil, fmt.Errorf("export connector: directory is required")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("export connector: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("export connector: %s is not a directory", dir)
	}
	return &Connector{dir: dir}, nil
}

func (c *Connector) groupPath(group string) string {
	return filepath.Join(c.dir, filepath.FromSlash(strings.TrimPrefix(group, "/"))+ext)
}

func (c *Connector) FilterLogEvents(ctx context.Context, req connector.FilterRequest) (connector.FilterResponse, error) {
	offset := 0
	if req.NextToken != "" {
		n, err := strconv.Atoi(req.NextToken)
		if err != nil || n < 0 {
			return connector.FilterResponse{}, fmt.Errorf("export connector: invalid token %q", req.NextToken)
		}
		offset = n
	}
	limit := req.Limit
	if limit <= 0 || limit > connector.MaxPageSize {
		limit = connector.MaxPageSize
	}
	terms := parsePattern(req.FilterPattern)

	f, err := os.Open(c.groupPath(req.LogGroup))
	if err != nil {
		return connector.FilterResponse{}, fmt.Errorf("export connector: open group %s: %w", req.LogGroup, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var resp connector.FilterResponse
	line := 0
	for sc.Scan() {
		line++
		if line <= offset {
			continue
		}
		if err := ctx.Err(); err != nil {
			return connector.FilterResponse{}, err
		}
		if len(resp.Events) == limit {
			// More lines remain: resume from the first unread one.
			resp.NextToken = strconv.Itoa(line - 1)
			return resp, nil
		}
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var ev model.LogEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			return connector.FilterResponse{}, fmt.Errorf("export connector: %s line %d: %w", req.LogGroup, line, err)
		}
		if req.StartMs > 0 && ev.Timestamp < req.StartMs {
			continue
		}
		if req.EndMs > 0 && ev.Timestamp >= req.EndMs {
			continue
		}
		if !matches(ev.Message, terms) {
			continue
		}
		resp.Events = append(resp.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return connector.FilterResponse{}, fmt.Errorf("export connector: read %s: %w", req.LogGroup, err)
	}
	return resp, nil
}

func (c *Connector) ListLogGroups(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimPrefix(prefix, "/")
	var names []string
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ext)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("export connector: list groups: %w", err)
	}
	return names, nil
}

// parsePattern splits a filter pattern into terms. Double-quoted phrases are
// kept whole; every term must occur in a message for it to match.
func parsePattern(p string) []string {
	var terms []string
	for {
		p = strings.TrimSpace(p)
		if p == "" {
			return terms
		}
		if p[0] == '"' {
			end := strings.IndexByte(p[1:], '"')
			if end < 0 {
				terms = append(terms, p[1:])
				return terms
			}
			if phrase := p[1 : end+1]; phrase != "" {
				terms = append(terms, phrase)
			}
			p = p[end+2:]
			continue
		}
		end := strings.IndexAny(p, " \t")
		if end < 0 {
			return append(terms, p)
		}
		terms = append(terms, p[:end])
		p = p[end:]
	}
}

func matches(msg string, terms []string) bool {
	for _, t := range terms {
		if !strings.Contains(msg, t) {
			return false
		}
	}
	return true
}
