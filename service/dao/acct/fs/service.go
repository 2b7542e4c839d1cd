// Package fs persists accounting records as JSON files on afs backed storage.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/procos/model/acct"
	"github.com/viant/procos/service/dao"
)

// Service stores one file per record under basePath.
type Service struct {
	basePath string
	fs       afs.Service
	mu       sync.RWMutex
}

var _ dao.Service[int, acct.Record] = (*Service)(nil)

// Save writes the record file.
func (s *Service) Save(ctx context.Context, record *acct.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %d: %w", record.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordPath(record.ID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record to %s: %w", URL, err)
	}
	return nil
}

// Load reads record id.
func (s *Service) Load(ctx context.Context, id int) (*acct.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.recordPath(id)
	if exists, _ := s.fs.Exists(ctx, URL); !exists {
		return nil, fmt.Errorf("record %d: %w", id, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read record %d: %w", id, err)
	}
	ret := &acct.Record{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record %d: %w", id, err)
	}
	return ret, nil
}

// Delete removes record id.
func (s *Service) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.recordPath(id)
	if exists, _ := s.fs.Exists(ctx, URL); !exists {
		return fmt.Errorf("record %d: %w", id, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete record %d: %w", id, err)
	}
	return nil
}

// List returns matching records ordered by id. Unreadable files are logged
// and skipped.
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*acct.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	var ret []*acct.Record
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			log.Printf("failed to read record %s: %v", object.URL(), err)
			continue
		}
		record := &acct.Record{}
		if err = json.Unmarshal(data, record); err != nil {
			log.Printf("failed to unmarshal record %s: %v", object.URL(), err)
			continue
		}
		if dao.Match(record, parameters) {
			ret = append(ret, record)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (s *Service) recordPath(id int) string {
	return url.Join(s.basePath, strconv.Itoa(id)+".json")
}

// New creates the store, creating basePath when missing.
func New(ctx context.Context, fs afs.Service, basePath string) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if exists, _ := fs.Exists(ctx, basePath); !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{basePath: url.Normalize(path.Clean(basePath), file.Scheme), fs: fs}, nil
}
