/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gat2way/internal/canvas"
)

const (
	// BackupsDirName holds timestamped copies of replaced drafts and crash snapshots.
	BackupsDirName = "backups"
	draftPrefix    = "projeto-"
	draftExt       = ".json"
)

// ErrNoDraft is returned when neither a draft nor a backup exists for a projeto.
var ErrNoDraft = errors.New("storage: no draft")

// Draft is a locally saved canvas document for one projeto.
type Draft struct {
	ProjetoID int64           `json:"projeto_id"`
	SavedAt   time.Time       `json:"saved_at"`
	Canvas    canvas.Document `json:"canvas"`
}

// Drafts stores canvas drafts under Dir, one file per projeto.
type Drafts struct {
	Dir string
}

// NewDrafts returns a draft store rooted at dir, creating dir and its backups folder.
func NewDrafts(dir string) (*Drafts, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("drafts dir is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create drafts dir: %w", err)
	}
	return &Drafts{Dir: dir}, nil
}

// Path returns the draft file for a projeto.
func (d *Drafts) Path(projetoID int64) string {
	return filepath.Join(d.Dir, fmt.Sprintf("%s%d%s", draftPrefix, projetoID, draftExt))
}

// Save writes the document transactionally. An existing draft is first copied
// to a timestamped backup.
func (d *Drafts) Save(projetoID int64, doc canvas.Document) (string, error) {
	data, err := marshalDraft(projetoID, doc)
	if err != nil {
		return "", err
	}
	path := d.Path(projetoID)
	if _, statErr := os.Stat(path); statErr == nil {
		bpath := d.backupPath(projetoID, "bak")
		if cerr := copyFile(path, bpath); cerr != nil {
			return "", fmt.Errorf("backup current draft: %w", cerr)
		}
	}
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Load returns the saved draft. A missing or unreadable draft falls back to the
// latest backup.
func (d *Drafts) Load(projetoID int64) (Draft, error) {
	b, err := os.ReadFile(d.Path(projetoID))
	if err == nil {
		var dr Draft
		if err = json.Unmarshal(b, &dr); err == nil {
			return dr, nil
		}
	}
	dr, berr := d.latestBackup(projetoID)
	if berr != nil {
		if errors.Is(err, os.ErrNotExist) && errors.Is(berr, ErrNoDraft) {
			return Draft{}, ErrNoDraft
		}
		return Draft{}, fmt.Errorf("open draft: %w; backup attempt: %v", err, berr)
	}
	return dr, nil
}

// Remove deletes the draft together with its backups and crash snapshots,
// once it has been submitted or discarded. Leftovers would otherwise be picked
// up by Load as a recovery source on the next edit.
func (d *Drafts) Remove(projetoID int64) error {
	if err := os.Remove(d.Path(projetoID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	backups, err := d.backups(projetoID)
	if err != nil {
		return err
	}
	var errs []error
	for _, b := range backups {
		if err := os.Remove(b); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List returns the projeto ids with a current draft, ascending.
func (d *Drafts) List() ([]int64, error) {
	ents, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, draftPrefix) || !strings.HasSuffix(name, draftExt) {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(strings.TrimSuffix(strings.TrimPrefix(name, draftPrefix), draftExt), "%d", &id); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// AutosaveCrash writes a snapshot of the document into the backups folder
// without touching the current draft. Used from crash recovery.
func (d *Drafts) AutosaveCrash(projetoID int64, doc canvas.Document) (string, error) {
	data, err := marshalDraft(projetoID, doc)
	if err != nil {
		return "", err
	}
	path := d.backupPath(projetoID, "crash")
	if err := writeAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

func (d *Drafts) backupPath(projetoID int64, kind string) string {
	stamp := time.Now().Format("20060102-150405.000000000")
	return filepath.Join(d.Dir, BackupsDirName, fmt.Sprintf("%s%d.%s.%s%s", draftPrefix, projetoID, stamp, kind, draftExt))
}

// backups lists the backup and crash files of a projeto, oldest first.
func (d *Drafts) backups(projetoID int64) ([]string, error) {
	bdir := filepath.Join(d.Dir, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	prefix := fmt.Sprintf("%s%d.", draftPrefix, projetoID)
	var out []string
	for _, e := range ents {
		if name := e.Name(); strings.HasPrefix(name, prefix) && strings.HasSuffix(name, draftExt) {
			out = append(out, filepath.Join(bdir, name))
		}
	}
	sort.Strings(out) // timestamp in name yields lexicographic order
	return out, nil
}

func (d *Drafts) latestBackup(projetoID int64) (Draft, error) {
	candidates, err := d.backups(projetoID)
	if err != nil {
		return Draft{}, err
	}
	if len(candidates) == 0 {
		return Draft{}, ErrNoDraft
	}
	b, err := os.ReadFile(candidates[len(candidates)-1])
	if err != nil {
		return Draft{}, fmt.Errorf("read latest backup: %w", err)
	}
	var dr Draft
	if err := json.Unmarshal(b, &dr); err != nil {
		return Draft{}, fmt.Errorf("parse latest backup: %w", err)
	}
	return dr, nil
}

func marshalDraft(projetoID int64, doc canvas.Document) ([]byte, error) {
	data, err := json.MarshalIndent(Draft{ProjetoID: projetoID, SavedAt: time.Now().UTC(), Canvas: doc}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}
	return append(data, '\n'), nil
}

// writeAtomic writes to a temp file in the target directory and renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return fmt.Errorf("write temp draft: %w", err)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace draft: %w", err)
	}
	return nil
}

// writeFileSync writes data to a file and flushes it to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies src to dst, overwriting dst.
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}
