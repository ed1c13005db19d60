// Package ratings persists rating maps as one CSV file per user.
package ratings

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/verte-zerg/concerto/internal/errors"
	"github.com/verte-zerg/concerto/internal/model"
)

const fileSuffix = "_ratings.csv"

// Header columns. legacyIDColumn is accepted on load only.
const (
	idColumn       = "program_id"
	legacyIDColumn = "index"
	ratingColumn   = "rating"
)

// Files reads and writes rating files under one directory.
type Files struct {
	dir string
}

// NewFiles returns a Files rooted at dir.
func NewFiles(dir string) *Files {
	return &Files{dir: dir}
}

// Dir returns the ratings directory.
func (f *Files) Dir() string {
	return f.dir
}

// Path returns the rating file of an identity.
func (f *Files) Path(email string) string {
	return filepath.Join(f.dir, SanitizeIdentity(email)+fileSuffix)
}

// SanitizeIdentity lowercases an email and replaces path-unsafe characters.
func SanitizeIdentity(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	var b strings.Builder
	for _, r := range email {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '@', r == '.', r == '-', r == '_', r == '+':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "_"
	}
	return out
}

// Save overwrites the identity's file with every entry of m, sorted by program id.
func (f *Files) Save(ctx context.Context, email string, m model.RatingMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := f.Path(email)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create ratings dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "ratings-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create temp ratings file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := Write(tmpFile, m); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close ratings file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write ratings file: %w", err)
	}
	return nil
}

// Load merges the identity's saved ratings into m and returns how many were read.
// A missing file yields ErrNoSavedRatings; any failure leaves m unchanged.
func (f *Files) Load(ctx context.Context, email string, m model.RatingMap) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	path := f.Path(email)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, apperrors.ErrNoSavedRatings
		}
		return 0, fmt.Errorf("failed to open ratings file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close of a read-only file.
			_ = cerr
		}
	}()

	saved, err := Read(file)
	if err != nil {
		return 0, fmt.Errorf("failed to load %s: %w", path, err)
	}
	m.Merge(saved)
	return len(saved), nil
}

// Write encodes m as CSV with a program_id,rating header.
func Write(w io.Writer, m model.RatingMap) error {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{idColumn, ratingColumn}); err != nil {
		return fmt.Errorf("failed to write ratings header: %w", err)
	}
	for _, id := range ids {
		if err := cw.Write([]string{id, strconv.Itoa(int(m[id]))}); err != nil {
			return fmt.Errorf("failed to write rating: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush ratings: %w", err)
	}
	return nil
}

// Read decodes a ratings CSV. Both program_id,rating and index,rating headers are accepted.
func Read(r io.Reader) (model.RatingMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty ratings file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	id := strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff"))
	if (id != idColumn && id != legacyIDColumn) || strings.TrimSpace(header[1]) != ratingColumn {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	out := model.RatingMap{}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rating: %w", err)
		}
		programID := strings.TrimSpace(record[0])
		if programID == "" {
			return nil, fmt.Errorf("empty program id on line %d", lineOf(cr))
		}
		value, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid rating %q for %s", record[1], programID)
		}
		rating := model.Rating(value)
		if !rating.Valid() {
			return nil, fmt.Errorf("rating %d for %s out of range 0-3", value, programID)
		}
		out[programID] = rating
	}
	return out, nil
}

func lineOf(cr *csv.Reader) int {
	line, _ := cr.FieldPos(0)
	return line
}
