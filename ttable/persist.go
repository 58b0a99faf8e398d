package ttable

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Save writes one "fingerprint<TAB>score" line per entry, with the
// fingerprint in decimal. Lines are sorted by fingerprint.
func (t *TranspositionTable) Save(w io.Writer) error {
	keys := make([]uint64, 0, t.Len())
	t.Range(func(k uint64, _ float64) bool {
		keys = append(keys, k)
		return true
	})
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	bw := bufio.NewWriter(w)
	for _, k := range keys {
		v, _ := t.peek(k)
		_, err := bw.WriteString(strconv.FormatUint(k, 10) + "\t" +
			strconv.FormatFloat(v, 'g', -1, 64) + "\n")
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load merges entries written by Save into the table. Blank lines and
// lines starting with # are skipped.
func (t *TranspositionTable) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return fmt.Errorf("line %d: expected fingerprint and score", lineno)
		}
		k, v, err := parseEntry(fields[0], fields[1])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineno, err)
		}
		t.Put(k, v)
	}
	return sc.Err()
}

func parseEntry(key, score string) (uint64, float64, error) {
	k, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	v, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return 0, 0, err
	}
	return k, v, nil
}

// peek reads without touching the lookup counters.
func (t *TranspositionTable) peek(key uint64) (float64, bool) {
	t.RLock()
	defer t.RUnlock()
	v, ok := t.table[key]
	return v, ok
}

func isSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// SaveFile persists the table, as SQLite for .db/.sqlite paths and as
// text otherwise.
func (t *TranspositionTable) SaveFile(ctx context.Context, path string) error {
	if isSQLitePath(path) {
		return t.SaveSQLite(ctx, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.Save(f); err != nil {
		f.Close()
		return err
	}
	log.Info().Str("path", path).Int("entries", t.Len()).Msg("saved-transposition-table")
	return f.Close()
}

// LoadFile is the inverse of SaveFile. A missing file is not an error;
// the table is left as it was.
func (t *TranspositionTable) LoadFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Info().Str("path", path).Msg("no-transposition-table-file")
		return nil
	}
	if isSQLitePath(path) {
		return t.LoadSQLite(ctx, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := t.Load(f); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("entries", t.Len()).Msg("loaded-transposition-table")
	return nil
}
