// Package legacy imports the JSON data files written by older versions of
// the hospital system into the database.
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hospital-admin-server/internal/logger"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/store"
)

// Sources maps each collection to its legacy file, in import order.
var Sources = []struct {
	Collection store.Collection
	File       string
}{
	{store.Accounts, "users.json"},
	{store.Patients, "patients.json"},
	{store.Appointments, "appointments.json"},
	{store.Invoices, "billing.json"},
}

// Result counts what happened to one file.
type Result struct {
	Collection store.Collection `json:"collection"`
	Imported   int              `json:"imported"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
}

type Importer struct {
	store store.DataAccess
	log   *logger.Logger
}

func NewImporter(da store.DataAccess, log *logger.Logger) *Importer {
	return &Importer{store: da, log: log}
}

// Import reads every legacy file in dir and inserts the rows that are not
// in the database yet. Missing files are skipped. Users are skipped as a
// whole when any account exists. A bad row is counted and logged; it does
// not stop the import.
func (im *Importer) Import(ctx context.Context, dir string) ([]Result, error) {
	log := im.log.WithFields(logrus.Fields{"Function": "Import", "dir": dir})

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("legacy data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("legacy data directory: %s is not a directory", dir)
	}

	results := make([]Result, 0, len(Sources))
	for _, src := range Sources {
		res := Result{Collection: src.Collection}

		rows, err := readFile(filepath.Join(dir, src.File))
		if err != nil {
			return results, err
		}
		if len(rows) == 0 {
			log.WithField("file", src.File).Info("No legacy data found")
			results = append(results, res)
			continue
		}

		if src.Collection == store.Accounts {
			n, err := im.store.Count(ctx, store.Accounts, nil)
			if err != nil {
				return results, err
			}
			if n > 0 {
				log.Info("Skipping users, accounts already exist")
				res.Skipped = len(rows)
				results = append(results, res)
				continue
			}
		}

		for _, row := range rows {
			imported, err := im.importRow(ctx, src.Collection, row)
			switch {
			case err != nil:
				res.Failed++
				log.WithError(err).WithField("collection", src.Collection).Warn("Failed to import record")
			case imported:
				res.Imported++
			default:
				res.Skipped++
			}
		}

		log.WithFields(logrus.Fields{
			"collection": src.Collection,
			"imported":   res.Imported,
			"skipped":    res.Skipped,
			"failed":     res.Failed,
		}).Info("Legacy file imported")
		results = append(results, res)
	}

	return results, nil
}

// readFile returns nil for a missing file.
func readFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return rows, nil
}

func (im *Importer) importRow(ctx context.Context, coll store.Collection, row map[string]any) (bool, error) {
	rec, err := Convert(coll, row)
	if err != nil {
		return false, err
	}

	idField, _ := store.IDField(coll)
	n, err := im.store.Count(ctx, coll, store.Filters{idField: rec[idField]})
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	if err := im.store.Create(ctx, coll, rec); err != nil {
		return false, err
	}
	return true, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	models.DateLayout,
}

// Convert turns one legacy JSON object into a record for coll. Keys that
// are not columns are dropped and older value spellings are normalized.
func Convert(coll store.Collection, row map[string]any) (store.Record, error) {
	columns, err := store.Columns(coll)
	if err != nil {
		return nil, err
	}
	idField, _ := store.IDField(coll)

	rec := make(store.Record, len(row))
	for _, name := range columns {
		if v, ok := row[name]; ok && v != nil {
			rec[name] = v
		}
	}

	id, _ := rec[idField].(string)
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("record without %s", idField)
	}

	if raw, ok := rec["created_at"]; ok {
		if ts, ok := parseTimestamp(raw); ok {
			rec["created_at"] = ts
		} else {
			delete(rec, "created_at")
		}
	}

	if raw, ok := rec["is_active"]; ok {
		active, err := toBool(raw)
		if err != nil {
			return nil, fmt.Errorf("is_active: %w", err)
		}
		rec["is_active"] = active
	} else if coll == store.Accounts || coll == store.Patients {
		rec["is_active"] = true
	}

	switch coll {
	case store.Accounts:
		rec["role"] = lower(rec["role"])
		password, _ := rec["password"].(string)
		if password == "" {
			return nil, fmt.Errorf("account %s has no password", id)
		}
		if !isBcrypt(password) {
			var acc models.Account
			if err := acc.SetPassword(password); err != nil {
				return nil, err
			}
			rec["password"] = acc.Password
		}
	case store.Appointments:
		if s := lower(rec["status"]); s != "" {
			rec["status"] = s
		}
	case store.Invoices:
		if s := lower(rec["payment_status"]); s != "" {
			rec["payment_status"] = s
		}
		if amount, ok := rec["total_amount"].(float64); ok {
			rec["total_amount"] = strconv.FormatFloat(amount, 'f', 2, 64)
		}
		if services, ok := rec["services"]; ok {
			if _, isText := services.(string); !isText {
				text, err := json.Marshal(services)
				if err != nil {
					return nil, fmt.Errorf("services: %w", err)
				}
				rec["services"] = string(text)
			}
		}
	}

	return rec, nil
}

func lower(v any) string {
	s, _ := v.(string)
	return strings.ToLower(strings.TrimSpace(s))
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func parseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("unexpected value %v", v)
	}
}
