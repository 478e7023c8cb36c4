// Package database implements the MultiWOZ venue database: a SQLite-backed
// table of venues per domain, queryable by user constraints.
package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
)

// ErrClosed is returned when operating on a closed database.
var ErrClosed = errors.New("database: closed")

// Venue is a single database entity. Two venues are the same record iff
// their domain, id and every attribute match.
type Venue struct {
	Domain corpus.Domain
	// ID is the venue name, or the train id for the train domain.
	ID    string
	Attrs corpus.SlotValues
}

// Equal reports structural equality of two venues.
func (v Venue) Equal(o Venue) bool {
	if v.Domain != o.Domain || v.ID != o.ID || len(v.Attrs) != len(o.Attrs) {
		return false
	}
	for k, val := range v.Attrs {
		if other, ok := o.Attrs[k]; !ok || other != val {
			return false
		}
	}
	return true
}

// queryableSlots lists, per domain, the constraint slots the database can
// match on. Booking slots (bookday, bookpeople, ...) have no venue column
// and are ignored.
var queryableSlots = map[corpus.Domain][]string{
	corpus.DomainRestaurant: {"area", "food", "name", "pricerange"},
	corpus.DomainHotel:      {"area", "internet", "name", "parking", "pricerange", "stars", "type"},
	corpus.DomainAttraction: {"area", "name", "type"},
	corpus.DomainTrain:      {"arriveby", "day", "departure", "destination", "leaveat"},
}

// ignoredValues are constraint values that do not constrain anything.
var ignoredValues = map[string]struct{}{
	"":              {},
	"dontcare":      {},
	"not mentioned": {},
	"none":          {},
}

// DB wraps the SQLite venue database.
type DB struct {
	db     *sql.DB
	closed bool
}

// Open opens (or creates) the venue database at path and initialises the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("database: creating directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("database: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: initialising schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close releases the underlying SQLite handle.
func (d *DB) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// Populated reports whether any venues have been loaded.
func (d *DB) Populated() (bool, error) {
	if d.closed {
		return false, ErrClosed
	}
	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM venues`).Scan(&n); err != nil {
		return false, fmt.Errorf("database: counting venues: %w", err)
	}
	return n > 0, nil
}

// LoadVenues inserts the raw venue records of one domain. Attribute names
// and values are normalized; non-scalar attributes (coordinates, nested
// price tables) are skipped.
func (d *DB) LoadVenues(domain corpus.Domain, records []map[string]any) error {
	if d.closed {
		return ErrClosed
	}
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("database: begin load: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO venues (domain, venue_id, attrs) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("database: preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		attrs := make(corpus.SlotValues, len(record))
		for name, value := range record {
			scalar, ok := scalarString(value)
			if !ok {
				continue
			}
			attrs[corpus.NormalizeSlotName(name)] = corpus.NormalizeValue(scalar)
		}
		id := attrs["name"]
		if domain == corpus.DomainTrain {
			id = attrs["trainid"]
		}
		if id == "" {
			continue
		}
		encoded, err := json.Marshal(attrs)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("database: encoding venue %s: %w", id, err)
		}
		if _, err := stmt.Exec(string(domain), id, string(encoded)); err != nil {
			tx.Rollback()
			return fmt.Errorf("database: inserting venue %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit load: %w", err)
	}
	return nil
}

// Query returns every venue of the domain consistent with the given
// constraints. Exact-match slots are matched in SQL via json_extract; train
// time windows (leaveat >= wanted, arriveby <= wanted) are filtered here.
func (d *DB) Query(domain corpus.Domain, constraints corpus.SlotValues) ([]Venue, error) {
	if d.closed {
		return nil, ErrClosed
	}

	var sb strings.Builder
	sb.WriteString(`SELECT venue_id, attrs FROM venues WHERE domain = ?`)
	args := []any{string(domain)}

	var times []timeConstraint

	for _, slot := range queryableSlots[domain] {
		wanted, ok := constraints[slot]
		if !ok {
			continue
		}
		if _, skip := ignoredValues[wanted]; skip {
			continue
		}
		if slot == "leaveat" || slot == "arriveby" {
			times = append(times, timeConstraint{slot, wanted})
			continue
		}
		// slot names come from the whitelist above, never from input
		fmt.Fprintf(&sb, ` AND json_extract(attrs, '$.%s') = ?`, slot)
		args = append(args, wanted)
	}

	rows, err := d.db.Query(sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("database: querying %s venues: %w", domain, err)
	}
	defer rows.Close()

	var venues []Venue
	for rows.Next() {
		var id, encoded string
		if err := rows.Scan(&id, &encoded); err != nil {
			return nil, fmt.Errorf("database: scanning venue: %w", err)
		}
		var attrs corpus.SlotValues
		if err := json.Unmarshal([]byte(encoded), &attrs); err != nil {
			return nil, fmt.Errorf("database: decoding venue %s: %w", id, err)
		}
		venue := Venue{Domain: domain, ID: id, Attrs: attrs}
		if matchesTimes(venue, times) {
			venues = append(venues, venue)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database: iterating venues: %w", err)
	}
	return venues, nil
}

// timeConstraint is a train time window constraint.
type timeConstraint struct {
	slot   string
	wanted string
}

func matchesTimes(v Venue, times []timeConstraint) bool {
	for _, tc := range times {
		have, ok := minutes(v.Attrs[tc.slot])
		if !ok {
			if v.Attrs[tc.slot] != tc.wanted {
				return false
			}
			continue
		}
		want, ok := minutes(tc.wanted)
		if !ok {
			if v.Attrs[tc.slot] != tc.wanted {
				return false
			}
			continue
		}
		switch tc.slot {
		case "leaveat": // must not leave before the requested time
			if have < want {
				return false
			}
		case "arriveby": // must arrive no later than requested
			if have > want {
				return false
			}
		}
	}
	return true
}

// minutes parses an "hh:mm" value into minutes since midnight.
func minutes(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hh, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, false
	}
	return hh*60 + mm, true
}

// scalarString renders scalar JSON values as strings. Arrays and objects
// report false.
func scalarString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		if v {
			return "yes", true
		}
		return "no", true
	default:
		return "", false
	}
}
