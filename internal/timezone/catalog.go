package timezone

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when no catalog entry matches a lookup.
var ErrNotFound = errors.New("region not found")

// Entry is one immutable catalog row: a region with its Moscow-relative
// and UTC-relative hour offsets and its FIAS address code.
type Entry struct {
	Region         string
	MSKOffsetHours int
	UTCOffsetHours int
	FIASCode       string

	regionNorm string
	regionFold string
}

// Variant is a resolved timezone candidate annotated for display.
type Variant struct {
	Region         string `json:"region"`
	MSKOffsetHours int    `json:"msk_offset_hours"`
	UTCOffsetHours int    `json:"utc_offset_hours"`
	FIASCode       string `json:"fias_code"`
	Label          string `json:"label"`
}

// Resolution is the outcome of resolving free-text region input. When the
// input maps to more than one genuinely distinct offset, NeedsChoice is set
// and the caller must disambiguate.
type Resolution struct {
	InputRegion string    `json:"input_region"`
	NeedsChoice bool      `json:"needs_choice"`
	Variants    []Variant `json:"variants"`
}

// Times carries the reference (Moscow) and region-local civil timestamps.
type Times struct {
	MSKTime   string `json:"msk_time"`
	LocalTime string `json:"local_time"`
}

const (
	defaultSearchLimit  = 10
	defaultResolveLimit = 20
	maxLimit            = 50

	timeLayout = "2006-01-02 15:04:05"
)

// Catalog is the read-only region lookup table. It is built once at startup
// and handed to callers; nothing mutates it afterwards, so concurrent reads
// need no locking.
type Catalog struct {
	entries []Entry
	byFIAS  map[string]Entry
}

// NewCatalog builds a catalog from rows, computing the derived match keys.
// Rows are kept sorted by display name.
func NewCatalog(rows []Entry) *Catalog {
	entries := make([]Entry, 0, len(rows))
	byFIAS := make(map[string]Entry, len(rows))
	for _, r := range rows {
		r.regionNorm = NormalizeRegion(r.Region)
		r.regionFold = fold(r.Region)
		entries = append(entries, r)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Region < entries[j].Region })
	for _, e := range entries {
		byFIAS[e.FIASCode] = e
	}
	return &Catalog{entries: entries, byFIAS: byFIAS}
}

// CSV column headers of the source table.
const (
	colFIAS   = "Код КЛАДР (ФИАС)"
	colRegion = "Регион РФ"
	colMSK    = "Номер часовой зоны (по МСК)"
	colUTC    = "Номер часовой зоны (по UTC)"
)

// LoadCSV reads the semicolon-delimited region table. Rows missing a FIAS
// code or region name are dropped; rows whose offsets do not parse are
// logged and skipped. A missing or malformed file is an error.
func LoadCSV(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range []string{colFIAS, colRegion, colMSK, colUTC} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, col)
		}
	}

	field := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []Entry
	for _, rec := range records[1:] {
		fias := field(rec, colFIAS)
		region := field(rec, colRegion)
		if fias == "" || region == "" {
			continue
		}
		msk, err := ParseOffset(field(rec, colMSK))
		if err != nil {
			log.Printf("timezone csv: skipping %q: %v", region, err)
			continue
		}
		utc, err := ParseOffset(field(rec, colUTC))
		if err != nil {
			log.Printf("timezone csv: skipping %q: %v", region, err)
			continue
		}
		rows = append(rows, Entry{
			Region:         region,
			MSKOffsetHours: msk,
			UTCOffsetHours: utc,
			FIASCode:       fias,
		})
	}
	return NewCatalog(rows), nil
}

// Len reports how many rows the catalog holds.
func (c *Catalog) Len() int { return len(c.entries) }

// Search returns entries whose folded name contains the folded query,
// ordered by display name, capped at limit (1..50, default 10).
func (c *Catalog) Search(query string, limit int) []Entry {
	q := fold(query)
	if q == "" {
		return nil
	}
	limit = clampLimit(limit, defaultSearchLimit)

	var out []Entry
	for _, e := range c.entries {
		if strings.Contains(e.regionFold, q) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Resolve maps free-text region input to its timezone variants: exact match
// on the normalized key first, substring match as a fallback. Rows with
// identical offset pairs collapse into one variant.
func (c *Catalog) Resolve(region string, limit int) (Resolution, error) {
	limit = clampLimit(limit, defaultResolveLimit)
	rows := c.matchNorm(region)
	if len(rows) == 0 {
		return Resolution{}, ErrNotFound
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	type offsets struct{ msk, utc int }
	seen := make(map[offsets]bool)
	var variants []Variant
	for _, r := range rows {
		key := offsets{r.MSKOffsetHours, r.UTCOffsetHours}
		if seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, Variant{
			Region:         r.Region,
			MSKOffsetHours: r.MSKOffsetHours,
			UTCOffsetHours: r.UTCOffsetHours,
			FIASCode:       r.FIASCode,
			Label:          offsetLabel(r.MSKOffsetHours, r.UTCOffsetHours),
		})
	}

	return Resolution{
		InputRegion: region,
		NeedsChoice: len(variants) > 1,
		Variants:    variants,
	}, nil
}

// ResolveOne picks a single entry for "current time" queries. An exact FIAS
// code match wins when supplied; otherwise the first row of the Resolve
// ordering is taken.
func (c *Catalog) ResolveOne(region, fiasCode string) (Entry, error) {
	if fiasCode != "" {
		if e, ok := c.byFIAS[fiasCode]; ok {
			return e, nil
		}
	}
	if region != "" {
		if rows := c.matchNorm(region); len(rows) > 0 {
			return rows[0], nil
		}
	}
	return Entry{}, ErrNotFound
}

// CurrentTime reports the Moscow reference time and the entry's local time.
// Moscow is a fixed +3 civil offset from UTC here, not a tzdata lookup.
func (c *Catalog) CurrentTime(e Entry) Times {
	return timesAt(e, time.Now())
}

func timesAt(e Entry, now time.Time) Times {
	msk := now.UTC().Add(3 * time.Hour)
	local := msk.Add(time.Duration(e.MSKOffsetHours) * time.Hour)
	return Times{
		MSKTime:   msk.Format(timeLayout),
		LocalTime: local.Format(timeLayout),
	}
}

// matchNorm implements the shared exact-then-substring strategy over the
// normalized key, ordered msk offset descending, then name.
func (c *Catalog) matchNorm(region string) []Entry {
	nr := NormalizeRegion(region)

	var exact, partial []Entry
	for _, e := range c.entries {
		if e.regionNorm == nr {
			exact = append(exact, e)
		} else if strings.Contains(e.regionNorm, nr) {
			partial = append(partial, e)
		}
	}
	rows := exact
	if len(rows) == 0 {
		rows = partial
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].MSKOffsetHours != rows[j].MSKOffsetHours {
			return rows[i].MSKOffsetHours > rows[j].MSKOffsetHours
		}
		return rows[i].Region < rows[j].Region
	})
	return rows
}

func offsetLabel(msk, utc int) string {
	return fmt.Sprintf("МСК%s (UTC%s)", signed(msk), signed(utc))
}

func signed(v int) string {
	if v < 0 {
		return fmt.Sprintf("-%d", -v)
	}
	return fmt.Sprintf("+%d", v)
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
