// Package style loads the TOML style table that maps feature tags to visual
// styling and stacking priority.
//
// Each table is keyed by a selector: either "key.value" for an exact tag
// match or a bare "key" for any value. Resolution walks a feature's tags in
// document order and tries the specific selector before the bare one, so a
// "golf.bunker" rule beats a "golf" rule on the same feature.
package style

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/csites/osm2svg4opcd/pkg/errors"
)

// Defaults applied when a rule leaves a field unset.
const (
	DefaultStrokeWidth    = 1.0
	DefaultOutsetDistance = 0.5
)

// Tag is one key/value pair on a map feature. Order matters for resolution,
// so tags travel as a slice rather than a map.
type Tag struct {
	Key   string
	Value string
}

// Rule holds the styling attributes for one selector.
type Rule struct {
	Fill           string  `toml:"fill"`
	Stroke         string  `toml:"stroke"`
	StrokeWidth    float64 `toml:"stroke-width"`
	LineCap        string  `toml:"stroke-linecap"`
	StrokeToPath   bool    `toml:"stroke-to-path"`
	ZOrder         int     `toml:"z-order"`
	Outset         bool    `toml:"outset"`
	OutsetDistance float64 `toml:"outset-distance"`
}

// Table is a parsed style table.
type Table struct {
	rules       map[string]Rule
	fingerprint string
}

// Load reads and parses a TOML style table from disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read style table %s", path)
	}
	return Parse(data)
}

// Parse parses a TOML style table.
func Parse(data []byte) (*Table, error) {
	var rules map[string]Rule
	if err := toml.Unmarshal(data, &rules); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "parse style table")
	}
	for sel, r := range rules {
		if err := errors.ValidateSelector(sel); err != nil {
			return nil, err
		}
		if err := errors.ValidateColor(r.Fill); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "selector %q: fill", sel)
		}
		if err := errors.ValidateColor(r.Stroke); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "selector %q: stroke", sel)
		}
		if err := errors.ValidateLineCap(r.LineCap); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidStyle, err, "selector %q: stroke-linecap", sel)
		}
		if r.StrokeWidth < 0 {
			return nil, errors.New(errors.ErrCodeInvalidStyle, "selector %q: negative stroke-width %v", sel, r.StrokeWidth)
		}
		if r.StrokeToPath && r.StrokeWidth == 0 {
			r.StrokeWidth = DefaultStrokeWidth
		}
		if r.Outset && r.OutsetDistance == 0 {
			r.OutsetDistance = DefaultOutsetDistance
		}
		rules[sel] = r
	}
	sum := sha256.Sum256(data)
	return &Table{rules: rules, fingerprint: hex.EncodeToString(sum[:])}, nil
}

// Len returns the number of selectors in the table.
func (t *Table) Len() int { return len(t.rules) }

// Fingerprint returns a content hash of the table source, used to key
// cached stage artifacts so style edits invalidate them.
func (t *Table) Fingerprint() string { return t.fingerprint }

// Resolve finds the first rule matching the tags in document order, trying
// the exact "key.value" selector before the bare "key" selector for each
// tag. The second return is the selector that matched.
func (t *Table) Resolve(tags []Tag) (Rule, string, bool) {
	for _, tag := range tags {
		if r, ok := t.rules[tag.Key+"."+tag.Value]; ok {
			return r, tag.Key + "." + tag.Value, true
		}
		if r, ok := t.rules[tag.Key]; ok {
			return r, tag.Key, true
		}
	}
	return Rule{}, "", false
}
