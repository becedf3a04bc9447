package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/stddice/internal/combinator"
	"github.com/cory-johannsen/stddice/internal/dice"
)

// yamlTableFile is the top-level YAML structure for table files.
type yamlTableFile struct {
	Table yamlTable `yaml:"table"`
}

// yamlTable is the YAML representation of a table.
type yamlTable struct {
	ID      string      `yaml:"id"`
	Dice    string      `yaml:"dice"`
	Entries []yamlEntry `yaml:"entries"`
}

// yamlEntry is the YAML representation of an entry.
type yamlEntry struct {
	Roll   string `yaml:"roll"`
	Result string `yaml:"result"`
}

// LoadFromFile reads and validates a single table YAML file.
//
// Precondition: path must point to a valid YAML table file.
// Postcondition: Returns a validated Table or a non-nil error.
func LoadFromFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table file %s: %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a table from YAML bytes.
//
// Postcondition: Returns a validated Table or a non-nil error.
func LoadFromBytes(data []byte) (*Table, error) {
	var file yamlTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing table YAML: %w", err)
	}

	t, err := convertYAMLTable(file.Table)
	if err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("validating table: %w", err)
	}
	return t, nil
}

// LoadDir loads all YAML files in a directory as tables.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated tables or the first error encountered.
func LoadDir(dir string) ([]*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading table directory %s: %w", dir, err)
	}

	var tables []*Table
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		t, err := LoadFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading table from %s: %w", name, err)
		}
		if prev, ok := seen[t.ID]; ok {
			return nil, fmt.Errorf("table %q defined in both %s and %s", t.ID, prev, name)
		}
		seen[t.ID] = name
		tables = append(tables, t)
	}

	if len(tables) == 0 {
		return nil, fmt.Errorf("no table files found in %s", dir)
	}
	return tables, nil
}

// convertYAMLTable parses the dice group and flattens every entry's roll
// spec onto the composite die.
func convertYAMLTable(yt yamlTable) (*Table, error) {
	g, err := dice.ParseGroup(yt.Dice)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", yt.ID, err)
	}
	t := &Table{ID: yt.ID, Dice: g, Entries: make([]Entry, 0, len(yt.Entries))}
	for i, ye := range yt.Entries {
		ranges, err := combinator.FlattenRangeExpr(g, ye.Roll)
		if err != nil {
			return nil, fmt.Errorf("table %q entry %d: %w", yt.ID, i, err)
		}
		t.Entries = append(t.Entries, Entry{
			Spec:   ye.Roll,
			Ranges: ranges,
			Result: strings.TrimSpace(ye.Result),
		})
	}
	return t, nil
}
