// Package suburbs resolves regional price multipliers from suburb median income.
package suburbs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Suburb is one row of the income dataset.
type Suburb struct {
	SSCCode      int     `json:"ssc_code"`
	Name         string  `json:"suburb"`
	Postcode     int     `json:"postcode"`
	MedianIncome float64 `json:"median_income"`
	State        string  `json:"state"`
}

// Dataset is the in-memory suburb table. It is built once at startup and
// only read afterwards, so it is safe for concurrent use.
type Dataset struct {
	suburbs    []Suburb
	byPostcode map[int]int
	byName     map[string]int
	loaded     bool
}

type datasetFile struct {
	Data []Suburb `json:"data"`
}

// NewDataset builds a loaded dataset from rows. The first row wins when a
// postcode or name repeats.
func NewDataset(rows []Suburb) *Dataset {
	d := &Dataset{
		suburbs:    append([]Suburb(nil), rows...),
		byPostcode: make(map[int]int, len(rows)),
		byName:     make(map[string]int, len(rows)),
		loaded:     true,
	}
	for i, s := range d.suburbs {
		if _, ok := d.byPostcode[s.Postcode]; !ok {
			d.byPostcode[s.Postcode] = i
		}
		key := strings.ToLower(s.Name)
		if _, ok := d.byName[key]; !ok {
			d.byName[key] = i
		}
	}
	return d
}

// Empty returns a dataset that reports itself as not loaded.
func Empty() *Dataset {
	return &Dataset{byPostcode: map[int]int{}, byName: map[string]int{}}
}

// Load decodes a dataset of the form {"data": [...]}.
func Load(r io.Reader) (*Dataset, error) {
	var f datasetFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode suburb dataset: %w", err)
	}
	return NewDataset(f.Data), nil
}

// LoadFile reads the dataset at path.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open suburb dataset: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Loaded reports whether the dataset was populated from a source.
func (d *Dataset) Loaded() bool { return d != nil && d.loaded }

// Len returns the number of suburbs.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.suburbs)
}

func (d *Dataset) postcode(code int) (Suburb, bool) {
	if d == nil {
		return Suburb{}, false
	}
	i, ok := d.byPostcode[code]
	if !ok {
		return Suburb{}, false
	}
	return d.suburbs[i], true
}

func (d *Dataset) name(name string) (Suburb, bool) {
	if d == nil {
		return Suburb{}, false
	}
	i, ok := d.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Suburb{}, false
	}
	return d.suburbs[i], true
}
