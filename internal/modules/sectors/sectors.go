// Package sectors maps tickers to sectors for attribution.
package sectors

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/riskdesk/internal/domain"
)

// defaultSectors covers the large caps most portfolios start with
var defaultSectors = map[string][]string{
	"Technology":         {"AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "AMD"},
	"Consumer Cyclical":  {"TSLA"},
	"Financial":          {"JPM", "BAC", "V", "MA", "PYPL"},
	"Consumer Defensive": {"WMT"},
	"Communication":      {"DIS", "NFLX"},
}

// File is the YAML layout of a sector map file:
//
//	sectors:
//	  Technology: [AAPL, MSFT]
//	  Energy: [XOM]
type File struct {
	Sectors map[string][]string `yaml:"sectors"`
}

// Lookup is a static ticker -> sector table. It implements domain.SectorLookup.
type Lookup struct {
	bySector map[string]string
}

// NewDefault returns a lookup with the built-in table
func NewDefault() *Lookup {
	l := &Lookup{bySector: make(map[string]string)}
	l.merge(defaultSectors)
	return l
}

// LoadFile returns the built-in table overlaid with the sectors in path.
// Entries in the file win over built-in ones.
func LoadFile(path string) (*Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sector map %s: %w", path, err)
	}
	return Parse(data)
}

// Parse is LoadFile on in-memory YAML
func Parse(data []byte) (*Lookup, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse sector map: %w", err)
	}

	l := NewDefault()
	l.merge(f.Sectors)
	return l, nil
}

func (l *Lookup) merge(sectors map[string][]string) {
	for sector, tickers := range sectors {
		for _, t := range tickers {
			l.bySector[domain.NormalizeTicker(t)] = sector
		}
	}
}

// Sector returns the sector for ticker, or domain.DefaultSector
func (l *Lookup) Sector(ticker string) string {
	if s, ok := l.bySector[domain.NormalizeTicker(ticker)]; ok {
		return s
	}
	return domain.DefaultSector
}

// Len returns the number of mapped tickers
func (l *Lookup) Len() int {
	return len(l.bySector)
}
