package domain

import "strings"

// Item is a producible item from the catalog knowledge base.
type Item struct {
	ID            int64
	Name          string
	Aliases       []string
	Facilities    string
	CanBeCrated   string
	CanBePalleted string
	CrateSize     int64
	PalletSize    int64
	ImageURL      string
}

// Facility is a production facility from the catalog knowledge base.
type Facility struct {
	ID       int64
	Name     string
	Aliases  []string
	Type     string
	ImageURL string
}

// Stockpile is a delivery destination from the catalog knowledge base.
type Stockpile struct {
	ID          int64
	Name        string
	Description string
	Location    string
	Passcode    int64
}

// NormalizeAliases splits a raw comma-delimited alias string into a clean
// list: entries are trimmed and empties dropped. Matching against aliases
// is case-sensitive, so no case folding happens here.
func NormalizeAliases(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// JoinAliases renders an alias list back to its comma-delimited wire form.
func JoinAliases(aliases []string) string {
	return strings.Join(aliases, ",")
}
