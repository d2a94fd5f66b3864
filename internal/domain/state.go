package domain

import (
	"sort"
	"strings"
)

// State is a two-letter US state (or DC) postal code
type State string

// stateNames maps postal codes to full names
var stateNames = map[State]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

var stateByName = func() map[string]State {
	m := make(map[string]State, len(stateNames))
	for code, name := range stateNames {
		m[strings.ToLower(name)] = code
	}
	return m
}()

// ParseState accepts a postal code or full state name, case-insensitive
func ParseState(s string) (State, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if code := State(strings.ToUpper(s)); len(s) == 2 {
		if _, ok := stateNames[code]; ok {
			return code, true
		}
	}
	code, ok := stateByName[strings.ToLower(s)]
	return code, ok
}

// Canonical returns the postal code for s when it names a known state by code or full name.
// Unknown values come back unchanged.
func (s State) Canonical() State {
	if code, ok := ParseState(string(s)); ok {
		return code
	}
	return s
}

// Name returns the full state name, or the raw code when unknown
func (s State) Name() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return string(s)
}

// IsKnown reports whether s is a recognised postal code
func (s State) IsKnown() bool {
	_, ok := stateNames[s]
	return ok
}

// AllStates returns every known state code in alphabetical order
func AllStates() []State {
	states := make([]State, 0, len(stateNames))
	for code := range stateNames {
		states = append(states, code)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}
