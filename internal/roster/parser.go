package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// Participant is one active roster entry eligible for payout.
type Participant struct {
	Name      string
	DiscordID string
}

// Classified is the result of parsing a roster export: active participants
// keep their Discord ID, benched players keep only their name. Both lists
// preserve source order. EventDate is empty when the export carries no event
// summary block or its date could not be read.
type Classified struct {
	Active    []Participant
	Benched   []string
	EventDate string
}

// Parser classifies roster rows. Roles in the excluded set are benched
// instead of paid; the set is configuration because roster exports have
// grown new non-payout statuses over time.
type Parser struct {
	excluded map[string]struct{}
}

// NewParser builds a Parser with the given excluded role names
// (compared case-insensitively after trimming).
func NewParser(excludedRoles []string) *Parser {
	excluded := make(map[string]struct{}, len(excludedRoles))
	for _, role := range excludedRoles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			excluded[role] = struct{}{}
		}
	}
	return &Parser{excluded: excluded}
}

// Roster export shapes. The simple form starts directly with the player
// header; the extended form has a leading event-summary block whose first
// data row carries the event date as DD-MM-YYYY.
const (
	eventDateInputLayout  = "02-01-2006"
	eventDateOutputLayout = "2006-01-02"
)

// Parse reads a raid-helper roster export and classifies every player row.
// Warnings are non-fatal: a missing player header yields an empty roster
// plus a warning, and a malformed event date is simply omitted. Rows with
// fewer than 4 columns, blank names, or non-numeric IDs are dropped
// silently because exports routinely contain blank trailing rows.
func (p *Parser) Parse(raw string) (Classified, []string) {
	var (
		classified    Classified
		warnings      []string
		inPlayers     bool
		foundPlayers  bool
		expectingDate bool
	)

	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip unreadable rows; exports are loosely structured.
			continue
		}
		for idx := range record {
			record[idx] = strings.TrimSpace(record[idx])
		}
		if len(record) == 0 {
			continue
		}

		if isPlayerHeader(record) {
			inPlayers = true
			foundPlayers = true
			// A truncated event block means the date row never arrived.
			expectingDate = false
			continue
		}

		if !inPlayers {
			if isEventHeader(record) {
				expectingDate = true
				continue
			}
			if expectingDate {
				expectingDate = false
				if len(record) < 2 {
					warnings = append(warnings, "event summary row is malformed; event date omitted")
					continue
				}
				t, err := time.Parse(eventDateInputLayout, record[1])
				if err != nil {
					warnings = append(warnings, fmt.Sprintf("could not parse event date %q; event date omitted", record[1]))
					continue
				}
				classified.EventDate = t.Format(eventDateOutputLayout)
			}
			continue
		}

		if len(record) < 4 {
			continue
		}

		role := strings.ToLower(record[0])
		name := record[2]
		id := record[3]

		if _, benched := p.excluded[role]; benched {
			if name != "" {
				classified.Benched = append(classified.Benched, name)
			}
			continue
		}
		if name != "" && isNumeric(id) {
			classified.Active = append(classified.Active, Participant{Name: name, DiscordID: id})
		}
	}

	if !foundPlayers {
		warnings = append(warnings, "roster header not found (expected a row starting with role,spec,name,id)")
		return Classified{}, warnings
	}
	return classified, warnings
}

func isPlayerHeader(record []string) bool {
	return len(record) >= 4 &&
		strings.EqualFold(record[0], "role") &&
		strings.EqualFold(record[1], "spec")
}

func isEventHeader(record []string) bool {
	return len(record) >= 2 &&
		strings.EqualFold(record[0], "name") &&
		strings.EqualFold(record[1], "date")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
