package packets

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	participantStride  = 57
	participantNameOff = 7
	participantNameLen = 32

	// TeamIDNone marks a slot without a team assignment.
	TeamIDNone = 255
)

// ParticipantEntry is one decoded competitor slot of the participants
// packet (kind 4).
type ParticipantEntry struct {
	AiControlled    bool
	DriverID        int
	TeamID          int
	MyTeam          bool
	RaceNumber      int
	Nationality     int
	YourTelemetry   int
	ShowOnlineNames int
	Platform        int
	Name            string
}

// Participants is the decoded participants packet. Entries holds the slots
// within the declared active-car count; Overflow holds recovered slots
// beyond it that carry real data (the game occasionally reports the local
// player outside the active range). TagsByCarIdx contains the
// duplicate-disambiguated display tags for both.
type Participants struct {
	NumActiveCars int
	Entries       map[int]ParticipantEntry
	Overflow      map[int]ParticipantEntry
	TagsByCarIdx  map[int]string
}

func parseParticipantEntry(data []byte, start int) ParticipantEntry {
	e := ParticipantEntry{
		AiControlled: data[start] != 0,
		DriverID:     int(data[start+1]),
		TeamID:       int(data[start+3]),
		MyTeam:       data[start+4] != 0,
		RaceNumber:   int(data[start+5]),
		Nationality:  int(data[start+6]),
		Platform:     TeamIDNone,
	}
	if start+39 < len(data) {
		e.YourTelemetry = int(data[start+39])
	}
	if start+40 < len(data) {
		e.ShowOnlineNames = int(data[start+40])
	}
	if start+43 < len(data) {
		e.Platform = int(data[start+43])
	}
	return e
}

// parseName decodes the fixed-width NUL-terminated name field as UTF-8,
// falling back to Latin-1 when the bytes are not valid UTF-8, and
// substituting a synthetic placeholder when empty.
func parseName(data []byte, start, fallbackIdx int) string {
	nameStart := start + participantNameOff
	maxLen := participantNameLen
	if nameStart+maxLen > len(data) {
		maxLen = len(data) - nameStart
	}
	if maxLen <= 0 {
		return fmt.Sprintf("Driver_%d", fallbackIdx)
	}

	raw := data[nameStart : nameStart+maxLen]
	if nul := bytes.IndexByte(raw, 0); nul >= 0 {
		raw = raw[:nul]
	}

	var name string
	if utf8.Valid(raw) {
		name = string(raw)
	} else {
		// Latin-1: each byte maps to the code point of the same value
		runes := make([]rune, len(raw))
		for i, b := range raw {
			runes[i] = rune(b)
		}
		name = string(runes)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Sprintf("Driver_%d", fallbackIdx)
	}
	return name
}

// isPlaceholderName reports whether a decoded name is one of the synthetic
// placeholders rather than a real display name.
func isPlaceholderName(name string) bool {
	return strings.HasPrefix(name, "Driver_")
}

//nolint:funlen,gocognit // mirrors the wire format quirks in one place
func ParseParticipants(data []byte) *Participants {
	if len(data) < HeaderSize+1 {
		return nil
	}

	p := HeaderSize
	numActive := int(data[p])
	if numActive > MaxCars {
		numActive = MaxCars
	}
	baseOff := p + 1

	entries := make(map[int]ParticipantEntry)
	tags := make(map[int]string)
	nameCount := make(map[string]int)

	for i := 0; i < numActive; i++ {
		start := baseOff + i*participantStride
		if start+participantStride > len(data) {
			break
		}
		entry := parseParticipantEntry(data, start)
		entry.Name = parseName(data, start, i)
		entries[i] = entry
		nameCount[entry.Name]++
	}

	// Build tags: duplicate display names get the race number appended,
	// or the car index when no race number is known.
	for i := 0; i < numActive; i++ {
		entry, ok := entries[i]
		if !ok {
			continue
		}
		if nameCount[entry.Name] > 1 {
			if entry.RaceNumber > 0 {
				tags[i] = fmt.Sprintf("%s #%d", entry.Name, entry.RaceNumber)
			} else {
				tags[i] = fmt.Sprintf("%s_%d", entry.Name, i)
			}
		} else {
			tags[i] = entry.Name
		}
	}

	// Recover slots beyond the declared active count that carry real data.
	overflow := make(map[int]ParticipantEntry)
	for i := numActive; i < MaxCars; i++ {
		start := baseOff + i*participantStride
		if start+participantStride > len(data) {
			break
		}
		entry := parseParticipantEntry(data, start)
		entry.Name = parseName(data, start, i)
		if entry.TeamID == TeamIDNone && isPlaceholderName(entry.Name) {
			continue
		}
		if entry.TeamID > 0 || (!isPlaceholderName(entry.Name) && strings.TrimSpace(entry.Name) != "") {
			tag := entry.Name
			if nameCount[tag] > 0 {
				if entry.RaceNumber > 0 {
					tag = fmt.Sprintf("%s #%d", entry.Name, entry.RaceNumber)
				} else {
					tag = fmt.Sprintf("%s_%d", entry.Name, i)
				}
			}
			nameCount[entry.Name]++
			tags[i] = tag
			overflow[i] = entry
		}
	}

	return &Participants{
		NumActiveCars: int(data[p]),
		Entries:       entries,
		Overflow:      overflow,
		TagsByCarIdx:  tags,
	}
}
