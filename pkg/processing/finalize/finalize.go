// Package finalize transforms the accumulated session store into the
// versioned result document. The transform is pure: it never mutates the
// store and yields identical output for unchanged input.
package finalize

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
)

var ErrNoStore = errors.New("no session store")

var (
	ghostCarRe = regexp.MustCompile(`^Car\d+$`)
	earlyRegRe = regexp.MustCompile(`^Car_\d+$`)
)

// isPhantomEntry reports whether a tag is an empty car slot: an invalid
// team with zero recorded laps, or a placeholder name with neither laps nor
// a valid team.
func isPhantomEntry(tag string, dr *store.DriverRun, sess *store.SessionRun) bool {
	teamInfo := sess.TeamByCarIdx[dr.CarIdx]
	invalidTeam := teamInfo == nil || teamInfo.TeamID == packets.TeamIDNone
	if teamInfo != nil && teamInfo.TeamID == packets.TeamIDNone && len(dr.Laps) == 0 {
		return true
	}
	if strings.HasPrefix(tag, "Driver_") && len(dr.Laps) == 0 && invalidTeam {
		return true
	}
	if earlyRegRe.MatchString(tag) && len(dr.Laps) == 0 && invalidTeam {
		return true
	}
	return false
}

// Finalize builds the result document from the store's current state. May
// be called repeatedly; ties and orderings are resolved deterministically.
func Finalize(st *store.SessionStore) (*model.Document, error) {
	if st == nil {
		return nil, ErrNoStore
	}

	captureUID := "unknown"
	if st.SessionUID != nil {
		captureUID = strconv.FormatUint(*st.SessionUID, 10)
	}

	doc := &model.Document{
		SchemaVersion: model.SchemaVersion,
		Game:          model.Game,
		Capture: model.Capture{
			SessionUID:  captureUID,
			StartedAtMs: st.StartedAtMs,
			EndedAtMs:   st.LastPacketMs,
		},
		Participants: collectParticipants(st),
	}

	globalTeams := collectGlobalTeams(st)

	var typeNames []string
	seenTypes := map[int]bool{}
	for _, sid := range dedupSessions(st) {
		sess := st.Sessions[sid]
		if sid == "0" || (sess.SessionType == nil && len(sess.Drivers) == 0) {
			continue
		}
		if sess.SessionType != nil && !seenTypes[*sess.SessionType] {
			seenTypes[*sess.SessionType] = true
			typeNames = append(typeNames,
				lookup.MakeLabel(lookup.SessionType, sess.SessionType, "SessionType").Name)
		}
		doc.Sessions = append(doc.Sessions, finalizeSession(sid, sess, doc.Sessions, globalTeams))
	}
	doc.Capture.SessionTypesInCapture = typeNames

	doc.Debug = buildDebug(st)
	return doc, nil
}

// collectParticipants returns the first-seen non-phantom tags across all
// sessions in capture order.
func collectParticipants(st *store.SessionStore) []string {
	var out []string
	seen := map[string]bool{}
	for _, sid := range st.SessionIDs() {
		sess := st.Sessions[sid]
		for _, carIdx := range sortedCarIndices(sess.TagsByCarIdx) {
			tag := sess.TagsByCarIdx[carIdx]
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			if dr, ok := sess.Drivers[tag]; ok && isPhantomEntry(tag, dr, sess) {
				continue
			}
			out = append(out, tag)
		}
	}
	return out
}

// collectGlobalTeams builds a cross-session tag -> participant-info lookup
// used when a session never delivered team data for a driver.
func collectGlobalTeams(st *store.SessionStore) map[string]*packets.ParticipantEntry {
	out := map[string]*packets.ParticipantEntry{}
	for _, sid := range st.SessionIDs() {
		sess := st.Sessions[sid]
		for _, carIdx := range sortedCarIndices(sess.TagsByCarIdx) {
			tag := sess.TagsByCarIdx[carIdx]
			if tag == "" {
				continue
			}
			if entry, ok := sess.TeamByCarIdx[carIdx]; ok && out[tag] == nil {
				out[tag] = entry
			}
		}
	}
	return out
}

// dedupSessions keeps, per declared session type, only the last session
// that carries it. Typeless sessions always survive this step.
func dedupSessions(st *store.SessionStore) []string {
	ids := st.SessionIDs()
	lastByType := map[int]int{}
	for i, sid := range ids {
		if t := st.Sessions[sid].SessionType; t != nil {
			lastByType[*t] = i
		}
	}
	var out []string
	for i, sid := range ids {
		t := st.Sessions[sid].SessionType
		if t == nil || lastByType[*t] == i {
			out = append(out, sid)
		}
	}
	return out
}

func sortedCarIndices(m map[int]string) []int {
	out := make([]int, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func buildDebug(st *store.SessionStore) model.Debug {
	counts := make(map[string]int, len(st.PacketCounts))
	for pid, n := range st.PacketCounts {
		counts[strconv.Itoa(pid)] = n
	}
	notes := st.Notes
	if notes == nil {
		notes = []string{}
	}
	return model.Debug{
		PacketIDCounts: counts,
		Notes:          notes,
		Diagnostics: model.Diagnostics{
			SessionHistory: model.SessionHistoryDiag{
				Received:      st.Diag.ShReceived,
				NoDriver:      st.Diag.ShNoDriver,
				EarlyRegister: st.Diag.ShEarlyRegister,
				Dedup:         st.Diag.ShDedup,
				LapsAccepted:  st.Diag.ShLapsAccepted,
				LapsFiltered:  st.Diag.ShLapsFiltered,
			},
			LapData: model.LapDataDiag{
				LapRecorded:   st.Diag.LdLapRecorded,
				NoDriver:      st.Diag.LdNoDriver,
				EarlyRegister: st.Diag.LdEarlyRegister,
				AlreadyExists: st.Diag.LdAlreadyExists,
				SanityFail:    st.Diag.LdSanityFail,
			},
			Participants: model.ParticipantsDiag{
				Received:                    st.Diag.ParticipantsReceived,
				NumActive:                   st.Diag.ParticipantsNumActive,
				PlayerCarIdx:                st.Diag.PlayerCarIdx,
				PlayerRecoveredFromOverflow: st.Diag.PlayerRecoveredFromOverflow,
			},
		},
	}
}
