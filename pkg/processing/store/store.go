// Package store accumulates decoded telemetry into per-session, per-driver
// state across a whole capture.
package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"

	"github.com/overtake/league-capture/log"
	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/packets"
)

const (
	maxEventsPerSession   = 8000
	maxPitEventsPerDriver = 50
	maxPenaltiesPerDriver = 100
	maxNotes              = 500
	historyDedupWindowMs  = 1200
	historyHashLaps       = 60
	minPlausibleLapMs     = 5000
	maxPlausibleLapMs     = 600000
)

// Diagnostics holds the running counters exposed in the result document's
// debug block.
type Diagnostics struct {
	ShReceived      int
	ShNoDriver      int
	ShEarlyRegister int
	ShDedup         int
	ShLapsParsed    int
	ShLapsAccepted  int
	ShLapsFiltered  int

	LdLapRecorded   int
	LdNoDriver      int
	LdEarlyRegister int
	LdNoPrevLap     int
	LdTimeZero      int
	LdAlreadyExists int
	LdSanityFail    int

	ParticipantsReceived        int
	ParticipantsNumActive       int
	PlayerCarIdx                int
	PlayerRecoveredFromOverflow int
}

// SessionStore is the capture-lifetime root object. Not safe for concurrent
// use; the capture loop is its single caller.
type SessionStore struct {
	clk clock.Clock
	lg  *log.Logger

	Connected    bool
	SessionUID   *uint64
	StartedAtMs  int64
	LastPacketMs int64
	PacketCounts map[int]int
	Notes        []string

	Sessions     map[string]*SessionRun
	sessionOrder []string

	// cross-session name memory: "raceNumber_teamId" -> resolved name
	bestKnownTags map[string]string

	Diag Diagnostics
}

type Option func(s *SessionStore)

// WithClock injects the time source used for timestamps and the history
// dedup window.
func WithClock(c clock.Clock) Option {
	return func(s *SessionStore) { s.clk = c }
}

func WithLogger(lg *log.Logger) Option {
	return func(s *SessionStore) { s.lg = lg }
}

func New(opts ...Option) *SessionStore {
	ret := &SessionStore{
		clk: clock.New(),
		lg:  log.Default(),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.Reset()
	return ret
}

// Reset starts a fresh capture, dropping all accumulated sessions and the
// cross-session name memory.
func (s *SessionStore) Reset() {
	s.Connected = false
	s.SessionUID = nil
	s.StartedAtMs = s.nowMs()
	s.LastPacketMs = 0
	s.PacketCounts = make(map[int]int)
	s.Notes = nil
	s.Sessions = make(map[string]*SessionRun)
	s.sessionOrder = nil
	s.bestKnownTags = make(map[string]string)
	s.Diag = Diagnostics{PlayerCarIdx: -1}
}

func (s *SessionStore) nowMs() int64 {
	return s.clk.Now().UnixMilli()
}

// SessionIDs returns the session keys in first-seen order.
func (s *SessionStore) SessionIDs() []string {
	return s.sessionOrder
}

func (s *SessionStore) session(uid string) *SessionRun {
	sess, ok := s.Sessions[uid]
	if !ok {
		sess = newSessionRun(uid)
		s.Sessions[uid] = sess
		s.sessionOrder = append(s.sessionOrder, uid)
	}
	return sess
}

func (s *SessionStore) sessionKey(header *packets.Header) string {
	uid := header.SessionUID
	if uid == 0 && s.SessionUID != nil {
		uid = *s.SessionUID
	}
	return strconv.FormatUint(uid, 10)
}

func (s *SessionStore) note(format string, args ...any) {
	if len(s.Notes) < maxNotes {
		s.Notes = append(s.Notes, fmt.Sprintf(format, args...))
	}
}

// Ingest consumes one decoded packet. Malformed or unknown packets still
// update the per-kind counters via their header.
func (s *SessionStore) Ingest(parsed *packets.Parsed) {
	if parsed == nil || parsed.Header == nil {
		return
	}
	nowMs := s.nowMs()
	s.LastPacketMs = nowMs
	s.Connected = true
	header := parsed.Header

	if header.SessionUID != 0 {
		switch {
		case s.SessionUID == nil:
			uid := header.SessionUID
			s.SessionUID = &uid
		case header.SessionUID != *s.SessionUID:
			s.note("sessionUID changed: %d -> %d", *s.SessionUID, header.SessionUID)
			s.lg.Debug("session changed",
				log.Uint64("old", *s.SessionUID),
				log.Uint64("new", header.SessionUID))
			uid := header.SessionUID
			s.SessionUID = &uid
		}
	}

	pid := int(header.PacketID)
	s.PacketCounts[pid]++

	sid := s.sessionKey(header)
	sess := s.session(sid)
	sess.LastPacketMs = nowMs

	if header.PlayerCarIndex < packets.InvalidCarIndex {
		sess.PlayerCarIndex = int(header.PlayerCarIndex)
	}

	switch {
	case pid == packets.KindSession && parsed.Session != nil:
		s.ingestSession(sess, parsed.Session, nowMs)
	case pid == packets.KindParticipants && parsed.Participants != nil:
		s.ingestParticipants(sess, parsed.Participants, int(header.PlayerCarIndex))
	case pid == packets.KindEvent && parsed.Event != nil:
		s.ingestEvent(sess, parsed.Event, nowMs)
	case pid == packets.KindSessionHistory && parsed.SessionHistory != nil:
		s.ingestSessionHistory(sess, parsed.SessionHistory, nowMs)
	case pid == packets.KindFinalClassification && parsed.FinalClassification != nil:
		s.ingestFinalClassification(sess, parsed.FinalClassification, nowMs)
	case pid == packets.KindLapData && parsed.LapData != nil:
		s.ingestLapData(sess, parsed.LapData, nowMs)
	case pid == packets.KindCarDamage && parsed.CarDamage != nil:
		s.ingestCarDamage(sess, parsed.CarDamage)
	}
}

func (s *SessionStore) ingestSession(sess *SessionRun, pkt *packets.Session, nowMs int64) {
	st, track, weather, sc := pkt.SessionType, pkt.TrackID, pkt.Weather, pkt.SafetyCarStatus
	sess.SessionType = &st
	sess.TrackID = &track
	sess.Weather = &weather
	sess.SafetyCarStatus = &sc

	if pkt.NumVirtualSafetyCarPeriods > sess.NumVSCDeployments {
		sess.NumVSCDeployments = pkt.NumVirtualSafetyCarPeriods
	}
	if pkt.NumRedFlagPeriods > sess.NumRedFlagPeriods {
		sess.NumRedFlagPeriods = pkt.NumRedFlagPeriods
	}
	sess.NetworkGame = pkt.NetworkGame

	trackTemp, airTemp := pkt.TrackTempC, pkt.AirTempC
	sess.LatestTrackTempC = &trackTemp
	sess.LatestAirTempC = &airTemp

	if sess.lastWeatherState == nil || *sess.lastWeatherState != weather {
		sess.WeatherTimeline = append(sess.WeatherTimeline, WeatherTimelineEntry{
			TsMs:       nowMs,
			Weather:    weather,
			TrackTempC: &trackTemp,
			AirTempC:   &airTemp,
		})
		sess.lastWeatherState = &weather
	}

	// last forecast snapshot wins
	if len(pkt.WeatherForecast) > 0 {
		fc := make([]ForecastRecord, 0, len(pkt.WeatherForecast))
		for _, f := range pkt.WeatherForecast {
			fc = append(fc, ForecastRecord{
				TimeOffsetMin:  f.TimeOffsetMin,
				Weather:        f.Weather,
				TrackTempC:     f.TrackTempC,
				AirTempC:       f.AirTempC,
				RainPercentage: f.RainPercentage,
			})
		}
		sess.WeatherForecast = fc
	}
}

func isGenericTag(tag string) bool {
	return strings.HasPrefix(tag, "Driver_") ||
		strings.HasPrefix(tag, "Player_") ||
		strings.HasPrefix(tag, "Car")
}

//nolint:funlen,gocognit // identity reconciliation is one sequential pass
func (s *SessionStore) ingestParticipants(
	sess *SessionRun, pkt *packets.Participants, playerCarIndex int,
) {
	if len(pkt.TagsByCarIdx) == 0 {
		return
	}

	s.Diag.ParticipantsReceived++
	s.Diag.ParticipantsNumActive = pkt.NumActiveCars
	s.Diag.PlayerCarIdx = playerCarIndex

	tags := make(map[int]string, len(pkt.TagsByCarIdx))
	for idx, tag := range pkt.TagsByCarIdx {
		tags[idx] = tag
	}
	entries := make(map[int]packets.ParticipantEntry, len(pkt.Entries))
	for idx, e := range pkt.Entries {
		entries[idx] = e
	}

	// recover valid slots beyond the declared active count
	for idx, e := range pkt.Overflow {
		if _, exists := tags[idx]; exists {
			continue
		}
		tags[idx] = e.Name
		entries[idx] = e
		if idx == playerCarIndex {
			s.Diag.PlayerRecoveredFromOverflow++
			s.lg.Info("player entry recovered from overflow", log.Int("carIdx", idx))
		}
	}

	// cross-session name resolution
	for idx, tag := range tags {
		rn, tid := 0, -1
		if e, ok := entries[idx]; ok {
			rn, tid = e.RaceNumber, e.TeamID
		}
		key := fmt.Sprintf("%d_%d", rn, tid)
		generic := isGenericTag(tag)
		switch {
		case !generic && strings.TrimSpace(tag) != "":
			s.bestKnownTags[key] = tag
		case generic:
			if known, ok := s.bestKnownTags[key]; ok {
				tags[idx] = known
			}
		}
	}

	// online play reports the local player under a gamer tag; swap in the
	// real driver name when telemetry says a human drives a known car
	if playerCarIndex >= 0 && playerCarIndex < packets.InvalidCarIndex {
		if _, ok := tags[playerCarIndex]; ok {
			if e, ok := entries[playerCarIndex]; ok && !e.AiControlled && e.DriverID != 255 {
				if name, ok := lookup.DriverByID[e.DriverID]; ok {
					if !isKnownDriverName(tags[playerCarIndex]) {
						tags[playerCarIndex] = name
					}
				}
			}
		}
	}

	// rename existing runs whose tag changed: move, or merge keeping the
	// run with more laps
	for idx, newTag := range tags {
		oldTag, ok := sess.TagsByCarIdx[idx]
		if !ok || oldTag == "" || oldTag == newTag {
			continue
		}
		dr, ok := sess.Drivers[oldTag]
		if !ok {
			continue
		}
		delete(sess.Drivers, oldTag)
		dr.Tag = newTag
		if existing, ok := sess.Drivers[newTag]; ok {
			if len(dr.Laps) > len(existing.Laps) {
				sess.putDriver(newTag, dr)
			}
		} else {
			sess.putDriver(newTag, dr)
		}
	}

	// merge, never remove previously known identities
	for idx, tag := range tags {
		sess.TagsByCarIdx[idx] = tag
	}
	for idx := range entries {
		e := entries[idx]
		sess.TeamByCarIdx[idx] = &e
	}
}

func isKnownDriverName(tag string) bool {
	for _, name := range lookup.DriverByID {
		if strings.EqualFold(name, tag) {
			return true
		}
	}
	return false
}

// ensureDriver returns the run for a car index, creating it when the tag is
// already known. Returns nil for unknown cars.
func (s *SessionStore) ensureDriver(sess *SessionRun, carIdx int) *DriverRun {
	tag, ok := sess.TagsByCarIdx[carIdx]
	if !ok || tag == "" {
		return nil
	}
	dr, ok := sess.Drivers[tag]
	if !ok {
		dr = &DriverRun{Tag: tag, CarIdx: carIdx}
		sess.putDriver(tag, dr)
	}
	return dr
}

// earlyRegisterDriver registers a placeholder identity so data arriving
// before the participants packet is not dropped.
func (s *SessionStore) earlyRegisterDriver(sess *SessionRun, carIdx int) *DriverRun {
	if carIdx < 0 || carIdx >= packets.MaxCars {
		return nil
	}
	sess.TagsByCarIdx[carIdx] = fmt.Sprintf("Player_%d", carIdx)
	return s.ensureDriver(sess, carIdx)
}
