package store

import (
	"math"

	"github.com/overtake/league-capture/log"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
)

// historyHash condenses a history snapshot into a cheap fingerprint so the
// protocol's constant re-broadcast of unchanged history is skipped.
func historyHash(sh *packets.SessionHistory) int {
	h := sh.NumLaps
	n := len(sh.Laps)
	if n > historyHashLaps {
		n = historyHashLaps
	}
	for i := 0; i < n; i++ {
		h = h*31 + sh.Laps[i].LapTimeMs
	}
	return h
}

//nolint:gocognit // sequential filter over the authoritative lap source
func (s *SessionStore) ingestSessionHistory(
	sess *SessionRun, sh *packets.SessionHistory, nowMs int64,
) {
	s.Diag.ShReceived++
	d := s.ensureDriver(sess, sh.CarIdx)
	if d == nil {
		if sh.NumLaps > 0 {
			if d = s.earlyRegisterDriver(sess, sh.CarIdx); d != nil {
				s.Diag.ShEarlyRegister++
			}
		}
		if d == nil {
			s.Diag.ShNoDriver++
			return
		}
	}

	s.Diag.ShLapsParsed += len(sh.Laps)

	hash := historyHash(sh)
	if d.lastHistoryHash != nil && *d.lastHistoryHash == hash &&
		nowMs-d.lastHistoryUpdateMs < historyDedupWindowMs {
		s.Diag.ShDedup++
		return
	}

	newLaps := make([]LapRecord, 0, len(sh.Laps))
	for _, lap := range sh.Laps {
		if lap.LapTimeMs <= 0 || lap.LapNumber <= 0 {
			s.Diag.ShLapsFiltered++
			continue
		}
		if lap.LapTimeMs < minPlausibleLapMs || lap.LapTimeMs > maxPlausibleLapMs {
			s.Diag.ShLapsFiltered++
			continue
		}
		s.Diag.ShLapsAccepted++
		newLaps = append(newLaps, LapRecord{
			LapNumber:  lap.LapNumber,
			LapTimeMs:  lap.LapTimeMs,
			LapTime:    model.FormatLapTime(lap.LapTimeMs),
			Sector1Ms:  lap.Sector1Ms,
			Sector2Ms:  lap.Sector2Ms,
			Sector3Ms:  lap.Sector3Ms,
			ValidFlags: lap.ValidFlags,
			TsMs:       nowMs,
		})
	}

	// the accepted snapshot replaces the lap list wholesale
	if len(newLaps) > 0 {
		d.Laps = newLaps
		maxLap := 0
		for _, lap := range newLaps {
			if lap.LapNumber > maxLap {
				maxLap = lap.LapNumber
			}
		}
		d.lastRecordedLapNumber = maxLap
		next := maxLap + 1
		d.lastCurrentLapNum = &next
	}

	if len(sh.TyreStints) > 0 {
		stints := make([]TyreStintRecord, 0, len(sh.TyreStints))
		for _, ts := range sh.TyreStints {
			stints = append(stints, TyreStintRecord{
				StintIndex: ts.StintIndex,
				EndLap:     ts.EndLap,
				TyreActual: ts.TyreActual,
				TyreVisual: ts.TyreVisual,
			})
		}
		d.TyreStints = stints
	}

	best := sh.Best
	d.Best = &best

	d.lastHistoryHash = &hash
	d.lastHistoryUpdateMs = nowMs
}

//nolint:funlen,gocognit,cyclop // rising-edge detection over all 22 rows
func (s *SessionStore) ingestLapData(sess *SessionRun, rows []packets.LapDataEntry, nowMs int64) {
	for i := range rows {
		row := &rows[i]
		d := s.ensureDriver(sess, row.CarIdx)
		if d == nil {
			if row.CarPosition > 0 || row.CurrentLapNum > 0 {
				if d = s.earlyRegisterDriver(sess, row.CarIdx); d != nil {
					s.Diag.LdEarlyRegister++
				}
			}
			if d == nil {
				s.Diag.LdNoDriver++
				continue
			}
		}

		if row.GridPosition > 0 {
			d.GridPosition = row.GridPosition
		}

		s.trackPitStops(d, row, nowMs)

		currentLap := row.CurrentLapNum
		lastLapMs := row.LastLapTimeMs

		if lastLapMs >= minPlausibleLapMs && lastLapMs <= maxPlausibleLapMs {
			d.LastSeenLapTimeMs = lastLapMs
		}

		switch {
		case d.lastCurrentLapNum == nil:
			s.Diag.LdNoPrevLap++
		case currentLap > *d.lastCurrentLapNum:
			completed := currentLap - 1
			s.snapshotTyreWear(d, completed)
			s.snapshotDamage(d, completed)
			s.recordFallbackLap(d, completed, row, nowMs)
		}

		if currentLap >= 0 {
			cl := currentLap
			d.lastCurrentLapNum = &cl
		}

		if row.TotalWarnings > d.LastTotalWarnings ||
			row.CornerCuttingWarnings > d.LastCornerCuttingWarnings {
			d.LastTotalWarnings = row.TotalWarnings
			d.LastCornerCuttingWarnings = row.CornerCuttingWarnings
		}
	}
}

// trackPitStops appends a timestamped pit event on a rising pit-stop
// counter. Counter values above 10 are treated as garbage.
func (s *SessionStore) trackPitStops(d *DriverRun, row *packets.LapDataEntry, nowMs int64) {
	numPit := row.NumPitStops
	if numPit < 0 || numPit > 10 {
		return
	}
	if d.lastNumPitStops == nil {
		d.lastNumPitStops = &numPit
		return
	}
	if numPit > *d.lastNumPitStops {
		if len(d.PitStops) < maxPitEventsPerDriver {
			rec := PitStopRecord{NumPitStops: numPit, TsMs: nowMs}
			if row.CurrentLapNum > 0 {
				lap := row.CurrentLapNum
				rec.LapNum = &lap
			}
			d.PitStops = append(d.PitStops, rec)
		}
		d.lastNumPitStops = &numPit
	}
}

func (s *SessionStore) snapshotTyreWear(d *DriverRun, completedLap int) {
	if completedLap <= 0 || d.LatestTyreWear == nil {
		return
	}
	for _, tw := range d.TyreWearPerLap {
		if tw.LapNumber == completedLap {
			return
		}
	}
	w := d.LatestTyreWear
	d.TyreWearPerLap = append(d.TyreWearPerLap, TyreWearSnapshot{
		LapNumber: completedLap,
		RL:        w.RL,
		RR:        w.RR,
		FL:        w.FL,
		FR:        w.FR,
		Avg:       roundTenth((w.RL + w.RR + w.FL + w.FR) / 4),
	})
}

func (s *SessionStore) snapshotDamage(d *DriverRun, completedLap int) {
	if completedLap <= 0 || d.LatestDamage == nil {
		return
	}
	for _, dmg := range d.DamagePerLap {
		if dmg.LapNumber == completedLap {
			return
		}
	}
	snap := *d.LatestDamage
	snap.LapNumber = completedLap
	d.DamagePerLap = append(d.DamagePerLap, snap)
}

// recordFallbackLap appends a lap from live lap data when session history
// has not delivered it, deriving sector 3 from the remainder.
func (s *SessionStore) recordFallbackLap(
	d *DriverRun, lapNumber int, row *packets.LapDataEntry, nowMs int64,
) {
	lastLapMs := row.LastLapTimeMs
	switch {
	case lastLapMs <= 0:
		s.Diag.LdTimeZero++
	case lapNumber <= d.lastRecordedLapNumber:
		s.Diag.LdAlreadyExists++
	case lastLapMs < minPlausibleLapMs || lastLapMs > maxPlausibleLapMs:
		s.Diag.LdSanityFail++
	default:
		for _, lap := range d.Laps {
			if lap.LapNumber == lapNumber {
				s.Diag.LdAlreadyExists++
				return
			}
		}
		s1, s2 := row.Sector1TimeMs, row.Sector2TimeMs
		s3 := lastLapMs - s1 - s2
		if s3 < 0 {
			s3 = 0
		}
		d.Laps = append(d.Laps, LapRecord{
			LapNumber: lapNumber,
			LapTimeMs: lastLapMs,
			LapTime:   model.FormatLapTime(lastLapMs),
			Sector1Ms: s1,
			Sector2Ms: s2,
			Sector3Ms: s3,
			TsMs:      nowMs,
		})
		s.Diag.LdLapRecorded++
		d.lastRecordedLapNumber = lapNumber
		s.lg.Debug("fallback lap recorded",
			log.String("tag", d.Tag), log.Int("lap", lapNumber))
	}
}

func (s *SessionStore) ingestCarDamage(sess *SessionRun, rows []packets.CarDamageEntry) {
	for i := range rows {
		row := &rows[i]
		d := s.ensureDriver(sess, row.CarIdx)
		if d == nil {
			continue
		}
		wear := row.TyreWear
		d.LatestTyreWear = &wear
		d.LatestDamage = &DamageSnapshot{
			WingFL:    row.Wing.FrontLeft,
			WingFR:    row.Wing.FrontRight,
			WingRear:  row.Wing.Rear,
			TyreDmgRL: int(row.TyresDamage.RL),
			TyreDmgRR: int(row.TyresDamage.RR),
			TyreDmgFL: int(row.TyresDamage.FL),
			TyreDmgFR: int(row.TyresDamage.FR),
		}
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
