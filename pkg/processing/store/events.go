package store

import (
	"github.com/overtake/league-capture/log"
	"github.com/overtake/league-capture/pkg/packets"
)

// high-frequency chatter that never contributes to the result document
var ignoredEventCodes = map[string]struct{}{
	"SPTP": {},
	"DRSE": {},
	"DRSD": {},
	"STLG": {},
	"BUTN": {},
}

//nolint:gocognit,cyclop // per-code dispatch over the wire protocol
func (s *SessionStore) ingestEvent(sess *SessionRun, evt *packets.Event, nowMs int64) {
	code := evt.Code
	if len(code) != 4 {
		return
	}
	if _, skip := ignoredEventCodes[code]; skip {
		return
	}
	if len(sess.Events) >= maxEventsPerSession {
		return
	}

	stored := StoredEvent{Code: code, TsMs: nowMs, Data: evt}
	sess.Events = append(sess.Events, stored)

	switch code {
	case packets.CodeSessionEnd:
		sess.SessionEndedAtMs = &nowMs

	case packets.CodeSessionStart:
		// offline restarts replay the same session slot; wipe the previous
		// attempt. Online sessions keep their history on a benign SSTA.
		isOnline := sess.NetworkGame == 1
		hasData := len(sess.Drivers) > 0 || len(sess.Events) > 1
		if hasData && !isOnline {
			s.lg.Info("session restarted, clearing state",
				log.String("sessionUID", sess.SessionUID))
			for _, dr := range sess.Drivers {
				dr.Reset()
			}
			sess.Events = []StoredEvent{stored}
			sess.FinalClassification = nil
			sess.SessionEndedAtMs = nil
			sess.NumSafetyCarDeployments = 0
			sess.NumVSCDeployments = 0
		}

	case packets.CodeSafetyCar:
		if evt.SafetyCar != nil &&
			evt.SafetyCar.SafetyCarType == 1 && evt.SafetyCar.EventType == 0 {
			sess.NumSafetyCarDeployments++
		}

	case packets.CodePenalty:
		if evt.Penalty == nil {
			return
		}
		pen := evt.Penalty
		d := s.ensureDriver(sess, pen.VehicleIdx)
		if d != nil && len(d.PenaltySnapshots) < maxPenaltiesPerDriver {
			pt, it := pen.PenaltyType, pen.InfringementType
			other, timeSec := pen.OtherVehicleIdx, pen.TimeSec
			lapNum, places := pen.LapNum, pen.PlacesGained
			d.PenaltySnapshots = append(d.PenaltySnapshots, PenaltySnapshot{
				TsMs:             nowMs,
				PenaltyType:      &pt,
				InfringementType: &it,
				OtherVehicleIdx:  &other,
				TimeSec:          &timeSec,
				LapNum:           &lapNum,
				PlacesGained:     &places,
			})
		}

	case packets.CodeCollision:
		if evt.Collision == nil {
			return
		}
		v1, v2 := evt.Collision.Vehicle1Idx, evt.Collision.Vehicle2Idx
		s.recordCollision(sess, v1, v2, nowMs)
		s.recordCollision(sess, v2, v1, nowMs)
	}
}

func (s *SessionStore) recordCollision(sess *SessionRun, carIdx, otherIdx int, nowMs int64) {
	d := s.ensureDriver(sess, carIdx)
	if d == nil || len(d.PenaltySnapshots) >= maxPenaltiesPerDriver {
		return
	}
	other := otherIdx
	d.PenaltySnapshots = append(d.PenaltySnapshots, PenaltySnapshot{
		TsMs:            nowMs,
		EventCode:       packets.CodeCollision,
		OtherVehicleIdx: &other,
	})
}

func (s *SessionStore) ingestFinalClassification(
	sess *SessionRun, fc *packets.FinalClassification, nowMs int64,
) {
	sess.FinalClassification = fc
	sess.SessionEndedAtMs = &nowMs
	if len(sess.Events) < maxEventsPerSession {
		sess.Events = append(sess.Events, StoredEvent{
			Code: "FINAL_CLASSIFICATION",
			TsMs: nowMs,
		})
	}
}
