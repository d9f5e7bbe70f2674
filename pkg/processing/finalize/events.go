package finalize

import (
	"math"
	"sort"

	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
)

// finalizeEvents renders the session's event log, resolving vehicle indices
// to driver tags and attaching type names to penalties.
func finalizeEvents(sess *store.SessionRun, idxToTag map[int]string) []model.Event {
	out := make([]model.Event, 0, len(sess.Events))
	for _, ev := range sess.Events {
		if ev.Code == "" {
			continue
		}
		name, ok := lookup.EventNames[ev.Code]
		if !ok {
			name = "UnknownEvent(" + ev.Code + ")"
		}
		out = append(out, model.Event{
			TsMs: ev.TsMs,
			Code: ev.Code,
			Name: name,
			Data: eventData(ev.Data, idxToTag),
		})
	}
	return out
}

//nolint:cyclop // one branch per payload-carrying event code
func eventData(evt *packets.Event, idxToTag map[int]string) *model.EventData {
	if evt == nil {
		return nil
	}
	switch {
	case evt.Overtake != nil:
		return &model.EventData{
			OvertakerIdx: intPtr(evt.Overtake.OvertakerIdx),
			OvertakerTag: idxToTag[evt.Overtake.OvertakerIdx],
			OvertakenIdx: intPtr(evt.Overtake.OvertakenIdx),
			OvertakenTag: idxToTag[evt.Overtake.OvertakenIdx],
		}
	case evt.Penalty != nil:
		pen := evt.Penalty
		return &model.EventData{
			VehicleIdx:           intPtr(pen.VehicleIdx),
			VehicleTag:           idxToTag[pen.VehicleIdx],
			PenaltyType:          intPtr(pen.PenaltyType),
			PenaltyTypeName:      lookup.NameOrDefault(lookup.PenaltyType, pen.PenaltyType, "PenaltyType"),
			InfringementType:     intPtr(pen.InfringementType),
			InfringementTypeName: lookup.NameOrDefault(lookup.InfringementType, pen.InfringementType, "Infringement"),
			OtherVehicleIdx:      intPtr(pen.OtherVehicleIdx),
			OtherVehicleTag:      idxToTag[pen.OtherVehicleIdx],
			TimeSec:              intPtr(pen.TimeSec),
			LapNum:               intPtr(pen.LapNum),
			PlacesGained:         intPtr(pen.PlacesGained),
		}
	case evt.Collision != nil:
		return &model.EventData{
			Vehicle1Idx: intPtr(evt.Collision.Vehicle1Idx),
			Vehicle1Tag: idxToTag[evt.Collision.Vehicle1Idx],
			Vehicle2Idx: intPtr(evt.Collision.Vehicle2Idx),
			Vehicle2Tag: idxToTag[evt.Collision.Vehicle2Idx],
		}
	case evt.Retirement != nil:
		return &model.EventData{
			VehicleIdx: intPtr(evt.Retirement.VehicleIdx),
			VehicleTag: idxToTag[evt.Retirement.VehicleIdx],
			Reason:     intPtr(evt.Retirement.Reason),
		}
	case evt.FastestLap != nil:
		sec := evt.FastestLap.LapTimeSec
		return &model.EventData{
			VehicleIdx: intPtr(evt.FastestLap.VehicleIdx),
			VehicleTag: idxToTag[evt.FastestLap.VehicleIdx],
			LapTimeSec: &sec,
		}
	case evt.SafetyCar != nil:
		return &model.EventData{
			SafetyCarType: intPtr(evt.SafetyCar.SafetyCarType),
			EventType:     intPtr(evt.SafetyCar.EventType),
		}
	default:
		return nil
	}
}

type scPeriod struct {
	startTs int64
	endTs   int64
	scType  int // 1 full safety car, 2 virtual
}

// lapsUnderSafetyCar maps safety-car time intervals onto lap numbers by
// linear interpolation between the lights-out and chequered-flag
// timestamps, falling back to the first event and session end when the
// game omits the dedicated markers.
//
//nolint:gocognit,cyclop // interval collection walks the event log once
func lapsUnderSafetyCar(events []model.Event, results []*model.Result) (sc, vsc []int) {
	sc, vsc = []int{}, []int{}

	var lgotTs, chqfTs, firstEventTs, sendTs int64
	for _, ev := range events {
		if ev.TsMs <= 0 {
			continue
		}
		switch ev.Code {
		case packets.CodeLightsOut:
			lgotTs = ev.TsMs
		case packets.CodeChequered:
			chqfTs = ev.TsMs
		case packets.CodeSessionEnd:
			sendTs = ev.TsMs
		}
		if firstEventTs == 0 || ev.TsMs < firstEventTs {
			firstEventTs = ev.TsMs
		}
	}
	if lgotTs == 0 {
		lgotTs = firstEventTs
	}
	if chqfTs == 0 {
		chqfTs = sendTs
	}

	totalLaps := 0
	for _, r := range results {
		if r.NumLaps != nil && *r.NumLaps > totalLaps {
			totalLaps = *r.NumLaps
		}
	}

	if lgotTs == 0 || chqfTs == 0 || totalLaps == 0 || chqfTs <= lgotTs {
		return sc, vsc
	}
	duration := float64(chqfTs - lgotTs)

	var periods []scPeriod
	var openStart int64
	openType := 0

	for _, ev := range events {
		switch ev.Code {
		case packets.CodeSafetyCar:
			if ev.Data == nil || ev.Data.SafetyCarType == nil {
				continue
			}
			scType := *ev.Data.SafetyCarType
			evType := -1
			if ev.Data.EventType != nil {
				evType = *ev.Data.EventType
			}
			// 0 = no SC, 3 = formation lap
			if scType == 0 || scType == 3 {
				continue
			}
			switch {
			case evType == 0 && ev.TsMs > 0: // deployed
				openStart = ev.TsMs
				openType = scType
			case (evType == 2 || evType == 3) && openStart > 0: // returned/resumed
				end := ev.TsMs
				if end <= 0 {
					end = openStart + 60000
				}
				periods = append(periods, scPeriod{openStart, end, openType})
				openStart = 0
			}
		case packets.CodeVSCStart:
			if ev.TsMs > 0 {
				openStart = ev.TsMs
				openType = 2
			}
		case packets.CodeVSCEnd:
			if openStart > 0 && openType == 2 {
				end := ev.TsMs
				if end <= 0 {
					end = openStart + 60000
				}
				periods = append(periods, scPeriod{openStart, end, 2})
				openStart = 0
			}
		}
	}

	// an interval still open at session end closes at the chequered flag
	if openStart > 0 {
		periods = append(periods, scPeriod{openStart, chqfTs, openType})
	}

	scSet, vscSet := map[int]bool{}, map[int]bool{}
	for _, p := range periods {
		startLap := interpolateLap(p.startTs, lgotTs, duration, totalLaps)
		if startLap < 1 {
			startLap = 1
		}
		endLap := interpolateLap(p.endTs, lgotTs, duration, totalLaps)
		if endLap > totalLaps {
			endLap = totalLaps
		}
		for lap := startLap; lap <= endLap; lap++ {
			switch p.scType {
			case 1:
				scSet[lap] = true
			case 2:
				vscSet[lap] = true
			}
		}
	}

	return sortedLaps(scSet), sortedLaps(vscSet)
}

func interpolateLap(ts, startTs int64, duration float64, totalLaps int) int {
	frac := float64(ts-startTs) / duration * float64(totalLaps)
	return int(math.Ceil(frac))
}

func sortedLaps(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for lap := range set {
		out = append(out, lap)
	}
	sort.Ints(out)
	return out
}
