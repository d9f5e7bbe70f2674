package finalize

import (
	"sort"

	"github.com/samber/lo"

	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
)

const wingRepairThreshold = 10

//nolint:funlen,gocognit // flattens every per-driver series into the payload
func finalizeDriver(
	dr *store.DriverRun, sess *store.SessionRun,
	idxToTag map[int]string,
	globalTeams map[string]*packets.ParticipantEntry,
) *model.Driver {
	sortedLaps := append([]store.LapRecord(nil), dr.Laps...)
	sort.SliceStable(sortedLaps, func(i, j int) bool {
		return sortedLaps[i].LapNumber < sortedLaps[j].LapNumber
	})
	laps := lo.Map(sortedLaps, func(lap store.LapRecord, _ int) model.Lap {
		valid := lap.ValidFlags&0x01 != 0
		flags := []string{"InvalidOrNotSet"}
		if valid {
			flags = []string{"Valid"}
		}
		lapTime := lap.LapTime
		if lapTime == "" {
			lapTime = model.FormatLapTime(lap.LapTimeMs)
		}
		return model.Lap{
			LapNumber: lap.LapNumber,
			LapTimeMs: lap.LapTimeMs,
			LapTime:   lapTime,
			Sector1Ms: lap.Sector1Ms,
			Sector2Ms: lap.Sector2Ms,
			Sector3Ms: lap.Sector3Ms,
			Valid:     valid,
			Flags:     flags,
			TsMs:      lap.TsMs,
		}
	})

	// endLap 255 marks an unset stint slot
	var stints []model.TyreStint
	for _, ts := range dr.TyreStints {
		if ts.EndLap >= 255 {
			continue
		}
		stint := model.TyreStint{
			EndLap:     ts.EndLap,
			TyreActual: "Unknown",
			TyreVisual: "Unknown",
		}
		if ts.TyreActual >= 0 {
			stint.TyreActualID = intPtr(ts.TyreActual)
			stint.TyreActual = lookup.NameOrDefault(lookup.TyreActual, ts.TyreActual, "Tyre")
		}
		if ts.TyreVisual >= 0 {
			stint.TyreVisualID = intPtr(ts.TyreVisual)
			stint.TyreVisual = lookup.NameOrDefault(lookup.TyreVisual, ts.TyreVisual, "Tyre")
		}
		stints = append(stints, stint)
	}

	penalties, collisions := splitPenaltyTimelines(dr.PenaltySnapshots, idxToTag)

	pits := lo.Map(dr.PitStops, func(ps store.PitStopRecord, _ int) model.PitStop {
		return model.PitStop{NumPitStops: ps.NumPitStops, TsMs: ps.TsMs, LapNum: ps.LapNum}
	})

	wearSorted := append([]store.TyreWearSnapshot(nil), dr.TyreWearPerLap...)
	sort.SliceStable(wearSorted, func(i, j int) bool {
		return wearSorted[i].LapNumber < wearSorted[j].LapNumber
	})
	wear := lo.Map(wearSorted, func(tw store.TyreWearSnapshot, _ int) model.TyreWear {
		return model.TyreWear{
			LapNumber: tw.LapNumber,
			RL:        tw.RL, RR: tw.RR, FL: tw.FL, FR: tw.FR,
			Avg: tw.Avg,
		}
	})

	dmgSorted := append([]store.DamageSnapshot(nil), dr.DamagePerLap...)
	sort.SliceStable(dmgSorted, func(i, j int) bool {
		return dmgSorted[i].LapNumber < dmgSorted[j].LapNumber
	})
	damage := lo.Map(dmgSorted, func(d store.DamageSnapshot, _ int) model.Damage {
		return model.Damage{
			LapNumber: d.LapNumber,
			WingFL:    d.WingFL, WingFR: d.WingFR, WingRear: d.WingRear,
			TyreDmgRL: d.TyreDmgRL, TyreDmgRR: d.TyreDmgRR,
			TyreDmgFL: d.TyreDmgFL, TyreDmgFR: d.TyreDmgFR,
		}
	})

	repairs := wingRepairs(dmgSorted)

	team := teamForDriver(sess, dr.CarIdx, dr.Tag, globalTeams)

	out := &model.Driver{
		TeamName:              resolveTeamName(team),
		IsPlayer:              sess.PlayerCarIndex >= 0 && dr.CarIdx == sess.PlayerCarIndex,
		YourTelemetry:         "restricted",
		Laps:                  laps,
		TyreStints:            stints,
		TyreWearPerLap:        wear,
		DamagePerLap:          damage,
		WingRepairs:           repairs,
		Best:                  dr.Best,
		PitStopsTimeline:      pits,
		PenaltiesTimeline:     penalties,
		CollisionsTimeline:    collisions,
		TotalWarnings:         dr.LastTotalWarnings,
		CornerCuttingWarnings: dr.LastCornerCuttingWarnings,
	}
	if team != nil {
		out.TeamID = intPtr(team.TeamID)
		out.MyTeam = team.MyTeam
		out.RaceNumber = intPtr(team.RaceNumber)
		ai := team.AiControlled
		out.AIControlled = &ai
		out.Platform = lookup.NameOrDefault(lookup.Platforms, team.Platform, "Platform")
		out.ShowOnlineNames = team.ShowOnlineNames != 0
		out.Nationality = team.Nationality
		if team.YourTelemetry == 1 {
			out.YourTelemetry = "public"
		}
	}
	return out
}

// splitPenaltyTimelines separates collision snapshots from penalties and
// resolves the other vehicle to a tag where known.
func splitPenaltyTimelines(
	snapshots []store.PenaltySnapshot, idxToTag map[int]string,
) (penalties []model.Penalty, collisions []model.Collision) {
	for _, ps := range snapshots {
		if ps.EventCode == packets.CodeCollision {
			coll := model.Collision{TsMs: ps.TsMs, Type: "collision"}
			if ps.OtherVehicleIdx != nil {
				coll.OtherVehicleTag = idxToTag[*ps.OtherVehicleIdx]
			}
			collisions = append(collisions, coll)
			continue
		}
		entry := model.Penalty{TsMs: ps.TsMs}
		if ps.PenaltyType != nil {
			pt := *ps.PenaltyType
			entry.PenaltyType = ps.PenaltyType
			entry.PenaltyTypeName = lookup.NameOrDefault(lookup.PenaltyType, pt, "PenaltyType")
			entry.Category = penaltyCategory(pt)
		}
		if ps.InfringementType != nil {
			entry.InfringementType = ps.InfringementType
			entry.InfringementTypeName = lookup.NameOrDefault(
				lookup.InfringementType, *ps.InfringementType, "Infringement")
		}
		if ps.TimeSec != nil && *ps.TimeSec != 255 {
			entry.TimeSec = ps.TimeSec
		}
		entry.LapNum = ps.LapNum
		if ps.OtherVehicleIdx != nil {
			entry.OtherDriver = idxToTag[*ps.OtherVehicleIdx]
		}
		penalties = append(penalties, entry)
	}
	return penalties, collisions
}

func penaltyCategory(penaltyType int) string {
	switch penaltyType {
	case 5:
		return "warning"
	case 6:
		return "disqualification"
	case 16:
		return "retired"
	case 0, 1, 4:
		return "penalty"
	default:
		return "other"
	}
}

// wingRepairs derives repair events from lap-over-lap wing damage drops of
// at least the repair threshold.
func wingRepairs(dmgSorted []store.DamageSnapshot) []model.WingRepair {
	var out []model.WingRepair
	check := func(prev, curr, lap int, wing string) {
		if drop := prev - curr; drop >= wingRepairThreshold {
			out = append(out, model.WingRepair{
				Lap:          lap,
				Wing:         wing,
				DamageBefore: prev,
				DamageAfter:  curr,
				Repaired:     drop,
			})
		}
	}
	for i := 1; i < len(dmgSorted); i++ {
		prev, curr := dmgSorted[i-1], dmgSorted[i]
		check(prev.WingFL, curr.WingFL, curr.LapNumber, "frontLeftWing")
		check(prev.WingFR, curr.WingFR, curr.LapNumber, "frontRightWing")
		check(prev.WingRear, curr.WingRear, curr.LapNumber, "rearWing")
	}
	return out
}
