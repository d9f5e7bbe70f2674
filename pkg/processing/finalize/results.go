package finalize

import (
	"fmt"
	"sort"

	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
)

// classificationResults builds results from the final classification
// snapshot: one row per placed, deduplicated, non-phantom entry.
//
//nolint:gocognit,cyclop // row filtering mirrors the classification rules one by one
func classificationResults(
	sess *store.SessionRun,
	bestByTag map[string]int,
	globalTeams map[string]*packets.ParticipantEntry,
) []*model.Result {
	if sess.FinalClassification == nil {
		return nil
	}

	var out []*model.Result
	seen := map[string]bool{}
	for i := range sess.FinalClassification.Rows {
		row := &sess.FinalClassification.Rows[i]
		if row.Position <= 0 {
			continue
		}
		tag, ok := sess.TagsByCarIdx[row.CarIdx]
		if !ok {
			tag = fmt.Sprintf("Car%d", row.CarIdx)
		}
		if _, known := sess.Drivers[tag]; ghostCarRe.MatchString(tag) && !known {
			continue
		}
		if seen[tag] {
			continue
		}
		seen[tag] = true
		dr, known := sess.Drivers[tag]
		if !known {
			continue
		}
		if isPhantomEntry(tag, dr, sess) {
			continue
		}

		best := bestByTag[tag]
		if best == 0 && row.BestLapTimeMs > 0 {
			best = row.BestLapTimeMs
		}

		var totalMs *int
		if row.TotalRaceTimeSec > 0 {
			v := int(row.TotalRaceTimeSec * 1000)
			totalMs = &v
		}

		status, ok := lookup.ResultStatus[row.ResultStatus]
		if !ok {
			status = "FinishedOrUnknown"
		}

		team := teamForDriver(sess, row.CarIdx, tag, globalTeams)

		res := &model.Result{
			Position:         row.Position,
			Tag:              tag,
			TeamName:         resolveTeamName(team),
			NumLaps:          intPtr(row.NumLaps),
			BestLapTime:      model.FormatLapTime(best),
			TotalTime:        "",
			PenaltiesTimeSec: intPtr(row.PenaltiesTimeSec),
			PitStops:         intPtr(row.NumPitStops),
			Status:           status,
			NumPenalties:     intPtr(row.NumPenalties),
		}
		if team != nil {
			res.TeamID = intPtr(team.TeamID)
		}
		if row.GridPosition > 0 {
			res.Grid = intPtr(row.GridPosition)
		}
		if best > 0 {
			res.BestLapTimeMs = intPtr(best)
		}
		if totalMs != nil {
			res.TotalTimeMs = totalMs
			res.TotalTime = model.FormatLapTime(*totalMs)
		}
		out = append(out, res)
	}
	return out
}

// raceFallbackResults reconstructs a race classification from lap data when
// the game never sent one: ranked by laps descending, total time ascending;
// more than one lap short of the leader counts as a retirement.
func raceFallbackResults(
	sess *store.SessionRun,
	bestByTag map[string]int,
	previous []*model.Session,
	globalTeams map[string]*packets.ParticipantEntry,
) []*model.Result {
	maxLaps := 0
	for _, dr := range sess.Drivers {
		if len(dr.Laps) > maxLaps {
			maxLaps = len(dr.Laps)
		}
	}

	qualiGrid := qualiGridFromPrevious(previous)

	var out []*model.Result
	for _, tag := range sess.DriverTags() {
		dr := sess.Drivers[tag]
		if isPhantomEntry(tag, dr, sess) {
			continue
		}

		numLaps := len(dr.Laps)
		totalMs := 0
		for _, lap := range dr.Laps {
			totalMs += lap.LapTimeMs
		}

		best := bestByTag[tag]

		status := "Finished"
		if maxLaps > 0 && numLaps < maxLaps-1 {
			status = "DidNotFinish"
		}

		team := teamForDriver(sess, dr.CarIdx, tag, globalTeams)

		grid := qualiGrid[tag]
		if grid <= 0 && dr.GridPosition > 0 {
			grid = dr.GridPosition
		}

		res := &model.Result{
			Tag:              tag,
			TeamName:         resolveTeamName(team),
			NumLaps:          intPtr(numLaps),
			BestLapTime:      model.FormatLapTime(best),
			TotalTime:        model.FormatLapTime(totalMs),
			PenaltiesTimeSec: intPtr(0),
			PitStops:         intPtr(len(dr.PitStops)),
			Status:           status,
			NumPenalties:     intPtr(0),
		}
		if team != nil {
			res.TeamID = intPtr(team.TeamID)
		}
		if grid > 0 {
			res.Grid = intPtr(grid)
		}
		if best > 0 {
			res.BestLapTimeMs = intPtr(best)
		}
		if totalMs > 0 {
			res.TotalTimeMs = intPtr(totalMs)
		}
		out = append(out, res)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if *out[i].NumLaps != *out[j].NumLaps {
			return *out[i].NumLaps > *out[j].NumLaps
		}
		return totalOrHuge(out[i]) < totalOrHuge(out[j])
	})
	for i, r := range out {
		r.Position = i + 1
	}
	return out
}

// qualiFallbackResults ranks drivers by best lap ascending, no-time entries
// last. The race-only columns stay unset.
func qualiFallbackResults(
	sess *store.SessionRun,
	bestByTag map[string]int,
	globalTeams map[string]*packets.ParticipantEntry,
) []*model.Result {
	var out []*model.Result
	for _, tag := range sess.DriverTags() {
		dr := sess.Drivers[tag]
		if isPhantomEntry(tag, dr, sess) {
			continue
		}

		best := bestByTag[tag]
		team := teamForDriver(sess, dr.CarIdx, tag, globalTeams)

		status := "NoTime"
		if best > 0 {
			status = "Finished"
		}

		res := &model.Result{
			Tag:         tag,
			TeamName:    resolveTeamName(team),
			BestLapTime: model.FormatLapTime(best),
			TotalTime:   "",
			Status:      status,
		}
		if team != nil {
			res.TeamID = intPtr(team.TeamID)
		}
		if best > 0 {
			res.BestLapTimeMs = intPtr(best)
		}
		out = append(out, res)
	}

	sort.SliceStable(out, func(i, j int) bool {
		iNone := out[i].BestLapTimeMs == nil
		jNone := out[j].BestLapTimeMs == nil
		if iNone != jNone {
			return jNone
		}
		if iNone {
			return false
		}
		return *out[i].BestLapTimeMs < *out[j].BestLapTimeMs
	})
	for i, r := range out {
		r.Position = i + 1
	}
	return out
}

// backfillGrid fills missing race grid slots: qualifying result position,
// then the live grid field, then sequentially after the highest known slot.
func backfillGrid(results []*model.Result, sess *store.SessionRun, previous []*model.Session) {
	qualiGrid := qualiGridFromPrevious(previous)

	lapDataGrid := map[string]int{}
	for _, tag := range sess.DriverTags() {
		if gp := sess.Drivers[tag].GridPosition; gp > 0 {
			lapDataGrid[tag] = gp
		}
	}

	maxKnown := 0
	for _, gp := range qualiGrid {
		if gp > maxKnown {
			maxKnown = gp
		}
	}
	for _, gp := range lapDataGrid {
		if gp > maxKnown {
			maxKnown = gp
		}
	}

	next := maxKnown + 1
	for _, res := range results {
		if res.Grid != nil {
			continue
		}
		switch {
		case qualiGrid[res.Tag] > 0:
			res.Grid = intPtr(qualiGrid[res.Tag])
		case lapDataGrid[res.Tag] > 0:
			res.Grid = intPtr(lapDataGrid[res.Tag])
		default:
			res.Grid = intPtr(next)
			next++
		}
	}
}

// qualiGridFromPrevious extracts finish positions of already-finalized
// qualifying sessions; later sessions overwrite earlier ones.
func qualiGridFromPrevious(previous []*model.Session) map[string]int {
	grid := map[string]int{}
	for _, prev := range previous {
		if !isQualiType(prev.SessionType.Name) {
			continue
		}
		for _, r := range prev.Results {
			grid[r.Tag] = r.Position
		}
	}
	return grid
}

func totalOrHuge(r *model.Result) int {
	if r.TotalTimeMs == nil {
		return 999999999
	}
	return *r.TotalTimeMs
}

func intPtr(v int) *int {
	return &v
}
