package finalize

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
)

func sessionTypeName(sess *store.SessionRun) string {
	if sess.SessionType == nil {
		return ""
	}
	return lookup.NameOrDefault(lookup.SessionType, *sess.SessionType, "S")
}

func isRaceType(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "race") || strings.Contains(lower, "sprint")
}

func isQualiType(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "qualifying") || strings.Contains(lower, "shootout")
}

//nolint:funlen // assembles every section of the per-session payload
func finalizeSession(
	sid string, sess *store.SessionRun,
	previous []*model.Session,
	globalTeams map[string]*packets.ParticipantEntry,
) *model.Session {
	idxToTag := make(map[int]string, len(sess.TagsByCarIdx))
	for idx, tag := range sess.TagsByCarIdx {
		idxToTag[idx] = tag
	}

	bestByTag := resolveBestLaps(sess)

	stName := sessionTypeName(sess)
	results := classificationResults(sess, bestByTag, globalTeams)
	if len(results) == 0 && len(sess.Drivers) > 0 {
		switch {
		case isRaceType(stName):
			results = raceFallbackResults(sess, bestByTag, previous, globalTeams)
		case isQualiType(stName):
			results = qualiFallbackResults(sess, bestByTag, globalTeams)
		}
	}

	if isRaceType(stName) {
		backfillGrid(results, sess, previous)
	}

	renumberPositions(results)

	drivers := map[string]*model.Driver{}
	for _, tag := range sess.DriverTags() {
		dr := sess.Drivers[tag]
		if isPhantomEntry(tag, dr, sess) {
			continue
		}
		drivers[tag] = finalizeDriver(dr, sess, idxToTag, globalTeams)
	}

	events := finalizeEvents(sess, idxToTag)

	timeline := lo.Map(sess.WeatherTimeline,
		func(wt store.WeatherTimelineEntry, _ int) model.WeatherSample {
			w := wt.Weather
			return model.WeatherSample{
				TsMs:       wt.TsMs,
				Weather:    lookup.MakeLabel(lookup.Weather, &w, "Weather"),
				TrackTempC: wt.TrackTempC,
				AirTempC:   wt.AirTempC,
			}
		})

	forecast := lo.Map(sess.WeatherForecast,
		func(fc store.ForecastRecord, _ int) model.ForecastEntry {
			w := fc.Weather
			return model.ForecastEntry{
				TimeOffsetMin:  fc.TimeOffsetMin,
				Weather:        lookup.MakeLabel(lookup.Weather, &w, "Weather"),
				TrackTempC:     fc.TrackTempC,
				AirTempC:       fc.AirTempC,
				RainPercentage: fc.RainPercentage,
			}
		})

	scLaps, vscLaps := lapsUnderSafetyCar(events, results)

	return &model.Session{
		SessionUID:       sid,
		SessionType:      lookup.MakeLabel(lookup.SessionType, sess.SessionType, "SessionType"),
		Track:            lookup.MakeLabel(lookup.Tracks, sess.TrackID, "Track"),
		Weather:          lookup.MakeLabel(lookup.Weather, sess.Weather, "Weather"),
		TrackTempC:       sess.LatestTrackTempC,
		AirTempC:         sess.LatestAirTempC,
		WeatherTimeline:  timeline,
		WeatherForecast:  forecast,
		LastPacketMs:     sess.LastPacketMs,
		SessionEndedAtMs: sess.SessionEndedAtMs,
		SafetyCar: model.SafetyCar{
			Status:         lookup.MakeLabel(lookup.SafetyCarStatus, sess.SafetyCarStatus, "SafetyCar"),
			FullDeploys:    sess.NumSafetyCarDeployments,
			VSCDeploys:     sess.NumVSCDeployments,
			RedFlagPeriods: sess.NumRedFlagPeriods,
			LapsUnderSC:    scLaps,
			LapsUnderVSC:   vscLaps,
		},
		NetworkGame: sess.NetworkGame == 1,
		Awards:      computeAwards(results, events, drivers),
		Results:     results,
		Drivers:     drivers,
		Events:      events,
	}
}

// resolveBestLaps resolves each driver's best lap with priority: fastest
// accepted lap, reported running best, last seen live lap time.
func resolveBestLaps(sess *store.SessionRun) map[string]int {
	out := map[string]int{}
	for _, tag := range sess.DriverTags() {
		dr := sess.Drivers[tag]
		best := 0
		for _, lap := range dr.Laps {
			if lap.LapTimeMs > 0 && (best == 0 || lap.LapTimeMs < best) {
				best = lap.LapTimeMs
			}
		}
		if best == 0 && dr.Best != nil && dr.Best.BestLapTimeMs != nil && *dr.Best.BestLapTimeMs > 0 {
			best = *dr.Best.BestLapTimeMs
		}
		if best == 0 && dr.LastSeenLapTimeMs > 0 {
			best = dr.LastSeenLapTimeMs
		}
		if best > 0 {
			out[tag] = best
		}
	}
	return out
}

// renumberPositions sorts by position and reassigns 1..N. The sort is
// stable so ties keep their original order.
func renumberPositions(results []*model.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})
	for i, r := range results {
		r.Position = i + 1
	}
}

func resolveTeamName(team *packets.ParticipantEntry) string {
	if team == nil {
		return ""
	}
	if team.MyTeam {
		return "MyTeam"
	}
	return lookup.NameOrDefault(lookup.Teams, team.TeamID, "Team")
}

func teamForDriver(
	sess *store.SessionRun, carIdx int, tag string,
	globalTeams map[string]*packets.ParticipantEntry,
) *packets.ParticipantEntry {
	if entry, ok := sess.TeamByCarIdx[carIdx]; ok && entry != nil {
		return entry
	}
	return globalTeams[tag]
}
