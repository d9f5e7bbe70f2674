package finalize

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
)

const (
	minCleanLaps   = 5
	cleanLapFactor = 1.15
)

func isFinishedStatus(status string) bool {
	return status == "Finished" || status == "FinishedOrUnknown"
}

func computeAwards(
	results []*model.Result, events []model.Event, drivers map[string]*model.Driver,
) model.Awards {
	return model.Awards{
		FastestLap:          fastestLapAward(results, events),
		MostPositionsGained: mostPositionsGained(results),
		MostConsistent:      mostConsistent(results, drivers),
	}
}

// fastestLapAward prefers the game's last fastest-lap event (the final
// holder of the overall fastest lap); without one, the best result row wins.
func fastestLapAward(results []*model.Result, events []model.Event) *model.FastestLapAward {
	var lastFtlp *model.Event
	for i := range events {
		if events[i].Code == packets.CodeFastestLap {
			lastFtlp = &events[i]
		}
	}

	if lastFtlp != nil {
		data := lastFtlp.Data
		if data == nil || data.VehicleTag == "" || data.LapTimeSec == nil {
			return nil
		}
		ms := int(*data.LapTimeSec * 1000)
		if ms <= 0 {
			return nil
		}
		return &model.FastestLapAward{
			Tag:    data.VehicleTag,
			TimeMs: ms,
			Time:   model.FormatLapTime(ms),
		}
	}

	var best *model.Result
	bestMs := math.MaxInt
	for _, r := range results {
		if r.BestLapTimeMs != nil && *r.BestLapTimeMs > 0 && *r.BestLapTimeMs < bestMs {
			bestMs = *r.BestLapTimeMs
			best = r
		}
	}
	if best == nil {
		return nil
	}
	return &model.FastestLapAward{
		Tag:    best.Tag,
		TimeMs: bestMs,
		Time:   model.FormatLapTime(bestMs),
	}
}

// mostPositionsGained rewards the finisher with the largest grid-to-finish
// gain; ties break on the better finish, and a non-positive best gain
// withholds the award.
func mostPositionsGained(results []*model.Result) *model.MostPositionsGainedAward {
	gains := lo.FilterMap(results, func(r *model.Result, _ int) (model.MostPositionsGainedAward, bool) {
		if r.Grid == nil || *r.Grid <= 0 || r.Position <= 0 || !isFinishedStatus(r.Status) {
			return model.MostPositionsGainedAward{}, false
		}
		return model.MostPositionsGainedAward{
			Tag:    r.Tag,
			Grid:   *r.Grid,
			Finish: r.Position,
			Gained: *r.Grid - r.Position,
		}, true
	})
	if len(gains) == 0 {
		return nil
	}
	sort.SliceStable(gains, func(i, j int) bool {
		if gains[i].Gained != gains[j].Gained {
			return gains[i].Gained > gains[j].Gained
		}
		return gains[i].Finish < gains[j].Finish
	})
	if gains[0].Gained <= 0 {
		return nil
	}
	winner := gains[0]
	return &winner
}

// mostConsistent picks, among finishers at or above the median finishing
// position, the driver with the lowest population standard deviation over
// clean laps: laps after the first, within 115% of that driver's median.
//
//nolint:gocognit // candidate filtering applies every eligibility rule in turn
func mostConsistent(
	results []*model.Result, drivers map[string]*model.Driver,
) *model.MostConsistentAward {
	if len(results) == 0 || len(drivers) == 0 {
		return nil
	}

	var finishedPositions []int
	posByTag := map[string]int{}
	for _, r := range results {
		if isFinishedStatus(r.Status) && r.Position > 0 {
			finishedPositions = append(finishedPositions, r.Position)
		}
		posByTag[r.Tag] = r.Position
	}
	sort.Ints(finishedPositions)
	cutoff := 999
	if len(finishedPositions) > 0 {
		cutoff = finishedPositions[len(finishedPositions)/2]
	}

	var best *model.MostConsistentAward
	bestStdDev := math.MaxInt

	tags := lo.Keys(drivers)
	sort.Strings(tags)
	for _, tag := range tags {
		if pos, ok := posByTag[tag]; ok && pos > cutoff {
			continue
		}
		driver := drivers[tag]
		if len(driver.Laps) < minCleanLaps {
			continue
		}

		var rawTimes []int
		for _, lap := range driver.Laps {
			if lap.LapNumber <= 1 || lap.LapTimeMs <= 0 {
				continue
			}
			rawTimes = append(rawTimes, lap.LapTimeMs)
		}
		if len(rawTimes) < minCleanLaps {
			continue
		}

		sort.Ints(rawTimes)
		median := rawTimes[len(rawTimes)/2]
		threshold := int(float64(median) * cleanLapFactor)
		clean := lo.Filter(rawTimes, func(t int, _ int) bool { return t <= threshold })
		if len(clean) < minCleanLaps {
			continue
		}

		stdDev := int(math.Round(populationStdDev(clean)))
		if stdDev < bestStdDev {
			bestStdDev = stdDev
			best = &model.MostConsistentAward{
				Tag:       tag,
				StdDevMs:  stdDev,
				StdDev:    fmt.Sprintf("%.3f", float64(stdDev)/1000.0),
				CleanLaps: len(clean),
			}
		}
	}
	return best
}

func populationStdDev(values []int) float64 {
	mean := float64(lo.Sum(values)) / float64(len(values))
	variance := 0.0
	for _, v := range values {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
