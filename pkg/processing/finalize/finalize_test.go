//nolint:funlen,lll // ok for tests
package finalize

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overtake/league-capture/pkg/lookup"
	"github.com/overtake/league-capture/pkg/model"
	"github.com/overtake/league-capture/pkg/packets"
	"github.com/overtake/league-capture/pkg/processing/store"
)

func header(packetID int, uid uint64) *packets.Header {
	return &packets.Header{
		PacketID:       uint8(packetID),
		SessionUID:     uid,
		PlayerCarIndex: packets.InvalidCarIndex,
	}
}

func sessionPacket(uid uint64, sessionType int) *packets.Parsed {
	return &packets.Parsed{
		Header: header(packets.KindSession, uid),
		Session: &packets.Session{
			SessionType: sessionType,
			TrackID:     7,
			NetworkGame: 1,
		},
	}
}

func participants(uid uint64, tags map[int]string, entries map[int]packets.ParticipantEntry) *packets.Parsed {
	return &packets.Parsed{
		Header: header(packets.KindParticipants, uid),
		Participants: &packets.Participants{
			NumActiveCars: len(tags),
			Entries:       entries,
			Overflow:      map[int]packets.ParticipantEntry{},
			TagsByCarIdx:  tags,
		},
	}
}

func history(uid uint64, carIdx int, lapTimes ...int) *packets.Parsed {
	sh := &packets.SessionHistory{CarIdx: carIdx, NumLaps: len(lapTimes)}
	for i, ms := range lapTimes {
		sh.Laps = append(sh.Laps, packets.HistoryLap{
			LapNumber:  i + 1,
			LapTimeMs:  ms,
			Sector1Ms:  ms / 3,
			Sector2Ms:  ms / 3,
			Sector3Ms:  ms - 2*(ms/3),
			ValidFlags: 0x01,
		})
	}
	return &packets.Parsed{Header: header(packets.KindSessionHistory, uid), SessionHistory: sh}
}

// raceStore captures a three-finisher race plus one retirement and one
// phantom car slot, without a final classification packet.
func raceStore() *store.SessionStore {
	st := store.New(store.WithClock(clock.NewMock()))
	const uid = 44

	st.Ingest(sessionPacket(uid, 10))
	st.Ingest(participants(uid,
		map[int]string{0: "Alice", 1: "Bob", 2: "Cara", 3: "Dan", 9: "Ghost"},
		map[int]packets.ParticipantEntry{
			0: {TeamID: 0, RaceNumber: 11},
			1: {TeamID: 2, RaceNumber: 1},
			2: {TeamID: 4, RaceNumber: 14},
			3: {TeamID: 8, RaceNumber: 81},
			9: {TeamID: packets.TeamIDNone},
		}))

	st.Ingest(history(uid, 0, 90000, 89000, 89500))
	st.Ingest(history(uid, 1, 91000, 90000, 90500))
	st.Ingest(history(uid, 2, 92000, 92500))
	st.Ingest(history(uid, 3, 93000))

	// the phantom slot shows up in lap data but never sets a lap
	st.Ingest(&packets.Parsed{
		Header:  header(packets.KindLapData, uid),
		LapData: []packets.LapDataEntry{{CarIdx: 9}},
	})
	return st
}

func TestFinalize_NilStore(t *testing.T) {
	_, err := Finalize(nil)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestFinalize_RaceFallbackOrdering(t *testing.T) {
	doc, err := Finalize(raceStore())
	require.NoError(t, err)
	require.Len(t, doc.Sessions, 1)

	results := doc.Sessions[0].Results
	require.Len(t, results, 4)

	// laps descending, total time ascending
	assert.Equal(t, "Alice", results[0].Tag)
	assert.Equal(t, "Bob", results[1].Tag)
	assert.Equal(t, "Cara", results[2].Tag)
	assert.Equal(t, "Dan", results[3].Tag)

	for i, r := range results {
		assert.Equal(t, i+1, r.Position)
	}

	// one lap down still finishes; two laps down counts as a retirement
	assert.Equal(t, "Finished", results[0].Status)
	assert.Equal(t, "Finished", results[2].Status)
	assert.Equal(t, "DidNotFinish", results[3].Status)

	require.NotNil(t, results[0].BestLapTimeMs)
	assert.Equal(t, 89000, *results[0].BestLapTimeMs)
	require.NotNil(t, results[0].TotalTimeMs)
	assert.Equal(t, 268500, *results[0].TotalTimeMs)
	assert.Equal(t, "Mercedes-AMG Petronas", results[0].TeamName)
}

func TestFinalize_GridBackfilledSequentially(t *testing.T) {
	doc, err := Finalize(raceStore())
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, r := range doc.Sessions[0].Results {
		require.NotNil(t, r.Grid)
		assert.False(t, seen[*r.Grid], "grid slot assigned twice")
		seen[*r.Grid] = true
	}
}

func TestFinalize_PhantomEntriesDropped(t *testing.T) {
	doc, err := Finalize(raceStore())
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob", "Cara", "Dan"}, doc.Participants)
	assert.NotContains(t, doc.Sessions[0].Drivers, "Ghost")
	for _, r := range doc.Sessions[0].Results {
		assert.NotEqual(t, "Ghost", r.Tag)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	st := raceStore()

	first, err := Finalize(st)
	require.NoError(t, err)
	second, err := Finalize(st)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))
}

func TestFinalize_FastestLapFallsBackToResults(t *testing.T) {
	doc, err := Finalize(raceStore())
	require.NoError(t, err)

	award := doc.Sessions[0].Awards.FastestLap
	require.NotNil(t, award)
	assert.Equal(t, "Alice", award.Tag)
	assert.Equal(t, 89000, award.TimeMs)
	assert.Equal(t, "1:29.000", award.Time)
}

func TestFinalize_QualiFallback(t *testing.T) {
	st := store.New(store.WithClock(clock.NewMock()))
	const uid = 43

	st.Ingest(sessionPacket(uid, 5))
	st.Ingest(participants(uid,
		map[int]string{0: "Alice", 1: "Bob", 2: "Cara"},
		map[int]packets.ParticipantEntry{
			0: {TeamID: 0}, 1: {TeamID: 2}, 2: {TeamID: 4},
		}))
	st.Ingest(history(uid, 0, 90000, 88500))
	st.Ingest(history(uid, 1, 88000))
	// Cara sets no time
	st.Ingest(&packets.Parsed{
		Header:  header(packets.KindLapData, uid),
		LapData: []packets.LapDataEntry{{CarIdx: 2, CarPosition: 3}},
	})

	doc, err := Finalize(st)
	require.NoError(t, err)
	require.Len(t, doc.Sessions, 1)

	results := doc.Sessions[0].Results
	require.Len(t, results, 3)
	assert.Equal(t, "Bob", results[0].Tag)
	assert.Equal(t, "Alice", results[1].Tag)
	assert.Equal(t, "Cara", results[2].Tag)
	assert.Equal(t, "NoTime", results[2].Status)
	assert.Nil(t, results[2].BestLapTimeMs)

	// race-only columns stay unset in reconstructed qualifying results
	assert.Nil(t, results[0].NumLaps)
	assert.Nil(t, results[0].PitStops)
}

func TestFinalize_RaceGridFromQualifyingResults(t *testing.T) {
	st := store.New(store.WithClock(clock.NewMock()))

	st.Ingest(sessionPacket(43, 5))
	st.Ingest(participants(43,
		map[int]string{0: "Alice", 1: "Bob"},
		map[int]packets.ParticipantEntry{0: {TeamID: 0}, 1: {TeamID: 2}}))
	st.Ingest(history(43, 0, 90000))
	st.Ingest(history(43, 1, 88000))

	st.Ingest(sessionPacket(44, 10))
	st.Ingest(participants(44,
		map[int]string{0: "Alice", 1: "Bob"},
		map[int]packets.ParticipantEntry{0: {TeamID: 0}, 1: {TeamID: 2}}))
	st.Ingest(history(44, 0, 91000, 90000, 90500))
	st.Ingest(history(44, 1, 92000, 91500, 91800))

	doc, err := Finalize(st)
	require.NoError(t, err)
	require.Len(t, doc.Sessions, 2)

	race := doc.Sessions[1]
	assert.Equal(t, "Race", race.SessionType.Name)
	byTag := map[string]*model.Result{}
	for _, r := range race.Results {
		byTag[r.Tag] = r
	}
	// Bob out-qualified Alice
	require.NotNil(t, byTag["Bob"].Grid)
	assert.Equal(t, 1, *byTag["Bob"].Grid)
	assert.Equal(t, 2, *byTag["Alice"].Grid)
}

func TestFinalize_ClassificationResults(t *testing.T) {
	st := raceStore()
	st.Ingest(&packets.Parsed{
		Header: header(packets.KindFinalClassification, 44),
		FinalClassification: &packets.FinalClassification{
			NumCars: 3,
			Rows: []packets.ClassificationRow{
				{CarIdx: 0, Position: 2, NumLaps: 3, GridPosition: 1, ResultStatus: 3, BestLapTimeMs: 89000, TotalRaceTimeSec: 270.5, NumPitStops: 1},
				{CarIdx: 1, Position: 1, NumLaps: 3, GridPosition: 2, ResultStatus: 3, BestLapTimeMs: 90000, TotalRaceTimeSec: 269.0},
				{CarIdx: 2, Position: 3, NumLaps: 2, GridPosition: 3, ResultStatus: 99},
			},
		},
	})

	doc, err := Finalize(st)
	require.NoError(t, err)
	results := doc.Sessions[0].Results
	require.Len(t, results, 3)

	assert.Equal(t, "Bob", results[0].Tag)
	assert.Equal(t, 1, results[0].Position)
	assert.Equal(t, "Alice", results[1].Tag)
	require.NotNil(t, results[1].TotalTimeMs)
	assert.Equal(t, 270500, *results[1].TotalTimeMs)
	require.NotNil(t, results[1].PitStops)
	assert.Equal(t, 1, *results[1].PitStops)

	// unknown result status falls back instead of dropping the row
	assert.Equal(t, "FinishedOrUnknown", results[2].Status)
}

func TestFinalize_SessionDedupKeepsLastPerType(t *testing.T) {
	st := store.New(store.WithClock(clock.NewMock()))

	for _, uid := range []uint64{50, 51} {
		st.Ingest(sessionPacket(uid, 10))
		st.Ingest(participants(uid,
			map[int]string{0: "Alice"},
			map[int]packets.ParticipantEntry{0: {TeamID: 0}}))
		st.Ingest(history(uid, 0, 90000))
	}

	doc, err := Finalize(st)
	require.NoError(t, err)
	require.Len(t, doc.Sessions, 1)
	assert.Equal(t, "51", doc.Sessions[0].SessionUID)
	assert.Equal(t, []string{"Race"}, doc.Capture.SessionTypesInCapture)
}

func TestRenumberPositions(t *testing.T) {
	results := []*model.Result{
		{Tag: "c", Position: 9},
		{Tag: "a", Position: 3},
		{Tag: "b1", Position: 7},
		{Tag: "b2", Position: 7},
	}
	renumberPositions(results)

	assert.Equal(t, "a", results[0].Tag)
	assert.Equal(t, "b1", results[1].Tag)
	assert.Equal(t, "b2", results[2].Tag)
	assert.Equal(t, "c", results[3].Tag)
	for i, r := range results {
		assert.Equal(t, i+1, r.Position)
	}
}

func TestPenaltyCategory(t *testing.T) {
	tests := []struct {
		penaltyType int
		want        string
	}{
		{0, "penalty"},
		{1, "penalty"},
		{4, "penalty"},
		{5, "warning"},
		{6, "disqualification"},
		{16, "retired"},
		{2, "other"},
		{10, "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, penaltyCategory(tt.penaltyType), "penaltyType %d", tt.penaltyType)
	}
}

func TestWingRepairs(t *testing.T) {
	repairs := wingRepairs([]store.DamageSnapshot{
		{LapNumber: 4, WingFL: 85, WingFR: 12, WingRear: 0},
		{LapNumber: 5, WingFL: 40, WingFR: 7, WingRear: 0},
	})

	require.Len(t, repairs, 1)
	assert.Equal(t, model.WingRepair{
		Lap:          5,
		Wing:         "frontLeftWing",
		DamageBefore: 85,
		DamageAfter:  40,
		Repaired:     45,
	}, repairs[0])
}

func TestLapsUnderSafetyCar(t *testing.T) {
	base := time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC).UnixMilli()
	events := []model.Event{
		{TsMs: base, Code: packets.CodeLightsOut},
		{TsMs: base + 15000, Code: packets.CodeSafetyCar, Data: &model.EventData{
			SafetyCarType: intPtr(1), EventType: intPtr(0),
		}},
		{TsMs: base + 30000, Code: packets.CodeSafetyCar, Data: &model.EventData{
			SafetyCarType: intPtr(1), EventType: intPtr(2),
		}},
		{TsMs: base + 42000, Code: packets.CodeVSCStart},
		{TsMs: base + 48000, Code: packets.CodeVSCEnd},
		{TsMs: base + 60000, Code: packets.CodeChequered},
	}
	results := []*model.Result{{Tag: "Alice", NumLaps: intPtr(10)}}

	sc, vsc := lapsUnderSafetyCar(events, results)
	assert.Equal(t, []int{3, 4, 5}, sc)
	assert.Equal(t, []int{7, 8}, vsc)

	// laps come out strictly increasing
	for i := 1; i < len(sc); i++ {
		assert.Greater(t, sc[i], sc[i-1])
	}
}

func TestLapsUnderSafetyCar_OpenPeriodClosesAtChequered(t *testing.T) {
	base := int64(1000000)
	events := []model.Event{
		{TsMs: base, Code: packets.CodeLightsOut},
		{TsMs: base + 48000, Code: packets.CodeSafetyCar, Data: &model.EventData{
			SafetyCarType: intPtr(1), EventType: intPtr(0),
		}},
		{TsMs: base + 60000, Code: packets.CodeChequered},
	}
	results := []*model.Result{{Tag: "Alice", NumLaps: intPtr(5)}}

	sc, vsc := lapsUnderSafetyCar(events, results)
	assert.Equal(t, []int{4, 5}, sc)
	assert.Empty(t, vsc)
}

func TestLapsUnderSafetyCar_NoMarkers(t *testing.T) {
	sc, vsc := lapsUnderSafetyCar(nil, nil)
	assert.NotNil(t, sc)
	assert.NotNil(t, vsc)
	assert.Empty(t, sc)
	assert.Empty(t, vsc)
}

func TestFastestLapAward_LastEventWins(t *testing.T) {
	events := []model.Event{
		{Code: packets.CodeFastestLap, Data: &model.EventData{
			VehicleTag: "Alice", LapTimeSec: floatPtr(89.5),
		}},
		{Code: packets.CodeFastestLap, Data: &model.EventData{
			VehicleTag: "Bob", LapTimeSec: floatPtr(88.75),
		}},
	}

	award := fastestLapAward(nil, events)
	require.NotNil(t, award)
	assert.Equal(t, "Bob", award.Tag)
	assert.Equal(t, 88750, award.TimeMs)
	assert.Equal(t, "1:28.750", award.Time)
}

func TestFastestLapAward_IncompleteEventWithheld(t *testing.T) {
	events := []model.Event{
		{Code: packets.CodeFastestLap, Data: &model.EventData{VehicleTag: "Alice"}},
	}
	assert.Nil(t, fastestLapAward(nil, events))
}

func TestMostPositionsGained(t *testing.T) {
	results := []*model.Result{
		{Tag: "Alice", Position: 1, Grid: intPtr(5), Status: "Finished"},
		{Tag: "Bob", Position: 2, Grid: intPtr(6), Status: "Finished"},
		{Tag: "Cara", Position: 3, Grid: intPtr(12), Status: "DidNotFinish"},
	}

	award := mostPositionsGained(results)
	require.NotNil(t, award)
	assert.Equal(t, "Alice", award.Tag)
	assert.Equal(t, 4, award.Gained)
}

func TestMostPositionsGained_WithheldWithoutGains(t *testing.T) {
	results := []*model.Result{
		{Tag: "Alice", Position: 1, Grid: intPtr(1), Status: "Finished"},
		{Tag: "Bob", Position: 2, Grid: intPtr(2), Status: "Finished"},
	}
	assert.Nil(t, mostPositionsGained(results))
}

func TestMostConsistent(t *testing.T) {
	steady := make([]model.Lap, 0, 8)
	erratic := make([]model.Lap, 0, 8)
	for i := 1; i <= 8; i++ {
		steady = append(steady, model.Lap{LapNumber: i, LapTimeMs: 90000 + i%2*80})
		erratic = append(erratic, model.Lap{LapNumber: i, LapTimeMs: 90000 + i%2*4000})
	}
	results := []*model.Result{
		{Tag: "Erratic", Position: 1, Status: "Finished"},
		{Tag: "Steady", Position: 2, Status: "Finished"},
	}
	drivers := map[string]*model.Driver{
		"Steady":  {Laps: steady},
		"Erratic": {Laps: erratic},
	}

	award := mostConsistent(results, drivers)
	require.NotNil(t, award)
	assert.Equal(t, "Steady", award.Tag)
	assert.GreaterOrEqual(t, award.CleanLaps, 5)
}

func TestMostConsistent_TooFewLaps(t *testing.T) {
	results := []*model.Result{{Tag: "Alice", Position: 1, Status: "Finished"}}
	drivers := map[string]*model.Driver{
		"Alice": {Laps: []model.Lap{{LapNumber: 1, LapTimeMs: 90000}}},
	}
	assert.Nil(t, mostConsistent(results, drivers))
}

func TestIsPhantomEntry(t *testing.T) {
	sess := &store.SessionRun{
		TeamByCarIdx: map[int]*packets.ParticipantEntry{
			0: {TeamID: 2},
			1: {TeamID: packets.TeamIDNone},
		},
	}

	withLaps := &store.DriverRun{CarIdx: 1, Laps: make([]store.LapRecord, 2)}
	assert.False(t, isPhantomEntry("Alice", &store.DriverRun{CarIdx: 0}, sess))
	assert.True(t, isPhantomEntry("Ghost", &store.DriverRun{CarIdx: 1}, sess))
	assert.False(t, isPhantomEntry("Ghost", withLaps, sess))
	assert.True(t, isPhantomEntry("Driver_5", &store.DriverRun{CarIdx: 5}, sess))
	assert.True(t, isPhantomEntry("Car_5", &store.DriverRun{CarIdx: 5}, sess))
}

func TestSessionTypeHelpers(t *testing.T) {
	assert.True(t, isRaceType("Race"))
	assert.True(t, isRaceType("Sprint"))
	assert.False(t, isRaceType("Qualifying1"))
	assert.True(t, isQualiType("Qualifying2"))
	assert.True(t, isQualiType("SprintShootout"))
	assert.False(t, isQualiType("Practice1"))
	assert.Equal(t, "Race", lookup.SessionType[10])
}

func floatPtr(v float64) *float64 {
	return &v
}
