//nolint:funlen,lll // ok for tests
package store

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overtake/league-capture/pkg/packets"
)

func testHeader(packetID int, uid uint64) *packets.Header {
	return &packets.Header{
		PacketID:                uint8(packetID),
		SessionUID:              uid,
		PlayerCarIndex:          packets.InvalidCarIndex,
		SecondaryPlayerCarIndex: packets.InvalidCarIndex,
	}
}

func participantsPacket(tags map[int]string, entries map[int]packets.ParticipantEntry) *packets.Parsed {
	return &packets.Parsed{
		Header: testHeader(packets.KindParticipants, 42),
		Participants: &packets.Participants{
			NumActiveCars: len(tags),
			Entries:       entries,
			Overflow:      map[int]packets.ParticipantEntry{},
			TagsByCarIdx:  tags,
		},
	}
}

func historyPacket(carIdx int, lapTimes ...int) *packets.Parsed {
	sh := &packets.SessionHistory{CarIdx: carIdx, NumLaps: len(lapTimes)}
	for i, ms := range lapTimes {
		sh.Laps = append(sh.Laps, packets.HistoryLap{
			LapNumber: i + 1,
			LapTimeMs: ms,
			Sector1Ms: ms / 3,
			Sector2Ms: ms / 3,
			Sector3Ms: ms - 2*(ms/3),
		})
	}
	return &packets.Parsed{Header: testHeader(packets.KindSessionHistory, 42), SessionHistory: sh}
}

func eventPacket(evt *packets.Event) *packets.Parsed {
	return &packets.Parsed{Header: testHeader(packets.KindEvent, 42), Event: evt}
}

func newTestStore() (*SessionStore, *clock.Mock) {
	mock := clock.NewMock()
	mock.Add(time.Hour)
	return New(WithClock(mock)), mock
}

func TestIngest_RegistersDriversFromParticipants(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(participantsPacket(
		map[int]string{0: "Alice", 1: "Bob"},
		map[int]packets.ParticipantEntry{
			0: {TeamID: 2, RaceNumber: 11},
			1: {TeamID: 4, RaceNumber: 44},
		}))
	st.Ingest(historyPacket(0, 91000, 90500))

	require.Contains(t, st.Sessions, "42")
	sess := st.Sessions["42"]
	assert.Equal(t, "Alice", sess.TagsByCarIdx[0])
	assert.Equal(t, "Bob", sess.TagsByCarIdx[1])
	require.Contains(t, sess.Drivers, "Alice")
	assert.Len(t, sess.Drivers["Alice"].Laps, 2)
	assert.Equal(t, []string{"Alice"}, sess.DriverTags())
}

func TestIngest_SessionUIDInheritedAndChangeNoted(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(historyPacket(0, 91000))
	require.NotNil(t, st.SessionUID)
	assert.Equal(t, uint64(42), *st.SessionUID)

	// uid 0 headers inherit the current session
	p := historyPacket(0, 91000, 90000)
	p.Header.SessionUID = 0
	st.Ingest(p)
	assert.Len(t, st.Sessions, 1)

	p = historyPacket(0, 91000)
	p.Header.SessionUID = 77
	st.Ingest(p)
	assert.Equal(t, uint64(77), *st.SessionUID)
	require.Len(t, st.Notes, 1)
	assert.Contains(t, st.Notes[0], "sessionUID changed")
}

func TestSessionHistory_DedupWindow(t *testing.T) {
	st, mock := newTestStore()

	st.Ingest(historyPacket(3, 91000, 90500))
	st.Ingest(historyPacket(3, 91000, 90500))
	assert.Equal(t, 1, st.Diag.ShDedup)

	mock.Add(2 * time.Second)
	st.Ingest(historyPacket(3, 91000, 90500))
	assert.Equal(t, 1, st.Diag.ShDedup)

	// changed content bypasses the window
	st.Ingest(historyPacket(3, 91000, 90500, 89900))
	sess := st.Sessions["42"]
	assert.Len(t, sess.Drivers["Player_3"].Laps, 3)
}

func TestSessionHistory_FiltersImplausibleLaps(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(historyPacket(0, 3000, 91000, 700000))
	sess := st.Sessions["42"]
	laps := sess.Drivers["Player_0"].Laps
	require.Len(t, laps, 1)
	assert.Equal(t, 91000, laps[0].LapTimeMs)
	assert.Equal(t, 2, st.Diag.ShLapsFiltered)
}

func lapDataPacket(rows ...packets.LapDataEntry) *packets.Parsed {
	return &packets.Parsed{Header: testHeader(packets.KindLapData, 42), LapData: rows}
}

func TestLapData_EarlyRegistration(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 5, CurrentLapNum: 2, CarPosition: 3}))
	sess := st.Sessions["42"]
	assert.Contains(t, sess.Drivers, "Player_5")
	assert.Equal(t, 1, st.Diag.LdEarlyRegister)

	// rows without any live data never register
	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 9}))
	assert.NotContains(t, sess.Drivers, "Player_9")
}

func TestLapData_FallbackLapDerivesSectorThree(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 0, CurrentLapNum: 1, CarPosition: 1}))
	st.Ingest(lapDataPacket(packets.LapDataEntry{
		CarIdx:        0,
		CurrentLapNum: 2,
		CarPosition:   1,
		LastLapTimeMs: 90000,
		Sector1TimeMs: 30000,
		Sector2TimeMs: 35000,
	}))

	laps := st.Sessions["42"].Drivers["Player_0"].Laps
	require.Len(t, laps, 1)
	assert.Equal(t, 1, laps[0].LapNumber)
	assert.Equal(t, 25000, laps[0].Sector3Ms)
	assert.Equal(t, "1:30.000", laps[0].LapTime)
	assert.Equal(t, 1, st.Diag.LdLapRecorded)
}

func TestLapData_FallbackSectorThreeNeverNegative(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 0, CurrentLapNum: 1, CarPosition: 1}))
	st.Ingest(lapDataPacket(packets.LapDataEntry{
		CarIdx:        0,
		CurrentLapNum: 2,
		CarPosition:   1,
		LastLapTimeMs: 60000,
		Sector1TimeMs: 40000,
		Sector2TimeMs: 35000,
	}))

	laps := st.Sessions["42"].Drivers["Player_0"].Laps
	require.Len(t, laps, 1)
	assert.Equal(t, 0, laps[0].Sector3Ms)
}

func TestLapData_HistoryLapWins(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(historyPacket(0, 91000, 90000))
	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 0, CurrentLapNum: 2, CarPosition: 1}))
	// lap 2 is already covered by session history; the rising edge to lap 3
	// must not duplicate it
	st.Ingest(lapDataPacket(packets.LapDataEntry{
		CarIdx: 0, CurrentLapNum: 3, CarPosition: 1, LastLapTimeMs: 90000,
	}))

	assert.Len(t, st.Sessions["42"].Drivers["Player_0"].Laps, 2)
	assert.Equal(t, 1, st.Diag.LdAlreadyExists)
}

func TestLapData_PitStopRisingEdge(t *testing.T) {
	st, _ := newTestStore()

	row := packets.LapDataEntry{CarIdx: 0, CurrentLapNum: 1, CarPosition: 1}
	st.Ingest(lapDataPacket(row))

	row.NumPitStops = 1
	row.CurrentLapNum = 14
	st.Ingest(lapDataPacket(row))
	st.Ingest(lapDataPacket(row)) // unchanged counter, no new event

	row.NumPitStops = 11 // garbage
	st.Ingest(lapDataPacket(row))

	d := st.Sessions["42"].Drivers["Player_0"]
	require.Len(t, d.PitStops, 1)
	assert.Equal(t, 1, d.PitStops[0].NumPitStops)
	require.NotNil(t, d.PitStops[0].LapNum)
	assert.Equal(t, 14, *d.PitStops[0].LapNum)
}

func TestCarDamage_SnapshotOnLapRisingEdge(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 0, CurrentLapNum: 1, CarPosition: 1}))
	st.Ingest(&packets.Parsed{
		Header: testHeader(packets.KindCarDamage, 42),
		CarDamage: []packets.CarDamageEntry{{
			CarIdx:   0,
			TyreWear: packets.TyreSet{RL: 10.1, RR: 10.3, FL: 9.8, FR: 9.9},
			Wing:     packets.WingDamage{FrontLeft: 85},
		}},
	})
	st.Ingest(lapDataPacket(packets.LapDataEntry{
		CarIdx: 0, CurrentLapNum: 2, CarPosition: 1, LastLapTimeMs: 90000,
	}))

	d := st.Sessions["42"].Drivers["Player_0"]
	require.Len(t, d.TyreWearPerLap, 1)
	assert.Equal(t, 1, d.TyreWearPerLap[0].LapNumber)
	assert.InDelta(t, 10.0, d.TyreWearPerLap[0].Avg, 0.001)
	require.Len(t, d.DamagePerLap, 1)
	assert.Equal(t, 85, d.DamagePerLap[0].WingFL)
}

func TestEvent_PenaltySnapshot(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(lapDataPacket(packets.LapDataEntry{CarIdx: 2, CurrentLapNum: 3, CarPosition: 4}))
	st.Ingest(eventPacket(&packets.Event{
		Code: packets.CodePenalty,
		Penalty: &packets.PenaltyEvent{
			PenaltyType:      4,
			InfringementType: 3,
			VehicleIdx:       2,
			OtherVehicleIdx:  255,
			TimeSec:          5,
			LapNum:           3,
		},
	}))

	d := st.Sessions["42"].Drivers["Player_2"]
	require.Len(t, d.PenaltySnapshots, 1)
	snap := d.PenaltySnapshots[0]
	assert.Equal(t, 4, *snap.PenaltyType)
	assert.Equal(t, 3, *snap.InfringementType)
	assert.Equal(t, 5, *snap.TimeSec)
	assert.Empty(t, snap.EventCode)
}

func TestEvent_CollisionMirrored(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(participantsPacket(
		map[int]string{0: "Alice", 1: "Bob"},
		map[int]packets.ParticipantEntry{0: {TeamID: 2}, 1: {TeamID: 4}}))
	st.Ingest(eventPacket(&packets.Event{
		Code:      packets.CodeCollision,
		Collision: &packets.CollisionEvent{Vehicle1Idx: 0, Vehicle2Idx: 1},
	}))

	sess := st.Sessions["42"]
	require.Len(t, sess.Drivers["Alice"].PenaltySnapshots, 1)
	require.Len(t, sess.Drivers["Bob"].PenaltySnapshots, 1)
	assert.Equal(t, packets.CodeCollision, sess.Drivers["Alice"].PenaltySnapshots[0].EventCode)
	assert.Equal(t, 1, *sess.Drivers["Alice"].PenaltySnapshots[0].OtherVehicleIdx)
	assert.Equal(t, 0, *sess.Drivers["Bob"].PenaltySnapshots[0].OtherVehicleIdx)
}

func TestEvent_IgnoredChatterNotStored(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(eventPacket(&packets.Event{Code: "SPTP"}))
	st.Ingest(eventPacket(&packets.Event{Code: "DRSE"}))
	st.Ingest(eventPacket(&packets.Event{Code: packets.CodeChequered}))

	assert.Len(t, st.Sessions["42"].Events, 1)
}

func TestEvent_SafetyCarFullDeployCounted(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(eventPacket(&packets.Event{
		Code:      packets.CodeSafetyCar,
		SafetyCar: &packets.SafetyCarEvent{SafetyCarType: 1, EventType: 0},
	}))
	st.Ingest(eventPacket(&packets.Event{
		Code:      packets.CodeSafetyCar,
		SafetyCar: &packets.SafetyCarEvent{SafetyCarType: 1, EventType: 2},
	}))
	st.Ingest(eventPacket(&packets.Event{
		Code:      packets.CodeSafetyCar,
		SafetyCar: &packets.SafetyCarEvent{SafetyCarType: 2, EventType: 0}, // virtual
	}))

	assert.Equal(t, 1, st.Sessions["42"].NumSafetyCarDeployments)
}

func TestEvent_SessionEndRecordsTimestamp(t *testing.T) {
	st, mock := newTestStore()

	st.Ingest(eventPacket(&packets.Event{Code: packets.CodeSessionEnd}))
	sess := st.Sessions["42"]
	require.NotNil(t, sess.SessionEndedAtMs)
	assert.Equal(t, mock.Now().UnixMilli(), *sess.SessionEndedAtMs)
}

func TestEvent_OfflineRestartClearsSession(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(&packets.Parsed{
		Header:  testHeader(packets.KindSession, 42),
		Session: &packets.Session{SessionType: 10, NetworkGame: 0},
	})
	st.Ingest(historyPacket(0, 91000, 90000))
	st.Ingest(eventPacket(&packets.Event{Code: packets.CodeLightsOut}))
	st.Ingest(eventPacket(&packets.Event{Code: packets.CodeSessionStart}))

	sess := st.Sessions["42"]
	require.Len(t, sess.Events, 1)
	assert.Equal(t, packets.CodeSessionStart, sess.Events[0].Code)
	assert.Empty(t, sess.Drivers["Player_0"].Laps)
	assert.Nil(t, sess.SessionEndedAtMs)
}

func TestEvent_OnlineRestartKeepsData(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(&packets.Parsed{
		Header:  testHeader(packets.KindSession, 42),
		Session: &packets.Session{SessionType: 10, NetworkGame: 1},
	})
	st.Ingest(historyPacket(0, 91000, 90000))
	st.Ingest(eventPacket(&packets.Event{Code: packets.CodeLightsOut}))
	st.Ingest(eventPacket(&packets.Event{Code: packets.CodeSessionStart}))

	sess := st.Sessions["42"]
	assert.Len(t, sess.Events, 2)
	assert.Len(t, sess.Drivers["Player_0"].Laps, 2)
}

func TestParticipants_RenameMergesKeepingLongerRun(t *testing.T) {
	st, _ := newTestStore()
	sess := st.session("42")

	sess.TagsByCarIdx[0] = "Old"
	longer := &DriverRun{Tag: "Old", CarIdx: 0, Laps: make([]LapRecord, 3)}
	sess.putDriver("Old", longer)
	sess.TagsByCarIdx[1] = "New"
	sess.putDriver("New", &DriverRun{Tag: "New", CarIdx: 1, Laps: make([]LapRecord, 1)})

	st.ingestParticipants(sess, &packets.Participants{
		NumActiveCars: 1,
		Entries:       map[int]packets.ParticipantEntry{0: {TeamID: 2}},
		Overflow:      map[int]packets.ParticipantEntry{},
		TagsByCarIdx:  map[int]string{0: "New"},
	}, -1)

	require.Contains(t, sess.Drivers, "New")
	assert.NotContains(t, sess.Drivers, "Old")
	assert.Len(t, sess.Drivers["New"].Laps, 3)
	assert.Equal(t, []string{"New"}, sess.DriverTags())
}

func TestParticipants_RenameAwayAndBackKeepsOneOrderEntry(t *testing.T) {
	st, _ := newTestStore()
	entries := map[int]packets.ParticipantEntry{0: {TeamID: 2, RaceNumber: 11}}

	st.Ingest(participantsPacket(map[int]string{0: "Alice"}, entries))
	st.Ingest(historyPacket(0, 90000, 89500))
	st.Ingest(participantsPacket(map[int]string{0: "Alice #11"}, entries))
	st.Ingest(participantsPacket(map[int]string{0: "Alice"}, entries))

	sess := st.Sessions["42"]
	assert.Equal(t, []string{"Alice"}, sess.DriverTags())
	require.Contains(t, sess.Drivers, "Alice")
	assert.Len(t, sess.Drivers, 1)
	assert.Len(t, sess.Drivers["Alice"].Laps, 2)
}

func TestParticipants_GenericTagResolvedAcrossSessions(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(participantsPacket(
		map[int]string{0: "Alice"},
		map[int]packets.ParticipantEntry{0: {TeamID: 2, RaceNumber: 11}}))

	// a later session reports the same car with a placeholder name
	p := participantsPacket(
		map[int]string{0: "Driver_0"},
		map[int]packets.ParticipantEntry{0: {TeamID: 2, RaceNumber: 11}})
	p.Header.SessionUID = 43
	st.Ingest(p)

	assert.Equal(t, "Alice", st.Sessions["43"].TagsByCarIdx[0])
}

func TestSessionPacket_WeatherTimelineOnChange(t *testing.T) {
	st, mock := newTestStore()

	ingest := func(weather int) {
		st.Ingest(&packets.Parsed{
			Header:  testHeader(packets.KindSession, 42),
			Session: &packets.Session{SessionType: 10, Weather: weather, TrackTempC: 31, AirTempC: 24},
		})
		mock.Add(time.Minute)
	}
	ingest(0)
	ingest(0)
	ingest(3)

	sess := st.Sessions["42"]
	require.Len(t, sess.WeatherTimeline, 2)
	assert.Equal(t, 0, sess.WeatherTimeline[0].Weather)
	assert.Equal(t, 3, sess.WeatherTimeline[1].Weather)
	require.NotNil(t, sess.LatestTrackTempC)
	assert.Equal(t, 31, *sess.LatestTrackTempC)
}

func TestFinalClassification_RecordsEndOfSession(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(&packets.Parsed{
		Header: testHeader(packets.KindFinalClassification, 42),
		FinalClassification: &packets.FinalClassification{
			NumCars: 1,
			Rows:    []packets.ClassificationRow{{CarIdx: 0, Position: 1, NumLaps: 5}},
		},
	})

	sess := st.Sessions["42"]
	require.NotNil(t, sess.FinalClassification)
	require.NotNil(t, sess.SessionEndedAtMs)
	require.Len(t, sess.Events, 1)
	assert.Equal(t, "FINAL_CLASSIFICATION", sess.Events[0].Code)
}

func TestReset_ClearsEverything(t *testing.T) {
	st, _ := newTestStore()

	st.Ingest(historyPacket(0, 91000))
	require.NotEmpty(t, st.Sessions)

	st.Reset()
	assert.Empty(t, st.Sessions)
	assert.Empty(t, st.SessionIDs())
	assert.Nil(t, st.SessionUID)
	assert.False(t, st.Connected)
	assert.Equal(t, -1, st.Diag.PlayerCarIdx)
}
