package store

import (
	"slices"

	"github.com/overtake/league-capture/pkg/packets"
)

// LapRecord is one accepted lap in a driver's authoritative lap list.
type LapRecord struct {
	LapNumber  int
	LapTimeMs  int
	LapTime    string
	Sector1Ms  int
	Sector2Ms  int
	Sector3Ms  int
	ValidFlags int
	TsMs       int64
}

type PitStopRecord struct {
	NumPitStops int
	TsMs        int64
	LapNum      *int
}

// PenaltySnapshot covers penalty and collision events alike; EventCode
// distinguishes collisions from regular penalties.
type PenaltySnapshot struct {
	TsMs             int64
	EventCode        string
	PenaltyType      *int
	InfringementType *int
	OtherVehicleIdx  *int
	TimeSec          *int
	LapNum           *int
	PlacesGained     *int
}

type TyreWearSnapshot struct {
	LapNumber int
	RL        float64
	RR        float64
	FL        float64
	FR        float64
	Avg       float64
}

type DamageSnapshot struct {
	LapNumber int
	WingFL    int
	WingFR    int
	WingRear  int
	TyreDmgRL int
	TyreDmgRR int
	TyreDmgFL int
	TyreDmgFR int
}

type TyreStintRecord struct {
	StintIndex int
	EndLap     int
	TyreActual int
	TyreVisual int
}

type WeatherTimelineEntry struct {
	TsMs       int64
	Weather    int
	TrackTempC *int
	AirTempC   *int
}

type ForecastRecord struct {
	TimeOffsetMin  int
	Weather        int
	TrackTempC     int
	AirTempC       int
	RainPercentage int
}

// StoredEvent is one entry of a session's capped event log. Data is nil for
// marker events and the synthetic final-classification entry.
type StoredEvent struct {
	Code string
	TsMs int64
	Data *packets.Event
}

// DriverRun accumulates everything known about one competitor within a
// session. The lap list is authoritative: session history replaces it
// wholesale, the lap-data rising edge only fills gaps.
type DriverRun struct {
	Tag    string
	CarIdx int

	Laps       []LapRecord
	TyreStints []TyreStintRecord
	Best       *packets.BestTimes

	PitStops        []PitStopRecord
	lastNumPitStops *int

	lastCurrentLapNum     *int
	lastRecordedLapNumber int

	lastHistoryHash     *int
	lastHistoryUpdateMs int64

	PenaltySnapshots []PenaltySnapshot

	LatestTyreWear *packets.TyreSet
	TyreWearPerLap []TyreWearSnapshot

	LatestDamage *DamageSnapshot
	DamagePerLap []DamageSnapshot

	LastSeenLapTimeMs int

	LastTotalWarnings         int
	LastCornerCuttingWarnings int

	GridPosition int
}

// Reset clears all running state of a restarted offline session while the
// driver's identity (tag, car index) stays intact.
func (d *DriverRun) Reset() {
	d.Laps = nil
	d.PitStops = nil
	d.lastNumPitStops = nil
	d.lastCurrentLapNum = nil
	d.lastRecordedLapNumber = 0
	d.lastHistoryHash = nil
	d.lastHistoryUpdateMs = 0
	d.PenaltySnapshots = nil
	d.LatestTyreWear = nil
	d.TyreWearPerLap = nil
	d.LatestDamage = nil
	d.DamagePerLap = nil
	d.LastSeenLapTimeMs = 0
	d.LastTotalWarnings = 0
	d.LastCornerCuttingWarnings = 0
}

// SessionRun accumulates everything known about one session UID.
type SessionRun struct {
	SessionUID   string
	TagsByCarIdx map[int]string
	TeamByCarIdx map[int]*packets.ParticipantEntry
	Drivers      map[string]*DriverRun
	driverOrder  []string

	Events              []StoredEvent
	FinalClassification *packets.FinalClassification

	SessionType     *int
	TrackID         *int
	Weather         *int
	SafetyCarStatus *int
	NetworkGame     int

	WeatherTimeline  []WeatherTimelineEntry
	WeatherForecast  []ForecastRecord
	lastWeatherState *int
	LatestTrackTempC *int
	LatestAirTempC   *int

	PlayerCarIndex int

	LastPacketMs     int64
	SessionEndedAtMs *int64

	NumSafetyCarDeployments int
	NumVSCDeployments       int
	NumRedFlagPeriods       int
}

func newSessionRun(uid string) *SessionRun {
	return &SessionRun{
		SessionUID:     uid,
		TagsByCarIdx:   make(map[int]string),
		TeamByCarIdx:   make(map[int]*packets.ParticipantEntry),
		Drivers:        make(map[string]*DriverRun),
		PlayerCarIndex: -1,
	}
}

// DriverTags returns the driver tags in registration order, skipping tags
// whose runs were merged away by a rename.
func (s *SessionRun) DriverTags() []string {
	out := make([]string, 0, len(s.Drivers))
	for _, tag := range s.driverOrder {
		if _, ok := s.Drivers[tag]; ok {
			out = append(out, tag)
		}
	}
	return out
}

func (s *SessionRun) putDriver(tag string, d *DriverRun) {
	// a rename can delete a tag from Drivers and later bring it back; the
	// stale driverOrder entry must not be appended twice
	if _, known := s.Drivers[tag]; !known && !slices.Contains(s.driverOrder, tag) {
		s.driverOrder = append(s.driverOrder, tag)
	}
	s.Drivers[tag] = d
}
