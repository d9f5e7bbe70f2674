// Package model defines the versioned result document produced at the end
// of a capture.
package model

import "github.com/overtake/league-capture/pkg/lookup"

const (
	SchemaVersion = "league-1.0"
	Game          = "F1_25"
)

type Document struct {
	SchemaVersion string     `json:"schemaVersion"`
	Game          string     `json:"game"`
	Capture       Capture    `json:"capture"`
	Participants  []string   `json:"participants"`
	Sessions      []*Session `json:"sessions"`
	Debug         Debug      `json:"_debug"`
}

type Capture struct {
	SessionUID            string   `json:"sessionUID"`
	StartedAtMs           int64    `json:"startedAtMs"`
	EndedAtMs             int64    `json:"endedAtMs"`
	SessionTypesInCapture []string `json:"sessionTypesInCapture"`
}

type Session struct {
	SessionUID       string             `json:"sessionUID"`
	SessionType      lookup.Label       `json:"sessionType"`
	Track            lookup.Label       `json:"track"`
	Weather          lookup.Label       `json:"weather"`
	TrackTempC       *int               `json:"trackTempC"`
	AirTempC         *int               `json:"airTempC"`
	WeatherTimeline  []WeatherSample    `json:"weatherTimeline"`
	WeatherForecast  []ForecastEntry    `json:"weatherForecast"`
	LastPacketMs     int64              `json:"lastPacketMs"`
	SessionEndedAtMs *int64             `json:"sessionEndedAtMs"`
	SafetyCar        SafetyCar          `json:"safetyCar"`
	NetworkGame      bool               `json:"networkGame"`
	Awards           Awards             `json:"awards"`
	Results          []*Result          `json:"results"`
	Drivers          map[string]*Driver `json:"drivers"`
	Events           []Event            `json:"events"`
}

type WeatherSample struct {
	TsMs       int64        `json:"tsMs"`
	Weather    lookup.Label `json:"weather"`
	TrackTempC *int         `json:"trackTempC"`
	AirTempC   *int         `json:"airTempC"`
}

type ForecastEntry struct {
	TimeOffsetMin  int          `json:"timeOffsetMin"`
	Weather        lookup.Label `json:"weather"`
	TrackTempC     int          `json:"trackTempC"`
	AirTempC       int          `json:"airTempC"`
	RainPercentage int          `json:"rainPercentage"`
}

type SafetyCar struct {
	Status         lookup.Label `json:"status"`
	FullDeploys    int          `json:"fullDeploys"`
	VSCDeploys     int          `json:"vscDeploys"`
	RedFlagPeriods int          `json:"redFlagPeriods"`
	LapsUnderSC    []int        `json:"lapsUnderSC"`
	LapsUnderVSC   []int        `json:"lapsUnderVSC"`
}

// Result is one classification row. Reconstructed qualifying results omit
// the race-only fields.
type Result struct {
	Position         int    `json:"position"`
	Tag              string `json:"tag"`
	TeamID           *int   `json:"teamId"`
	TeamName         string `json:"teamName"`
	Grid             *int   `json:"grid"`
	NumLaps          *int   `json:"numLaps,omitempty"`
	BestLapTimeMs    *int   `json:"bestLapTimeMs"`
	BestLapTime      string `json:"bestLapTime"`
	TotalTimeMs      *int   `json:"totalTimeMs"`
	TotalTime        string `json:"totalTime"`
	PenaltiesTimeSec *int   `json:"penaltiesTimeSec,omitempty"`
	PitStops         *int   `json:"pitStops,omitempty"`
	Status           string `json:"status"`
	NumPenalties     *int   `json:"numPenalties,omitempty"`
}
