package model

import "github.com/overtake/league-capture/pkg/packets"

// Driver carries the full per-driver detail payload for one session.
type Driver struct {
	Position              int                `json:"position"`
	TeamID                *int               `json:"teamId"`
	TeamName              string             `json:"teamName"`
	MyTeam                bool               `json:"myTeam"`
	RaceNumber            *int               `json:"raceNumber"`
	AIControlled          *bool              `json:"aiControlled"`
	IsPlayer              bool               `json:"isPlayer"`
	Platform              string             `json:"platform"`
	ShowOnlineNames       bool               `json:"showOnlineNames"`
	YourTelemetry         string             `json:"yourTelemetry"`
	Nationality           int                `json:"nationality"`
	Laps                  []Lap              `json:"laps"`
	TyreStints            []TyreStint        `json:"tyreStints"`
	TyreWearPerLap        []TyreWear         `json:"tyreWearPerLap"`
	DamagePerLap          []Damage           `json:"damagePerLap"`
	WingRepairs           []WingRepair       `json:"wingRepairs"`
	Best                  *packets.BestTimes `json:"best"`
	PitStopsTimeline      []PitStop          `json:"pitStopsTimeline"`
	PenaltiesTimeline     []Penalty          `json:"penaltiesTimeline"`
	CollisionsTimeline    []Collision        `json:"collisionsTimeline"`
	TotalWarnings         int                `json:"totalWarnings"`
	CornerCuttingWarnings int                `json:"cornerCuttingWarnings"`
}

type Lap struct {
	LapNumber int      `json:"lapNumber"`
	LapTimeMs int      `json:"lapTimeMs"`
	LapTime   string   `json:"lapTime"`
	Sector1Ms int      `json:"sector1Ms"`
	Sector2Ms int      `json:"sector2Ms"`
	Sector3Ms int      `json:"sector3Ms"`
	Valid     bool     `json:"valid"`
	Flags     []string `json:"flags"`
	TsMs      int64    `json:"tsMs"`
}

type TyreStint struct {
	EndLap       int    `json:"endLap"`
	TyreActualID *int   `json:"tyreActualId"`
	TyreActual   string `json:"tyreActual"`
	TyreVisualID *int   `json:"tyreVisualId"`
	TyreVisual   string `json:"tyreVisual"`
}

type TyreWear struct {
	LapNumber int     `json:"lapNumber"`
	RL        float64 `json:"rl"`
	RR        float64 `json:"rr"`
	FL        float64 `json:"fl"`
	FR        float64 `json:"fr"`
	Avg       float64 `json:"avg"`
}

type Damage struct {
	LapNumber int `json:"lapNumber"`
	WingFL    int `json:"wingFL"`
	WingFR    int `json:"wingFR"`
	WingRear  int `json:"wingRear"`
	TyreDmgRL int `json:"tyreDmgRL"`
	TyreDmgRR int `json:"tyreDmgRR"`
	TyreDmgFL int `json:"tyreDmgFL"`
	TyreDmgFR int `json:"tyreDmgFR"`
}

// WingRepair marks a lap-over-lap wing damage drop large enough to be a
// garage repair rather than sensor noise.
type WingRepair struct {
	Lap          int    `json:"lap"`
	Wing         string `json:"wing"`
	DamageBefore int    `json:"damageBefore"`
	DamageAfter  int    `json:"damageAfter"`
	Repaired     int    `json:"repaired"`
}

type PitStop struct {
	NumPitStops int   `json:"numPitStops"`
	TsMs        int64 `json:"tsMs"`
	LapNum      *int  `json:"lapNum"`
}

type Penalty struct {
	TsMs                 int64  `json:"tsMs"`
	PenaltyType          *int   `json:"penaltyType,omitempty"`
	PenaltyTypeName      string `json:"penaltyTypeName,omitempty"`
	Category             string `json:"category,omitempty"`
	InfringementType     *int   `json:"infringementType,omitempty"`
	InfringementTypeName string `json:"infringementTypeName,omitempty"`
	TimeSec              *int   `json:"timeSec,omitempty"`
	LapNum               *int   `json:"lapNum,omitempty"`
	OtherDriver          string `json:"otherDriver,omitempty"`
}

type Collision struct {
	TsMs            int64  `json:"tsMs"`
	Type            string `json:"type"`
	OtherVehicleTag string `json:"otherVehicleTag,omitempty"`
}
