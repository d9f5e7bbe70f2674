package model

// Awards are computed per session; a nil entry means the award was withheld.
type Awards struct {
	FastestLap          *FastestLapAward          `json:"fastestLap"`
	MostPositionsGained *MostPositionsGainedAward `json:"mostPositionsGained"`
	MostConsistent      *MostConsistentAward      `json:"mostConsistent"`
}

type FastestLapAward struct {
	Tag    string `json:"tag"`
	TimeMs int    `json:"timeMs"`
	Time   string `json:"time"`
}

type MostPositionsGainedAward struct {
	Tag    string `json:"tag"`
	Grid   int    `json:"grid"`
	Finish int    `json:"finish"`
	Gained int    `json:"gained"`
}

type MostConsistentAward struct {
	Tag       string `json:"tag"`
	StdDevMs  int    `json:"stdDevMs"`
	StdDev    string `json:"stdDev"`
	CleanLaps int    `json:"cleanLaps"`
}
