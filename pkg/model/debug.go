package model

type Debug struct {
	PacketIDCounts map[string]int `json:"packetIdCounts"`
	Notes          []string       `json:"notes"`
	Diagnostics    Diagnostics    `json:"diagnostics"`
}

type Diagnostics struct {
	SessionHistory SessionHistoryDiag `json:"sessionHistory"`
	LapData        LapDataDiag        `json:"lapData"`
	Participants   ParticipantsDiag   `json:"participants"`
}

type SessionHistoryDiag struct {
	Received      int `json:"received"`
	NoDriver      int `json:"noDriver"`
	EarlyRegister int `json:"earlyRegister"`
	Dedup         int `json:"dedup"`
	LapsAccepted  int `json:"lapsAccepted"`
	LapsFiltered  int `json:"lapsFiltered"`
}

type LapDataDiag struct {
	LapRecorded   int `json:"lapRecorded"`
	NoDriver      int `json:"noDriver"`
	EarlyRegister int `json:"earlyRegister"`
	AlreadyExists int `json:"alreadyExists"`
	SanityFail    int `json:"sanityFail"`
}

type ParticipantsDiag struct {
	Received                    int `json:"received"`
	NumActive                   int `json:"numActive"`
	PlayerCarIdx                int `json:"playerCarIdx"`
	PlayerRecoveredFromOverflow int `json:"playerRecoveredFromOverflow"`
}
