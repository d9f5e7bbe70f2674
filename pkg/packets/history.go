package packets

const (
	historyLapEntrySize  = 14
	historyStintSize     = 3
	historyMaxLaps       = 100
	historyMaxStints     = 8
	historyHeaderPayload = 7
)

// HistoryLap is one lap row of the session history packet: total time plus
// the three sectors in the split (ms remainder, minutes) encoding.
type HistoryLap struct {
	LapNumber  int
	LapTimeMs  int
	Sector1Ms  int
	Sector2Ms  int
	Sector3Ms  int
	ValidFlags int
}

// HistoryStint is one tyre stint row of the session history packet.
type HistoryStint struct {
	StintIndex int
	EndLap     int
	TyreActual int
	TyreVisual int
}

// BestTimes summarizes the best lap/sector markers of a session history
// packet, resolved against the raw lap rows.
type BestTimes struct {
	BestLapTimeLapNum int  `json:"bestLapTimeLapNum"`
	BestLapTimeMs     *int `json:"bestLapTimeMs"`
	BestSector1LapNum int  `json:"bestSector1LapNum"`
	BestSector1Ms     *int `json:"bestSector1Ms"`
	BestSector2LapNum int  `json:"bestSector2LapNum"`
	BestSector2Ms     *int `json:"bestSector2Ms"`
	BestSector3LapNum int  `json:"bestSector3LapNum"`
	BestSector3Ms     *int `json:"bestSector3Ms"`
}

// SessionHistory is the decoded session history packet (kind 11), carrying
// the full lap and tyre stint record for a single car.
type SessionHistory struct {
	CarIdx     int
	NumLaps    int
	Laps       []HistoryLap
	TyreStints []HistoryStint
	Best       BestTimes
}

//nolint:funlen // single pass over a fixed wire layout
func ParseSessionHistory(data []byte) *SessionHistory {
	if len(data) < HeaderSize+historyHeaderPayload {
		return nil
	}

	p := HeaderSize
	result := &SessionHistory{
		CarIdx:  int(data[p]),
		NumLaps: int(data[p+1]),
		Best: BestTimes{
			BestLapTimeLapNum: int(data[p+3]),
			BestSector1LapNum: int(data[p+4]),
			BestSector2LapNum: int(data[p+5]),
			BestSector3LapNum: int(data[p+6]),
		},
	}

	// All 100 lap slots are present on the wire; only those with a
	// positive time are meaningful.
	off := p + historyHeaderPayload
	for i := 0; i < historyMaxLaps; i++ {
		if off+historyLapEntrySize > len(data) {
			break
		}
		lapTimeMs := int(u32(data, off))
		entry := HistoryLap{
			LapNumber:  i + 1,
			LapTimeMs:  lapTimeMs,
			Sector1Ms:  sectorMs(u16(data, off+4), data[off+6]),
			Sector2Ms:  sectorMs(u16(data, off+7), data[off+9]),
			Sector3Ms:  sectorMs(u16(data, off+10), data[off+12]),
			ValidFlags: int(data[off+13]),
		}
		off += historyLapEntrySize
		if lapTimeMs <= 0 {
			continue
		}
		result.Laps = append(result.Laps, entry)
	}

	for i := 0; i < historyMaxStints; i++ {
		if off+historyStintSize > len(data) {
			break
		}
		endLap := int(data[off])
		tyreActual := int(data[off+1])
		tyreVisual := int(data[off+2])
		off += historyStintSize
		if endLap == 0 && tyreActual == 0 && tyreVisual == 0 {
			continue
		}
		result.TyreStints = append(result.TyreStints, HistoryStint{
			StintIndex: i,
			EndLap:     endLap,
			TyreActual: tyreActual,
			TyreVisual: tyreVisual,
		})
	}

	// Trim to the declared lap count; the trailing slots repeat stale data.
	if result.NumLaps > 0 && result.NumLaps < len(result.Laps) {
		result.Laps = result.Laps[:result.NumLaps]
	}

	// Resolve best times from the raw slot the best-lap marker points at.
	if n := result.Best.BestLapTimeLapNum; n > 0 {
		rawOff := p + historyHeaderPayload + (n-1)*historyLapEntrySize
		if rawOff+historyLapEntrySize <= len(data) {
			bestLap := int(u32(data, rawOff))
			if bestLap > 0 {
				result.Best.BestLapTimeMs = &bestLap
			}
			s1 := sectorMs(u16(data, rawOff+4), data[rawOff+6])
			s2 := sectorMs(u16(data, rawOff+7), data[rawOff+9])
			s3 := sectorMs(u16(data, rawOff+10), data[rawOff+12])
			if s1 > 0 {
				result.Best.BestSector1Ms = &s1
			}
			if s2 > 0 {
				result.Best.BestSector2Ms = &s2
			}
			if s3 > 0 {
				result.Best.BestSector3Ms = &s3
			}
		}
	}

	return result
}
