package packets

// per-car row: 7 x u8, u32 bestLapTimeInMS, f64 totalRaceTime, 3 x u8,
// then tyreStintsActual[8] + tyreStintsVisual[8] + tyreStintsEndLaps[8]
const classificationRowSize = 46

// ClassificationRow is one decoded row of the final classification packet
// (kind 8).
type ClassificationRow struct {
	CarIdx           int
	Position         int
	NumLaps          int
	GridPosition     int
	Points           int
	NumPitStops      int
	ResultStatus     int
	ResultReason     int
	BestLapTimeMs    int
	TotalRaceTimeSec float64
	PenaltiesTimeSec int
	NumPenalties     int
	NumTyreStints    int
}

// FinalClassification is the decoded final classification packet.
type FinalClassification struct {
	NumCars int
	Rows    []ClassificationRow
}

func ParseFinalClassification(data []byte) *FinalClassification {
	if len(data) < HeaderSize+1 {
		return nil
	}

	p := HeaderSize
	numCars := int(data[p])
	count := numCars
	if count > MaxCars {
		count = MaxCars
	}

	rows := make([]ClassificationRow, 0, count)
	off := p + 1
	for i := 0; i < count; i++ {
		if off+classificationRowSize > len(data) {
			break
		}
		rows = append(rows, ClassificationRow{
			CarIdx:           i,
			Position:         int(data[off+0]),
			NumLaps:          int(data[off+1]),
			GridPosition:     int(data[off+2]),
			Points:           int(data[off+3]),
			NumPitStops:      int(data[off+4]),
			ResultStatus:     int(data[off+5]),
			ResultReason:     int(data[off+6]),
			BestLapTimeMs:    int(u32(data, off+7)),
			TotalRaceTimeSec: f64(data, off+11),
			PenaltiesTimeSec: int(data[off+19]),
			NumPenalties:     int(data[off+20]),
			NumTyreStints:    int(data[off+21]),
		})
		off += classificationRowSize
	}

	return &FinalClassification{NumCars: numCars, Rows: rows}
}
