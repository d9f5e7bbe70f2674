package packets

// lap data row layout (57 bytes per car):
//
//	 0: lastLapTimeInMS (u32)
//	 4: currentLapTimeInMS (u32)
//	 8: sector1 (u16 ms remainder + u8 minutes)
//	11: sector2 (u16 ms remainder + u8 minutes)
//	14: deltaToCarInFront, 17: deltaToLeader (same split encoding, unused)
//	20: lapDistance (f32), 24: totalDistance (f32), 28: safetyCarDelta (f32)
//	32..45: single-byte fields (position, lap number, pit, penalties, ...)
//	46: pitLaneTimerActive
//	47: pitLaneTimeInLaneInMS (u16), 49: pitStopTimerInMS (u16)
//	51: pitStopShouldServePen
//	52: speedTrapFastestSpeed (f32), 56: speedTrapFastestLap (u8)
const lapDataEntrySize = 57

// LapDataEntry is the decoded per-car row of the lap data packet (kind 2).
type LapDataEntry struct {
	CarIdx                int
	LastLapTimeMs         int
	CurrentLapTimeMs      int
	Sector1TimeMs         int
	Sector2TimeMs         int
	CarPosition           int
	CurrentLapNum         int
	PitStatus             int
	NumPitStops           int
	CurrentLapInvalid     int
	Penalties             int
	TotalWarnings         int
	CornerCuttingWarnings int
	UnservedDriveThrough  int
	UnservedStopGo        int
	GridPosition          int
	DriverStatus          int
	ResultStatus          int
	PitLaneTimeInLaneMs   int
	PitStopTimerMs        int
	PitStopShouldServePen int
}

// ParseLapData decodes all 22 car rows. Returns nil if the buffer cannot
// hold them.
func ParseLapData(data []byte) []LapDataEntry {
	if len(data) < HeaderSize+lapDataEntrySize*MaxCars {
		return nil
	}

	entries := make([]LapDataEntry, MaxCars)
	for i := 0; i < MaxCars; i++ {
		off := HeaderSize + i*lapDataEntrySize
		entries[i] = LapDataEntry{
			CarIdx:                i,
			LastLapTimeMs:         int(u32(data, off+0)),
			CurrentLapTimeMs:      int(u32(data, off+4)),
			Sector1TimeMs:         sectorMs(u16(data, off+8), data[off+10]),
			Sector2TimeMs:         sectorMs(u16(data, off+11), data[off+13]),
			CarPosition:           int(data[off+32]),
			CurrentLapNum:         int(data[off+33]),
			PitStatus:             int(data[off+34]),
			NumPitStops:           int(data[off+35]),
			CurrentLapInvalid:     int(data[off+37]),
			Penalties:             int(data[off+38]),
			TotalWarnings:         int(data[off+39]),
			CornerCuttingWarnings: int(data[off+40]),
			UnservedDriveThrough:  int(data[off+41]),
			UnservedStopGo:        int(data[off+42]),
			GridPosition:          int(data[off+43]),
			DriverStatus:          int(data[off+44]),
			ResultStatus:          int(data[off+45]),
			PitLaneTimeInLaneMs:   int(u16(data, off+47)),
			PitStopTimerMs:        int(u16(data, off+49)),
			PitStopShouldServePen: int(data[off+51]),
		}
	}
	return entries
}
