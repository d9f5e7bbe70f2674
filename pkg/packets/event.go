package packets

// Event codes with a typed payload.
const (
	CodeOvertake     = "OVTK"
	CodePenalty      = "PENA"
	CodeCollision    = "COLL"
	CodeRetirement   = "RTMT"
	CodeFastestLap   = "FTLP"
	CodeSafetyCar    = "SCAR"
	CodeSessionStart = "SSTA"
	CodeSessionEnd   = "SEND"
	CodeLightsOut    = "LGOT"
	CodeChequered    = "CHQF"
	CodeVSCStart     = "VSCN"
	CodeVSCEnd       = "VSCE"
)

type OvertakeEvent struct {
	OvertakerIdx int
	OvertakenIdx int
}

type PenaltyEvent struct {
	PenaltyType      int
	InfringementType int
	VehicleIdx       int
	OtherVehicleIdx  int
	TimeSec          int
	LapNum           int
	PlacesGained     int
}

type CollisionEvent struct {
	Vehicle1Idx int
	Vehicle2Idx int
}

type RetirementEvent struct {
	VehicleIdx int
	Reason     int
}

type FastestLapEvent struct {
	VehicleIdx int
	LapTimeSec float64
}

type SafetyCarEvent struct {
	SafetyCarType int
	EventType     int
}

// Event is the decoded event packet (kind 3): a 4-character ASCII code plus
// a code-specific payload. At most one of the typed fields is non-nil;
// unknown codes carry the code alone.
type Event struct {
	Code       string
	Overtake   *OvertakeEvent
	Penalty    *PenaltyEvent
	Collision  *CollisionEvent
	Retirement *RetirementEvent
	FastestLap *FastestLapEvent
	SafetyCar  *SafetyCarEvent
}

// ParseEvent decodes an event packet. Button events are pure input noise and
// yield nil like a malformed buffer does.
func ParseEvent(data []byte) *Event {
	if len(data) < HeaderSize+4 {
		return nil
	}

	p := HeaderSize
	code := string(data[p : p+4])
	if code == "BUTN" {
		return nil
	}

	evt := &Event{Code: code}
	d := p + 4

	switch code {
	case CodeOvertake:
		if len(data) >= d+2 {
			evt.Overtake = &OvertakeEvent{
				OvertakerIdx: int(data[d]),
				OvertakenIdx: int(data[d+1]),
			}
		}
	case CodePenalty:
		if len(data) >= d+7 {
			evt.Penalty = &PenaltyEvent{
				PenaltyType:      int(data[d]),
				InfringementType: int(data[d+1]),
				VehicleIdx:       int(data[d+2]),
				OtherVehicleIdx:  int(data[d+3]),
				TimeSec:          int(data[d+4]),
				LapNum:           int(data[d+5]),
				PlacesGained:     int(data[d+6]),
			}
		} else if len(data) >= d+3 {
			evt.Penalty = &PenaltyEvent{
				PenaltyType:      int(data[d]),
				InfringementType: int(data[d+1]),
				VehicleIdx:       int(data[d+2]),
			}
		}
	case CodeCollision:
		if len(data) >= d+2 {
			evt.Collision = &CollisionEvent{
				Vehicle1Idx: int(data[d]),
				Vehicle2Idx: int(data[d+1]),
			}
		}
	case CodeRetirement:
		if len(data) >= d+2 {
			evt.Retirement = &RetirementEvent{
				VehicleIdx: int(data[d]),
				Reason:     int(data[d+1]),
			}
		}
	case CodeFastestLap:
		if len(data) >= d+5 {
			evt.FastestLap = &FastestLapEvent{
				VehicleIdx: int(data[d]),
				LapTimeSec: float64(f32(data, d+1)),
			}
		}
	case CodeSafetyCar:
		if len(data) >= d+2 {
			evt.SafetyCar = &SafetyCarEvent{
				SafetyCarType: int(data[d]),
				EventType:     int(data[d+1]),
			}
		}
	}

	return evt
}
