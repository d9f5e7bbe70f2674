package model

// Event is one entry of a session's finalized event log. Data is nil for
// marker events that carry no payload (SSTA, SEND, LGOT, CHQF, ...).
type Event struct {
	TsMs int64      `json:"tsMs"`
	Code string     `json:"code"`
	Name string     `json:"name"`
	Data *EventData `json:"data,omitempty"`
}

// EventData is the union of all per-code payload fields. Vehicle indices
// come with a resolved tag when the index maps to a known driver.
type EventData struct {
	VehicleIdx *int   `json:"vehicleIdx,omitempty"`
	VehicleTag string `json:"vehicleTag,omitempty"`

	OvertakerIdx *int   `json:"overtakerIdx,omitempty"`
	OvertakerTag string `json:"overtakerTag,omitempty"`
	OvertakenIdx *int   `json:"overtakenIdx,omitempty"`
	OvertakenTag string `json:"overtakenTag,omitempty"`

	Vehicle1Idx *int   `json:"vehicle1Idx,omitempty"`
	Vehicle1Tag string `json:"vehicle1Tag,omitempty"`
	Vehicle2Idx *int   `json:"vehicle2Idx,omitempty"`
	Vehicle2Tag string `json:"vehicle2Tag,omitempty"`

	OtherVehicleIdx *int   `json:"otherVehicleIdx,omitempty"`
	OtherVehicleTag string `json:"otherVehicleTag,omitempty"`

	PenaltyType          *int   `json:"penaltyType,omitempty"`
	PenaltyTypeName      string `json:"penaltyTypeName,omitempty"`
	InfringementType     *int   `json:"infringementType,omitempty"`
	InfringementTypeName string `json:"infringementTypeName,omitempty"`
	TimeSec              *int   `json:"timeSec,omitempty"`
	LapNum               *int   `json:"lapNum,omitempty"`
	PlacesGained         *int   `json:"placesGained,omitempty"`

	Reason     *int     `json:"reason,omitempty"`
	LapTimeSec *float64 `json:"lapTimeSec,omitempty"`

	SafetyCarType *int `json:"safetyCarType,omitempty"`
	EventType     *int `json:"eventType,omitempty"`
}
