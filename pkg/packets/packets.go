// Package packets decodes the fixed-layout binary telemetry packets emitted
// by the game over UDP. All decoders are pure functions: a too-short buffer
// yields a nil record, an unsupported packet kind yields a header-only
// result. All multi-byte fields are little-endian.
package packets

import (
	"encoding/binary"
	"math"
)

// Parsed is the result of dispatching a raw datagram through the decoder.
// Header is always set; at most one of the typed payload fields is non-nil.
type Parsed struct {
	Header              *Header
	Session             *Session
	LapData             []LapDataEntry
	Event               *Event
	Participants        *Participants
	FinalClassification *FinalClassification
	CarDamage           []CarDamageEntry
	SessionHistory      *SessionHistory
}

// Dispatch parses the header and routes the buffer to the decoder for its
// packet kind. Returns nil when the buffer cannot hold a header; returns a
// header-only result for unsupported kinds so callers can still count them.
func Dispatch(data []byte) *Parsed {
	header := ParseHeader(data)
	if header == nil {
		return nil
	}

	result := &Parsed{Header: header}

	switch header.PacketID {
	case KindSession:
		result.Session = ParseSession(data)
	case KindLapData:
		result.LapData = ParseLapData(data)
	case KindEvent:
		result.Event = ParseEvent(data)
	case KindParticipants:
		result.Participants = ParseParticipants(data)
	case KindFinalClassification:
		result.FinalClassification = ParseFinalClassification(data)
	case KindCarDamage:
		result.CarDamage = ParseCarDamage(data)
	case KindSessionHistory:
		result.SessionHistory = ParseSessionHistory(data)
	}

	return result
}

func u16(data []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(data[off:])
}

func u32(data []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(data[off:])
}

func f32(data []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

func f64(data []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(data[off:]))
}

// sectorMs recombines the protocol's split duration encoding
// (16-bit millisecond remainder plus 8-bit minutes).
func sectorMs(msPart uint16, minutesPart uint8) int {
	return int(minutesPart)*60000 + int(msPart)
}
