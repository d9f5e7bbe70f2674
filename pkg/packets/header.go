package packets

import "encoding/binary"

// HeaderSize is the fixed size of the header at the start of every packet.
const HeaderSize = 29

// MaxCars is the structural maximum number of car slots per packet.
const MaxCars = 22

// Supported packet kinds.
const (
	KindSession             = 1
	KindLapData             = 2
	KindEvent               = 3
	KindParticipants        = 4
	KindFinalClassification = 8
	KindCarDamage           = 10
	KindSessionHistory      = 11
)

// InvalidCarIndex marks the "no car" sentinel in header car index fields.
const InvalidCarIndex = 255

// Header is the 29-byte packet header shared by all packet kinds.
type Header struct {
	PacketFormat            uint16
	GameYear                uint8
	GameMajorVersion        uint8
	GameMinorVersion        uint8
	PacketVersion           uint8
	PacketID                uint8
	SessionUID              uint64
	SessionTime             float32
	FrameIdentifier         uint32
	OverallFrameIdentifier  uint32
	PlayerCarIndex          uint8
	SecondaryPlayerCarIndex uint8
}

// ParseHeader decodes the packet header. Returns nil if the buffer is too
// short.
func ParseHeader(data []byte) *Header {
	if len(data) < HeaderSize {
		return nil
	}
	return &Header{
		PacketFormat:            binary.LittleEndian.Uint16(data[0:]),
		GameYear:                data[2],
		GameMajorVersion:        data[3],
		GameMinorVersion:        data[4],
		PacketVersion:           data[5],
		PacketID:                data[6],
		SessionUID:              binary.LittleEndian.Uint64(data[7:]),
		SessionTime:             f32(data, 15),
		FrameIdentifier:         binary.LittleEndian.Uint32(data[19:]),
		OverallFrameIdentifier:  binary.LittleEndian.Uint32(data[23:]),
		PlayerCarIndex:          data[27],
		SecondaryPlayerCarIndex: data[28],
	}
}
