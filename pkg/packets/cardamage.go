package packets

import "math"

// per-car row: 4 x f32 tyre wear, 4 x u8 tyre damage, 4 x u8 brake damage,
// 4 x u8 tyre blisters, then wing/engine bytes; wings at offsets 28..30
const carDamageEntrySize = 46

// TyreSet holds one value per tyre in RL/RR/FL/FR order.
type TyreSet struct {
	RL float64
	RR float64
	FL float64
	FR float64
}

// WingDamage holds the wing damage percentages.
type WingDamage struct {
	FrontLeft  int
	FrontRight int
	Rear       int
}

// CarDamageEntry is one decoded row of the car damage packet (kind 10).
type CarDamageEntry struct {
	CarIdx      int
	TyreWear    TyreSet
	TyreWearAvg float64
	TyresDamage TyreSet
	Wing        WingDamage
}

// ParseCarDamage decodes all 22 car rows. Returns nil if the buffer cannot
// hold them.
func ParseCarDamage(data []byte) []CarDamageEntry {
	if len(data) < HeaderSize+carDamageEntrySize*MaxCars {
		return nil
	}

	entries := make([]CarDamageEntry, MaxCars)
	for i := 0; i < MaxCars; i++ {
		off := HeaderSize + i*carDamageEntrySize

		wear := TyreSet{
			RL: float64(f32(data, off+0)),
			RR: float64(f32(data, off+4)),
			FL: float64(f32(data, off+8)),
			FR: float64(f32(data, off+12)),
		}
		entries[i] = CarDamageEntry{
			CarIdx:      i,
			TyreWear:    wear,
			TyreWearAvg: math.Round((wear.RL+wear.RR+wear.FL+wear.FR)/4.0*10) / 10,
			TyresDamage: TyreSet{
				RL: float64(data[off+16]),
				RR: float64(data[off+17]),
				FL: float64(data[off+18]),
				FR: float64(data[off+19]),
			},
			Wing: WingDamage{
				FrontLeft:  int(data[off+28]),
				FrontRight: int(data[off+29]),
				Rear:       int(data[off+30]),
			},
		}
	}
	return entries
}
