package packets

// ForecastSample is one 8-byte weather forecast entry in the session packet.
type ForecastSample struct {
	SessionType     int
	TimeOffsetMin   int
	Weather         int
	TrackTempC      int
	TrackTempChange int
	AirTempC        int
	AirTempChange   int
	RainPercentage  int
}

// Session is the decoded session packet (kind 1). Fixed fields sit at fixed
// payload offsets; the forecast array and the SC/VSC/red-flag counters are
// optional trailing data guarded by length checks.
type Session struct {
	Weather                    int
	TrackTempC                 int
	AirTempC                   int
	TotalLaps                  int
	TrackLength                int
	SessionType                int
	TrackID                    int
	Formula                    int
	SessionTimeLeft            int
	SessionDuration            int
	SafetyCarStatus            int
	NetworkGame                int
	WeatherForecast            []ForecastSample
	NumSafetyCarPeriods        int
	NumVirtualSafetyCarPeriods int
	NumRedFlagPeriods          int
}

const (
	sessionMinPayload    = 126
	maxForecastSamples   = 64
	forecastSampleSize   = 8
	forecastCountOffset  = 126
	scPeriodCountsOffset = 676
)

func ParseSession(data []byte) *Session {
	if len(data) < HeaderSize+sessionMinPayload {
		return nil
	}

	p := HeaderSize
	result := &Session{
		Weather:         int(data[p+0]),
		TrackTempC:      int(int8(data[p+1])),
		AirTempC:        int(int8(data[p+2])),
		TotalLaps:       int(data[p+3]),
		TrackLength:     int(u16(data, p+4)),
		SessionType:     int(data[p+6]),
		TrackID:         int(int8(data[p+7])),
		Formula:         int(data[p+8]),
		SessionTimeLeft: int(u16(data, p+9)),
		SessionDuration: int(u16(data, p+11)),
		SafetyCarStatus: int(data[p+124]),
		NetworkGame:     int(data[p+125]),
		WeatherForecast: []ForecastSample{},
	}

	if len(data) > p+forecastCountOffset+1 {
		count := int(data[p+forecastCountOffset])
		if count > maxForecastSamples {
			count = maxForecastSamples
		}
		fOff := p + forecastCountOffset + 1
		for i := 0; i < count; i++ {
			sOff := fOff + i*forecastSampleSize
			if sOff+forecastSampleSize > len(data) {
				break
			}
			result.WeatherForecast = append(result.WeatherForecast, ForecastSample{
				SessionType:     int(data[sOff]),
				TimeOffsetMin:   int(data[sOff+1]),
				Weather:         int(data[sOff+2]),
				TrackTempC:      int(int8(data[sOff+3])),
				TrackTempChange: int(int8(data[sOff+4])),
				AirTempC:        int(int8(data[sOff+5])),
				AirTempChange:   int(int8(data[sOff+6])),
				RainPercentage:  int(data[sOff+7]),
			})
		}
	}

	// SC / VSC / red flag counters sit deep in the payload
	if len(data) > p+scPeriodCountsOffset {
		result.NumSafetyCarPeriods = int(data[p+scPeriodCountsOffset])
	}
	if len(data) > p+scPeriodCountsOffset+1 {
		result.NumVirtualSafetyCarPeriods = int(data[p+scPeriodCountsOffset+1])
	}
	if len(data) > p+scPeriodCountsOffset+2 {
		result.NumRedFlagPeriods = int(data[p+scPeriodCountsOffset+2])
	}

	return result
}
