package sensor

import "fmt"

// Status is the overall classification of a snapshot.
type Status int

const (
	Normal Status = iota
	Alerta
	Critico
)

// Classification thresholds.
const (
	CriticalTemperature = 35.0 // °C
	WarningTemperature  = 25.0 // °C
	CriticalVibration   = 5.0  // g
	WarningVibration    = 2.0  // g
	HighHumidity        = 80.0 // %RH
	LowHumidity         = 20.0 // %RH
)

var statusLabels = [...]string{
	Normal:  "NORMAL",
	Alerta:  "ALERTA",
	Critico: "CRITICO",
}

// String returns the protocol label of the status.
func (s Status) String() string {
	if s < Normal || s > Critico {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusLabels[s]
}

// ParseStatus converts a protocol label back into a Status.
func ParseStatus(label string) (Status, error) {
	for i, l := range statusLabels {
		if l == label {
			return Status(i), nil
		}
	}
	return Normal, fmt.Errorf("unknown status %q", label)
}

// Classify derives the status of a single snapshot. Rules are evaluated in
// order and the first match wins; there is no history or hysteresis.
func Classify(s Snapshot) Status {
	vibration := Vibration(s)

	switch {
	case s.Temperature > CriticalTemperature:
		return Critico
	case vibration > CriticalVibration:
		return Critico
	case s.Temperature > WarningTemperature && s.Temperature <= CriticalTemperature:
		return Alerta
	case vibration > WarningVibration && vibration <= CriticalVibration:
		return Alerta
	case s.Humidity > HighHumidity || s.Humidity < LowHumidity:
		return Alerta
	}
	return Normal
}
