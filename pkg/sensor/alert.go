package sensor

// AlertKind identifies which threshold an alert crossed.
type AlertKind int

const (
	TemperatureCritical AlertKind = iota
	VibrationExcessive
	HumidityHigh
	HumidityLow
)

// Alert is a threshold crossing, reported separately from the snapshot status.
type Alert struct {
	Kind     AlertKind
	Severity Status
}

var alertReasons = [...]struct {
	reason string
	notice string
}{
	TemperatureCritical: {"critical temperature", "temperature above 35C"},
	VibrationExcessive:  {"excessive vibration", "vibration above 5g"},
	HumidityHigh:        {"high humidity", "corrosion risk"},
	HumidityLow:         {"low humidity", "static discharge risk"},
}

// Reason is the short name of the crossed threshold, e.g. "high humidity".
func (a Alert) Reason() string {
	return alertReasons[a.Kind].reason
}

// Message is the text persisted by the host, e.g. "ALERTA - high humidity".
func (a Alert) Message() string {
	return a.Severity.String() + " - " + a.Reason()
}

// Notice is the human readable variant with a hint about the consequence.
func (a Alert) Notice() string {
	return a.Message() + " (" + alertReasons[a.Kind].notice + ")"
}

// CheckAlerts evaluates every alert condition independently; several alerts
// may fire for the same snapshot.
func CheckAlerts(s Snapshot) []Alert {
	var alerts []Alert

	if s.Temperature > CriticalTemperature {
		alerts = append(alerts, Alert{Kind: TemperatureCritical, Severity: Critico})
	}
	if Vibration(s) > CriticalVibration {
		alerts = append(alerts, Alert{Kind: VibrationExcessive, Severity: Critico})
	}
	if s.Humidity > HighHumidity {
		alerts = append(alerts, Alert{Kind: HumidityHigh, Severity: Alerta})
	}
	if s.Humidity < LowHumidity {
		alerts = append(alerts, Alert{Kind: HumidityLow, Severity: Alerta})
	}

	return alerts
}
