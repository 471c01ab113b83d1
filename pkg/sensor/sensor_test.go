package sensor

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calm() Snapshot {
	return Snapshot{
		Temperature: 20.0,
		Humidity:    50.0,
		Light:       50,
		Accel:       Vector{Z: 1},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		mod  func(s *Snapshot)
		want Status
	}{
		{"calm", func(s *Snapshot) {}, Normal},
		{"temperature at critical boundary", func(s *Snapshot) { s.Temperature = 35.0 }, Alerta},
		{"temperature just above critical", func(s *Snapshot) { s.Temperature = 35.01 }, Critico},
		{"temperature at warning boundary", func(s *Snapshot) { s.Temperature = 25.0 }, Normal},
		{"temperature just above warning", func(s *Snapshot) { s.Temperature = 25.01 }, Alerta},
		{"vibration critical", func(s *Snapshot) { s.Accel = Vector{X: 3, Y: 3, Z: 3} }, Critico},
		{"vibration exactly five", func(s *Snapshot) { s.Accel = Vector{X: 3, Y: 4} }, Alerta},
		{"vibration warning", func(s *Snapshot) { s.Accel = Vector{Z: 2.5} }, Alerta},
		{"vibration exactly two", func(s *Snapshot) { s.Accel = Vector{Z: 2} }, Normal},
		{"humidity high", func(s *Snapshot) { s.Humidity = 85 }, Alerta},
		{"humidity at high boundary", func(s *Snapshot) { s.Humidity = 80 }, Normal},
		{"humidity low", func(s *Snapshot) { s.Humidity = 10 }, Alerta},
		{"humidity at low boundary", func(s *Snapshot) { s.Humidity = 20 }, Normal},
		{"zeroed invalid climate", func(s *Snapshot) { s.Temperature, s.Humidity = 0, 0 }, Alerta},
		{"critical temperature wins over humidity", func(s *Snapshot) { s.Temperature, s.Humidity = 40, 90 }, Critico},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := calm()
			tt.mod(&s)
			assert.Equal(t, tt.want, Classify(s))
		})
	}
}

func TestClassify_CriticalTemperatureDominates(t *testing.T) {
	for _, temp := range []float32{35.01, 36, 50, 120} {
		for _, hum := range []float32{0, 19, 50, 81, 100} {
			for _, az := range []float32{0, 1, 2.5, 6} {
				s := Snapshot{Temperature: temp, Humidity: hum, Accel: Vector{Z: az}}
				assert.Equal(t, Critico, Classify(s), "temp=%v hum=%v az=%v", temp, hum, az)
			}
		}
	}
}

func TestClassify_WarningVibrationBelowWarmTemperature(t *testing.T) {
	for _, temp := range []float32{-10, 0, 15, 25} {
		for _, az := range []float32{2.01, 3, 4.5, 5} {
			s := Snapshot{Temperature: temp, Humidity: 50, Accel: Vector{Z: az}}
			assert.Equal(t, Alerta, Classify(s), "temp=%v az=%v", temp, az)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	s := Snapshot{Temperature: 30, Humidity: 85, Light: 10, Accel: Vector{1, 1, 1}, Gyro: Vector{5, 5, 5}}
	first := Classify(s)
	for range 100 {
		assert.Equal(t, first, Classify(s))
	}
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name       string
		snapshot   Snapshot
		wantStatus Status
		wantAlerts []AlertKind
	}{
		{
			name:       "hot machine",
			snapshot:   Snapshot{Temperature: 36, Humidity: 50, Light: 50, Accel: Vector{Z: 1}},
			wantStatus: Critico,
			wantAlerts: []AlertKind{TemperatureCritical},
		},
		{
			name:       "humid room",
			snapshot:   Snapshot{Temperature: 22, Humidity: 85, Light: 10, Accel: Vector{Z: 1}},
			wantStatus: Alerta,
			wantAlerts: []AlertKind{HumidityHigh},
		},
		{
			name:       "shaking machine",
			snapshot:   Snapshot{Temperature: 20, Humidity: 50, Light: 50, Accel: Vector{3, 3, 3}},
			wantStatus: Critico,
			wantAlerts: []AlertKind{VibrationExcessive},
		},
		{
			name:       "everything wrong",
			snapshot:   Snapshot{Temperature: 40, Humidity: 10, Accel: Vector{4, 4, 4}},
			wantStatus: Critico,
			wantAlerts: []AlertKind{TemperatureCritical, VibrationExcessive, HumidityLow},
		},
		{
			name:       "calm",
			snapshot:   calm(),
			wantStatus: Normal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, Classify(tt.snapshot))

			var kinds []AlertKind
			for _, a := range CheckAlerts(tt.snapshot) {
				kinds = append(kinds, a.Kind)
			}
			assert.Equal(t, tt.wantAlerts, kinds)
		})
	}
}

func TestVibration(t *testing.T) {
	assert.InDelta(t, 5.196, Vibration(Snapshot{Accel: Vector{3, 3, 3}}), 0.001)
	assert.InDelta(t, 1.0, Vibration(calm()), 1e-6)
	assert.Equal(t, float32(0), Vibration(Snapshot{}))
}

func TestAlertText(t *testing.T) {
	a := Alert{Kind: HumidityHigh, Severity: Alerta}
	assert.Equal(t, "high humidity", a.Reason())
	assert.Equal(t, "ALERTA - high humidity", a.Message())
	assert.Equal(t, "ALERTA - high humidity (corrosion risk)", a.Notice())

	c := Alert{Kind: TemperatureCritical, Severity: Critico}
	assert.Equal(t, "CRITICO - critical temperature", c.Message())
}

func TestStatusLabels(t *testing.T) {
	for _, s := range []Status{Normal, Alerta, Critico} {
		got, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("BROKEN")
	assert.Error(t, err)
	assert.Equal(t, "Status(7)", Status(7).String())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		temp     float32
		hum      float32
		wantTemp float32
		wantHum  float32
	}{
		{"valid", 21.5, 40, 21.5, 40},
		{"nan temperature", math32.NaN(), 40, 0, 0},
		{"nan humidity", 21.5, math32.NaN(), 0, 0},
		{"inf temperature", math32.Inf(1), 40, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Snapshot{Temperature: tt.temp, Humidity: tt.hum, Light: 7}.Normalize()
			assert.Equal(t, tt.wantTemp, s.Temperature)
			assert.Equal(t, tt.wantHum, s.Humidity)
			assert.Equal(t, 7, s.Light)
		})
	}
}

func TestLightLevel(t *testing.T) {
	tests := []struct {
		raw  uint16
		want int
	}{
		{0, 0},
		{40, 0},
		{41, 1},
		{2048, 50},
		{4094, 99},
		{4095, 100},
		{5000, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LightLevel(tt.raw), "raw=%d", tt.raw)
	}
}

func TestDecodeMotion(t *testing.T) {
	frame := [MotionFrameSize]byte{
		0x40, 0x00, // ax = 16384
		0xC0, 0x00, // ay = -16384
		0x20, 0x00, // az = 8192
		0x12, 0x34, // die temperature, ignored
		0x00, 0x83, // gx = 131
		0xFF, 0x7D, // gy = -131
		0x00, 0x00, // gz = 0
	}

	accel, gyro := DecodeMotion(frame)
	assert.Equal(t, Vector{X: 1, Y: -1, Z: 0.5}, accel)
	assert.Equal(t, Vector{X: 1, Y: -1, Z: 0}, gyro)
}
