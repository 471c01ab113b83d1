package capture

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/itohio/sensmon/pkg/config"
	"github.com/itohio/sensmon/pkg/protocol"
	"github.com/itohio/sensmon/pkg/sampler"
	"github.com/itohio/sensmon/pkg/sensor"
)

// mockCycle is the number of ticks in one full temperature/humidity period.
const mockCycle = 120

// Mock runs the real sampling driver against simulated sensors and feeds its
// output through an in-memory pipe, as if it came from a serial port.
type Mock struct {
	cfg *config.MockConfig

	lines     chan protocol.Line
	mu        sync.RWMutex
	cancel    context.CancelFunc
	pipe      *io.PipeWriter
	wg        sync.WaitGroup
	started   bool
	connected bool
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	return &Mock{
		cfg:       cfg,
		lines:     make(chan protocol.Line, DefaultBufferSize),
		connected: false,
	}
}

// Connect starts the simulated device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	if m.started {
		// The previous connection closed its channel.
		m.lines = make(chan protocol.Line, DefaultBufferSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	m.cancel = cancel
	m.pipe = pw
	m.started = true
	m.connected = true

	sensors := newSimulatedSensors(m.cfg)
	drv := sampler.New(
		sensors,
		protocol.NewEmitter(pw),
		sampler.NewSystemClock(),
		sampler.WithInterval(m.cfg.Interval),
	)

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		notes := append([]string{"Simulated sensors attached"}, sampler.SelfTest(sensors)...)
		drv.Start(notes...)
		drv.Run(ctx)
	}()
	lines := m.lines
	go func() {
		defer m.wg.Done()
		readLines(ctx, pr, lines)
	}()

	return nil
}

// Close stops the simulated device. The lines channel is closed once the
// reader exits.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.pipe.Close()
	m.wg.Wait()
	m.connected = false

	return nil
}

// Lines returns the channel of parsed protocol lines for the current connection.
func (m *Mock) Lines() <-chan protocol.Line {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lines
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// simulatedSensors produces slowly drifting climate values, a day/night light
// ramp and periodic vibration bursts. Every Climate call advances one step.
type simulatedSensors struct {
	cfg        *config.MockConfig
	rng        *rand.Rand
	step       int
	shakeEvery int
}

func newSimulatedSensors(cfg *config.MockConfig) *simulatedSensors {
	shakeEvery := 1
	if cfg.Interval > 0 {
		shakeEvery = max(int(cfg.ShakePeriod/cfg.Interval), 1)
	}

	seed := uint64(cfg.Seed)
	return &simulatedSensors{
		cfg:        cfg,
		rng:        rand.New(rand.NewPCG(seed, seed^0x5eed)),
		shakeEvery: shakeEvery,
	}
}

func (s *simulatedSensors) phase() float64 {
	return 2 * math.Pi * float64(s.step%mockCycle) / mockCycle
}

func (s *simulatedSensors) noise(level float64) float64 {
	return (s.rng.Float64()*2 - 1) * level
}

func (s *simulatedSensors) Climate() (float32, float32, error) {
	s.step++
	p := s.phase()

	temp := s.cfg.BaseTemp + s.cfg.TempSwing*math.Sin(p) + s.noise(0.2)
	hum := s.cfg.BaseHumid + s.cfg.HumidSwing*math.Cos(p) + s.noise(0.5)
	hum = math.Max(0, math.Min(100, hum))

	return float32(temp), float32(hum), nil
}

func (s *simulatedSensors) Light() (uint16, error) {
	// Triangle between dark and bright over one cycle.
	pos := float64(s.step%mockCycle) / mockCycle
	level := 1 - math.Abs(2*pos-1)
	return uint16(level * sensor.LightRawMax), nil
}

func (s *simulatedSensors) Motion() ([sensor.MotionFrameSize]byte, error) {
	ax, ay, az := s.noise(0.02), s.noise(0.02), 1+s.noise(0.02)
	gx, gy, gz := s.noise(0.5), s.noise(0.5), s.noise(0.5)

	// Bursts last three ticks.
	if s.step%s.shakeEvery < 3 && s.step >= s.shakeEvery {
		ax += s.noise(s.cfg.ShakeLevel)
		ay += s.noise(s.cfg.ShakeLevel)
		az += s.noise(s.cfg.ShakeLevel)
		gx, gy, gz = gx*40, gy*40, gz*40
	}

	var frame [sensor.MotionFrameSize]byte
	putWord(frame[0:], ax*sensor.AccelScale)
	putWord(frame[2:], ay*sensor.AccelScale)
	putWord(frame[4:], az*sensor.AccelScale)
	putWord(frame[8:], gx*sensor.GyroScale)
	putWord(frame[10:], gy*sensor.GyroScale)
	putWord(frame[12:], gz*sensor.GyroScale)
	return frame, nil
}

// putWord stores v as a saturated big-endian int16, like the MPU6050 registers.
func putWord(dst []byte, v float64) {
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v)))
	w := uint16(int16(v))
	dst[0] = byte(w >> 8)
	dst[1] = byte(w)
}
