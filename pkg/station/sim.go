package station

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Portovedo/Depassivation/pkg/config"
	"github.com/Portovedo/Depassivation/pkg/fixture"
)

// Sim simulates a fixture for testing and development. Rather than faking
// the protocol it runs the real firmware controller against a modeled
// battery, so the host sees the same states, cadences and report lines the
// hardware produces.
type Sim struct {
	cfg *config.SimConfig

	reports chan Report
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc

	connected bool
	pending   []string // commands queued for the controller loop

	battery *simBattery
	gate    *simPin
	ctrl    *fixture.Controller
}

// NewSim creates a simulated fixture.
func NewSim(cfg *config.SimConfig) *Sim {
	if cfg == nil {
		c := config.Default().Sim
		cfg = &c
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sim{
		cfg:     cfg,
		reports: make(chan Report, DefaultBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect boots the simulated fixture and starts its loop.
func (s *Sim) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	s.battery = newSimBattery(s.cfg)
	s.gate = &simPin{}
	s.gate.onRise = s.battery.loadPulse

	s.ctrl = fixture.New(fixture.Config{}, fixture.Hardware{
		Sensor:        &simSensor{battery: s.battery, gate: s.gate},
		Link:          &simLink{sim: s},
		Gate:          s.gate,
		LoadLED:       &simPin{},
		RGB:           discardRGB{},
		StartButton:   openButton{},
		AbortButton:   openButton{},
		MeasureButton: openButton{},
		// The settle delay is irrelevant against an instantaneous model.
		Sleep: func(time.Duration) {},
	})
	s.ctrl.Boot(time.Now())

	s.connected = true
	go s.run()

	return nil
}

// Close stops the simulated fixture.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.cancel()
	s.connected = false
	close(s.reports)

	return nil
}

// Reports returns the channel for reading parsed fixture output.
func (s *Sim) Reports() <-chan Report {
	return s.reports
}

// StartTest queues a START command for the simulated fixture.
func (s *Sim) StartTest(duration time.Duration) error {
	sec := int(duration / time.Second)
	if sec <= 0 {
		return fmt.Errorf("invalid test duration %v", duration)
	}
	return s.queue(fmt.Sprintf("START,%d", sec))
}

// Abort queues an ABORT command.
func (s *Sim) Abort() error {
	return s.queue("ABORT")
}

// SetLive switches the simulated fixture into or out of live view.
func (s *Sim) SetLive(live bool) error {
	if live {
		return s.queue("SET_MODE,LIVE")
	}
	return s.queue("SET_MODE,IDLE")
}

// SetLoad drives the simulated load switch manually.
func (s *Sim) SetLoad(on bool) error {
	if on {
		return s.queue("SET_MOSFET,1")
	}
	return s.queue("SET_MOSFET,0")
}

// IsConnected returns whether the simulated device is running.
func (s *Sim) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Sim) queue(cmd string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return fmt.Errorf("not connected")
	}

	s.pending = append(s.pending, cmd)
	return nil
}

// run drives the controller loop at the configured cadence.
func (s *Sim) run() {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.connected {
				s.ctrl.Tick(time.Now())
			}
			s.mu.Unlock()
		}
	}
}

// emit parses a firmware output line and delivers it to the host. Called
// from the controller loop with s.mu held.
func (s *Sim) emit(line string) {
	select {
	case s.reports <- ParseReport(line):
	default:
		// Channel full, drop.
	}
}

// popCommand takes the oldest queued command, if any. Called from the
// controller loop with s.mu held.
func (s *Sim) popCommand() (string, bool) {
	if len(s.pending) == 0 {
		return "", false
	}
	cmd := s.pending[0]
	s.pending = s.pending[1:]
	return cmd, true
}

// simLink adapts the Sim's command queue and report channel to the
// fixture's line transport.
type simLink struct {
	sim *Sim
}

func (l *simLink) ReadLine() (string, bool) { return l.sim.popCommand() }
func (l *simLink) WriteLine(s string)       { l.sim.emit(s) }

// simBattery models a passivated lithium primary cell: high internal
// resistance that burns off while current is drawn, raising the voltage the
// cell holds under load.
type simBattery struct {
	ocv       float64 // open circuit voltage, V
	rInternal float64 // Ohm, decays under load
	rFloor    float64 // Ohm, fully depassivated
	rLoad     float64 // Ohm
	recovery  float64 // Ohm shed per second of load time
	noise     float64 // V

	born time.Time
}

func newSimBattery(cfg *config.SimConfig) *simBattery {
	return &simBattery{
		ocv:       cfg.OpenCircuitVoltage,
		rInternal: cfg.InternalResistance,
		rFloor:    cfg.InternalResistance * 0.1,
		rLoad:     cfg.LoadResistance,
		recovery:  cfg.RecoveryRate,
		noise:     cfg.NoiseLevel,
		born:      time.Now(),
	}
}

// loadPulse accounts for one measurement window of load time. The fixture
// only energizes the load briefly per sample, so depassivation progresses
// pulse by pulse.
func (b *simBattery) loadPulse() {
	b.rInternal -= b.recovery * fixture.SettleDelay.Seconds()
	if b.rInternal < b.rFloor {
		b.rInternal = b.rFloor
	}
}

// terminal returns the loaded terminal voltage (V) and current (mA).
func (b *simBattery) terminal(loaded bool) (float64, float64) {
	if !loaded {
		return b.ocv + b.jitter(), 0
	}
	v := b.ocv * b.rLoad / (b.rLoad + b.rInternal)
	return v + b.jitter(), v / b.rLoad * 1000
}

func (b *simBattery) jitter() float64 {
	t := float64(time.Since(b.born).Nanoseconds())
	return (math.Sin(t*0.001) + math.Cos(t*0.0013)) * b.noise * 0.5
}

// simSensor exposes the battery model through the power sensor boundary.
// The shunt drop is derived from a 0.1 Ohm sense resistor so the firmware's
// load voltage reconstruction lands back on the terminal voltage.
type simSensor struct {
	battery *simBattery
	gate    *simPin
}

const simShuntOhm = 0.1

func (s *simSensor) Init() error { return nil }

func (s *simSensor) BusVoltage() float32 {
	v, i := s.battery.terminal(s.gate.state)
	return float32(v - i/1000*simShuntOhm)
}

func (s *simSensor) ShuntVoltage() float32 {
	_, i := s.battery.terminal(s.gate.state)
	return float32(i * simShuntOhm)
}

func (s *simSensor) Current() float32 {
	_, i := s.battery.terminal(s.gate.state)
	return float32(i)
}

func (s *simSensor) Power() float32 {
	v, i := s.battery.terminal(s.gate.state)
	return float32(v * i)
}

type simPin struct {
	state  bool
	onRise func()
}

func (p *simPin) High() {
	if !p.state && p.onRise != nil {
		p.onRise()
	}
	p.state = true
}

func (p *simPin) Low() { p.state = false }

type discardRGB struct{}

func (discardRGB) Set(fixture.Color) {}

// openButton is a never-pressed input.
type openButton struct{}

func (openButton) Get() bool { return false }
