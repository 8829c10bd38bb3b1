//go:build tinygo

//go:generate tinygo flash -target=esp32-coreboard-v2

package main

import (
	"errors"
	"machine"
	"time"

	"github.com/Portovedo/Depassivation/pkg/fixture"
	"github.com/Portovedo/Depassivation/pkg/ina219"
)

var (
	uart = machine.UART0
	i2c  = machine.I2C0
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})
	i2c.Configure(machine.I2CConfig{})

	PIN_MOSFET_GATE.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_MOSFET_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_RGB_R.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_RGB_G.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_RGB_B.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_BTN_START.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_BTN_ABORT.Configure(machine.PinConfig{Mode: machine.PinInput})
	PIN_BTN_MEASURE.Configure(machine.PinConfig{Mode: machine.PinInput})

	ctrl := fixture.New(fixture.Config{}, fixture.Hardware{
		Sensor:        &powerSensor{dev: ina219.New(i2c)},
		Link:          fixture.NewUARTLink(uart),
		Gate:          pin{PIN_MOSFET_GATE},
		LoadLED:       pin{PIN_MOSFET_LED},
		RGB:           &statusLED{},
		StartButton:   pin{PIN_BTN_START},
		AbortButton:   pin{PIN_BTN_ABORT},
		MeasureButton: pin{PIN_BTN_MEASURE},
	})

	ctrl.Boot(time.Now())

	for {
		ctrl.Tick(time.Now())
		time.Sleep(LOOP_SLEEP_MS * time.Millisecond)
	}
}

// pin adapts machine.Pin to the fixture's pin interfaces.
type pin struct {
	p machine.Pin
}

func (p pin) High()     { p.p.High() }
func (p pin) Low()      { p.p.Low() }
func (p pin) Get() bool { return p.p.Get() }

var errSensorMissing = errors.New("ina219 not responding")

// powerSensor adapts the INA219 driver to the fixture boundary. Read
// failures after a successful init are folded into zero readings; the
// controller treats them like an open circuit.
type powerSensor struct {
	dev *ina219.Device
}

func (s *powerSensor) Init() error {
	if !s.dev.Connected() {
		return errSensorMissing
	}
	return s.dev.Configure()
}

func (s *powerSensor) BusVoltage() float32 {
	v, err := s.dev.BusVoltage()
	if err != nil {
		return 0
	}
	return v
}

func (s *powerSensor) ShuntVoltage() float32 {
	v, err := s.dev.ShuntVoltage()
	if err != nil {
		return 0
	}
	return v
}

func (s *powerSensor) Current() float32 {
	v, err := s.dev.Current()
	if err != nil {
		return 0
	}
	return v
}

func (s *powerSensor) Power() float32 {
	v, err := s.dev.Power()
	if err != nil {
		return 0
	}
	return v
}

// statusLED drives the common cathode RGB LED with plain digital outputs:
// a channel is lit when its rendered intensity crosses half scale. Breathing
// therefore shows as a slow blink, which is close enough at arm's length.
type statusLED struct {
	last fixture.Color
	set  bool
}

func (l *statusLED) Set(c fixture.Color) {
	if l.set && c == l.last {
		return
	}
	l.last = c
	l.set = true

	channel(PIN_RGB_R, c.R)
	channel(PIN_RGB_G, c.G)
	channel(PIN_RGB_B, c.B)
}

func channel(p machine.Pin, v uint8) {
	if v >= 128 {
		p.High()
	} else {
		p.Low()
	}
}
