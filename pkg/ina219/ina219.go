// Package ina219 drives the TI INA219 power telemetry sensor over I2C.
//
// Only the configuration this fixture uses is implemented: the 32 V / 2 A
// operating range with continuous shunt and bus conversion, matching the
// calibration the battery station was characterized with.
package ina219

import "tinygo.org/x/drivers"

// Address is the default 7-bit bus address (A0 and A1 grounded).
const Address = 0x40

// Register map.
const (
	regConfig      = 0x00
	regShuntV      = 0x01
	regBusV        = 0x02
	regPower       = 0x03
	regCurrent     = 0x04
	regCalibration = 0x05
)

const (
	// configRange32V2A: 32 V bus range, /8 gain (±320 mV shunt), 12-bit
	// ADCs, continuous shunt+bus mode.
	configRange32V2A = 0x399F
	// calibration32V2A yields a 100 uA current LSB with a 0.1 Ohm shunt.
	calibration32V2A = 4096

	currentLSBmA = 0.1 // mA per current register count
	powerLSBmW   = 2.0 // mW per power register count
	busLSBV      = 0.004
	shuntLSBmV   = 0.01
)

// Device is an INA219 on an I2C bus. Not safe for concurrent use; the
// fixture reads it from its single loop.
type Device struct {
	bus  drivers.I2C
	addr uint16

	w [3]byte
	r [2]byte
}

// New creates a handle at the default address. Configure must be called
// before readings are meaningful.
func New(bus drivers.I2C) *Device {
	return &Device{bus: bus, addr: Address}
}

// NewAt creates a handle at a non-default address.
func NewAt(bus drivers.I2C, addr uint16) *Device {
	return &Device{bus: bus, addr: addr}
}

// Connected probes the device by reading the configuration register.
func (d *Device) Connected() bool {
	_, err := d.readWord(regConfig)
	return err == nil
}

// Configure programs the calibration and operating mode for the
// 32 V / 2 A range.
func (d *Device) Configure() error {
	if err := d.writeWord(regCalibration, calibration32V2A); err != nil {
		return err
	}
	return d.writeWord(regConfig, configRange32V2A)
}

// BusVoltage returns the bus voltage in volts. The three low register bits
// are status flags, not data.
func (d *Device) BusVoltage() (float32, error) {
	raw, err := d.readWord(regBusV)
	if err != nil {
		return 0, err
	}
	return float32(raw>>3) * busLSBV, nil
}

// ShuntVoltage returns the shunt drop in millivolts. The register is a
// signed quantity: current can flow either way.
func (d *Device) ShuntVoltage() (float32, error) {
	raw, err := d.readWord(regShuntV)
	if err != nil {
		return 0, err
	}
	return float32(int16(raw)) * shuntLSBmV, nil
}

// Current returns the current in milliamps.
func (d *Device) Current() (float32, error) {
	raw, err := d.readWord(regCurrent)
	if err != nil {
		return 0, err
	}
	return float32(int16(raw)) * currentLSBmA, nil
}

// Power returns the power in milliwatts.
func (d *Device) Power() (float32, error) {
	raw, err := d.readWord(regPower)
	if err != nil {
		return 0, err
	}
	return float32(raw) * powerLSBmW, nil
}

// I2C 16-bit register operations. The INA219 is big-endian: high byte first.

func (d *Device) readWord(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.addr, d.w[:1], d.r[:2]); err != nil {
		return 0, err
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device) writeWord(reg byte, val uint16) error {
	d.w[0] = reg
	d.w[1] = byte(val >> 8)
	d.w[2] = byte(val)
	return d.bus.Tx(d.addr, d.w[:3], nil)
}
