//go:build tinygo

package main

import "machine"

const (
	// High-power control
	PIN_MOSFET_GATE = machine.Pin(13)
	PIN_MOSFET_LED  = machine.Pin(14)

	// RGB status LED (common cathode, one digital output per channel)
	PIN_RGB_R = machine.Pin(25)
	PIN_RGB_G = machine.Pin(26)
	PIN_RGB_B = machine.Pin(27)

	// Push buttons (external 10k pulldowns, pressed = high)
	PIN_BTN_START   = machine.Pin(32)
	PIN_BTN_ABORT   = machine.Pin(33)
	PIN_BTN_MEASURE = machine.Pin(34)

	// Serial configuration
	// Worst case line is a DATA record of ~45 bytes every 100 ms plus
	// occasional status lines; 115200 baud leaves over 20x headroom.
	UART_BAUD_RATE = 115200

	// Main loop pacing. All protocol timing is measured against the clock,
	// not loop iterations, so this only bounds CPU burn.
	LOOP_SLEEP_MS = 1
)
