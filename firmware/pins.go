//go:build tinygo

package main

import "machine"

const (
	// HX711 wiring
	PIN_CLOCK = machine.D2 // PD_SCK
	PIN_DATA  = machine.D3 // DOUT

	// Calibration
	CALIBRATION_FACTOR = 0.0027 // Grams per raw count at gain 128
	TARE_SAMPLES       = 32     // Samples averaged by a fresh-boot tare

	// Sampling configuration
	ITERATIONS        = 4   // Samples reported per wake-up
	SAMPLE_INTERVAL_S = 5   // Pause between samples in seconds
	SLEEP_S           = 60  // Sleep between wake-ups in seconds
	POLL_ATTEMPTS     = 100 // Readiness polls before a read times out
	POLL_INTERVAL_MS  = 10  // Pause between readiness polls

	// Serial configuration
	// Format "unix_micros,raw,weight\n", e.g. "1234567890123456,-8388608,-22649\n"
	// is at most ~36 bytes per line, far below what 115200 baud carries.
	UART_BAUD_RATE = 115200
)
