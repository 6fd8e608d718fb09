//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 1  // ADC read interval in milliseconds
	NUM_SAMPLES        = 20 // Number of ADC reads averaged per printed line
	OUTPUT_INTERVAL_MS = 50 // Minimum time between printed lines

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Voltage divider in front of the ADC pin (ohms), brings 0-5V into ADC range
	DIVIDER_R1 = 10000
	DIVIDER_R2 = 20000

	// ADC pin
	PIN_ADC = machine.A0

	// Serial configuration
	// One line per reading, e.g. "4.56\r\n" = 6 bytes.
	// 20 lines/sec * 6 bytes = 120 bytes/sec, well within 9600 baud (960 bytes/sec).
	UART_BAUD_RATE = 9600
)
