//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"strconv"
	"time"

	"github.com/chewxy/math32"
)

var (
	adc  machine.ADC
	uart = machine.UART0

	// ADC averaging - running sum and count
	adcSum   uint32
	adcCount int

	// Timing
	lastADCRead time.Time
	lastOutput  time.Time

	// Output line buffer
	lineBuffer [16]byte
)

func main() {
	PIN_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})

	adc = machine.ADC{Pin: PIN_ADC}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastADCRead = time.Now()
	lastOutput = lastADCRead

	for {
		now := time.Now()

		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			readADC()
			lastADCRead = now
		}

		if adcCount >= NUM_SAMPLES && now.Sub(lastOutput) >= time.Duration(OUTPUT_INTERVAL_MS)*time.Millisecond {
			outputVoltage()
			adcSum = 0
			adcCount = 0
			lastOutput = now
		}

		time.Sleep(100 * time.Microsecond)
	}
}

func readADC() {
	// machine.ADC.Get returns a 16-bit scaled value regardless of resolution
	value := adc.Get() >> (16 - ADC_RESOLUTION)
	adcSum += uint32(value)
	adcCount++
}

// toVolts converts an averaged ADC reading to volts at the divider input.
func toVolts(reading float32) float32 {
	maxReading := float32(int(1)<<ADC_RESOLUTION - 1)
	volts := reading / maxReading * ADC_REFERENCE_MV / 1000
	volts *= float32(DIVIDER_R1+DIVIDER_R2) / float32(DIVIDER_R2)
	// Two decimals is the resolution the logger prints with
	return math32.Round(volts*100) / 100
}

func outputVoltage() {
	n := adcCount
	if n == 0 {
		n = 1 // Avoid division by zero
	}
	volts := toVolts(float32(adcSum) / float32(n))

	// Output format: "<volts>\r\n", e.g. "4.56\r\n"
	line := strconv.AppendFloat(lineBuffer[:0], float64(volts), 'f', 2, 32)
	line = append(line, '\r', '\n')
	uart.Write(line)
}
