// Package audio implements the sample-format conversions used by the call
// bridge: μ-law companding per the North American telephony convention and
// the 8kHz↔16kHz resampling between the PSTN leg and the agent leg.
//
// Everything in this package is pure and stateless; the decode table is
// built once at init and never mutated, so all functions are safe to call
// from any goroutine without coordination.
package audio

const (
	muLawBias = 0x84
	muLawMax  = 32635
)

// decodeTable maps every μ-law byte to its 16-bit linear PCM value.
var decodeTable [256]int16

func init() {
	for i := range decodeTable {
		mu := ^byte(i)
		sign := mu & 0x80
		exponent := (mu >> 4) & 0x07
		mantissa := mu & 0x0f
		magnitude := ((int32(mantissa) << 3) + muLawBias) << exponent
		magnitude -= muLawBias
		if sign != 0 {
			magnitude = -magnitude
		}
		decodeTable[i] = int16(magnitude)
	}
}

// DecodeMuLawSample expands one μ-law byte to a linear PCM sample.
func DecodeMuLawSample(b byte) int16 {
	return decodeTable[b]
}

// EncodeMuLawSample compresses a linear PCM sample to one μ-law byte.
// The companding curve is the published bit-exact algorithm: clamp to
// 32635, add the 0x84 bias, locate the exponent by the highest set bit of
// the biased 14-bit magnitude, then invert per the μ-law convention.
func EncodeMuLawSample(sample int16) byte {
	var sign byte
	magnitude := int32(sample)
	if magnitude < 0 {
		sign = 0x80
		magnitude = -magnitude
	}
	if magnitude > muLawMax {
		magnitude = muLawMax
	}
	magnitude += muLawBias

	exponent := byte(7)
	for mask := int32(0x4000); exponent > 0 && magnitude&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(magnitude>>(exponent+3)) & 0x0f
	return ^(sign | exponent<<4 | mantissa)
}
