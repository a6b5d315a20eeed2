package audio

// UpsampleMuLawToPCM16k converts μ-law 8kHz bytes to little-endian signed
// 16-bit PCM at 16kHz. Sample 2i is source sample i decoded to linear;
// sample 2i+1 is the arithmetic mean of samples i and i+1, with the final
// sample repeating itself. A linear interpolant is enough here: voice-band
// telephony audio tolerates the mild aliasing it introduces.
func UpsampleMuLawToPCM16k(mu []byte) []byte {
	out := make([]byte, 0, len(mu)*4)
	for i, b := range mu {
		s := DecodeMuLawSample(b)
		next := s
		if i < len(mu)-1 {
			next = DecodeMuLawSample(mu[i+1])
		}
		mid := int16((int32(s) + int32(next)) >> 1)
		out = appendSample(out, s)
		out = appendSample(out, mid)
	}
	return out
}

// DownsamplePCM16kToMuLaw converts little-endian signed 16-bit PCM at
// 16kHz to μ-law 8kHz by keeping every second sample (plain decimation,
// no anti-alias filter). Trailing bytes that do not form a kept sample
// are ignored.
func DownsamplePCM16kToMuLaw(pcm []byte) []byte {
	half := len(pcm) / 4
	out := make([]byte, half)
	for i := 0; i < half; i++ {
		// Little-endian 16-bit signed integer
		s := int16(pcm[i*4]) | int16(pcm[i*4+1])<<8
		out[i] = EncodeMuLawSample(s)
	}
	return out
}

func appendSample(dst []byte, s int16) []byte {
	return append(dst, byte(s), byte(uint16(s)>>8))
}
