package pcm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

const wavHeaderSize = 44

type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// EncodeWAV wraps mono PCM16 samples into an uncompressed RIFF/WAVE
// container. This is the blob handed to the transcription backend, so the
// layout has to be bit-exact.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("unable to encode an empty sample buffer")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	const (
		numChannels   = uint16(1)
		bitsPerSample = uint16(16)
	)
	dataSize := uint32(len(samples) * 2)

	hdr := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(wavHeaderSize-8) + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   numChannels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(numChannels) * uint32(bitsPerSample) / 8,
		BlockAlign:    numChannels * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(samples)*2))
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("unable to write the WAV header: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("unable to write the sample data: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeWAV parses a mono PCM16 WAV blob back into samples and a sample rate.
func DecodeWAV(data []byte) ([]int16, int, error) {
	if len(data) < wavHeaderSize {
		return nil, 0, fmt.Errorf("WAV data is too short: %d < %d bytes", len(data), wavHeaderSize)
	}

	var hdr wavHeader
	buf := bytes.NewReader(data)
	if err := binary.Read(buf, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("unable to read the WAV header: %w", err)
	}

	switch {
	case string(hdr.ChunkID[:]) != "RIFF" || string(hdr.Format[:]) != "WAVE":
		return nil, 0, fmt.Errorf("not a RIFF/WAVE container")
	case string(hdr.Subchunk1ID[:]) != "fmt " || string(hdr.Subchunk2ID[:]) != "data":
		return nil, 0, fmt.Errorf("unexpected chunk layout")
	case hdr.AudioFormat != 1:
		return nil, 0, fmt.Errorf("unsupported audio format %d, expected PCM", hdr.AudioFormat)
	case hdr.BitsPerSample != 16:
		return nil, 0, fmt.Errorf("unsupported bit depth %d, expected 16", hdr.BitsPerSample)
	case hdr.NumChannels != 1:
		return nil, 0, fmt.Errorf("unsupported channel count %d, expected mono", hdr.NumChannels)
	}

	numSamples := int(hdr.Subchunk2Size) / 2
	if numSamples <= 0 {
		return nil, 0, fmt.Errorf("the WAV contains no sample data")
	}

	samples := make([]int16, numSamples)
	if err := binary.Read(buf, binary.LittleEndian, samples); err != nil {
		return nil, 0, fmt.Errorf("unable to read the sample data: %w", err)
	}
	return samples, int(hdr.SampleRate), nil
}

// WAVDuration reports the play time of an encoded mono PCM16 WAV blob.
func WAVDuration(data []byte) (time.Duration, error) {
	if len(data) < wavHeaderSize {
		return 0, fmt.Errorf("WAV data is too short: %d < %d bytes", len(data), wavHeaderSize)
	}
	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	if sampleRate == 0 {
		return 0, fmt.Errorf("invalid sample rate: 0")
	}
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	numSamples := dataSize / 2
	return time.Duration(numSamples) * time.Second / time.Duration(sampleRate), nil
}
