package export

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"slpscribe/internal/domain"
)

const (
	transcriptFileName = "transcript.txt"
	recordingFileName  = "recording.wav"

	bitsPerSample = 16
)

// Writer saves session artifacts into a local export directory. The
// directory is created on first use.
type Writer struct {
	dir        string
	sampleRate int
	channels   int
}

func NewWriter(dir string, sampleRate, channels int) *Writer {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Writer{dir: dir, sampleRate: sampleRate, channels: channels}
}

// SaveTranscript writes the utterances as plain text, one speaker-labelled
// line per utterance, and returns the file path.
func (w *Writer) SaveTranscript(utterances []domain.Utterance) (string, error) {
	if len(utterances) == 0 {
		return "", domain.Failuref(domain.FailureExportFailed, "no utterances to export")
	}

	var b strings.Builder
	for _, u := range utterances {
		speaker := u.Speaker
		if speaker == "" {
			speaker = "?"
		}
		fmt.Fprintf(&b, "Speaker %s: %s\n", speaker, u.Text)
	}

	path := filepath.Join(w.dir, transcriptFileName)
	if err := w.writeFile(path, []byte(b.String())); err != nil {
		return "", err
	}
	return path, nil
}

// SaveRecording wraps the raw pcm_s16le artifact in a wav container and
// returns the file path.
func (w *Writer) SaveRecording(audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", domain.Failuref(domain.FailureExportFailed, "no audio to export")
	}

	path := filepath.Join(w.dir, recordingFileName)
	if err := w.writeFile(path, append(w.wavHeader(len(audio)), audio...)); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return domain.Failure(domain.FailureExportFailed, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.Failure(domain.FailureExportFailed, err)
	}
	return nil
}

// wavHeader builds the canonical 44-byte RIFF header for a pcm_s16le body
// of the given size.
func (w *Writer) wavHeader(dataSize int) []byte {
	blockAlign := w.channels * bitsPerSample / 8
	byteRate := w.sampleRate * blockAlign

	header := make([]byte, 0, 44)
	header = append(header, []byte("RIFF")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataSize))
	header = append(header, []byte("WAVE")...)
	header = append(header, []byte("fmt ")...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, uint16(w.channels))
	header = binary.LittleEndian.AppendUint32(header, uint32(w.sampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(byteRate))
	header = binary.LittleEndian.AppendUint16(header, uint16(blockAlign))
	header = binary.LittleEndian.AppendUint16(header, bitsPerSample)
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataSize))
	return header
}
