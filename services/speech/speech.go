package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	cloudspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

const (
	MaxDurationSeconds = 60              // 1 minute maximum
	MaxFileSize        = 5 * 1024 * 1024 // 5MB (conservative buffer)
	targetSampleRate   = 16000
)

// AllowedExtensions are the dictation uploads the handler accepts.
var AllowedExtensions = map[string]bool{
	".wav":  true,
	".webm": true,
	".ogg":  true,
}

var ErrAudioTooLong = fmt.Errorf("audio longer than %d seconds", MaxDurationSeconds)

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, ext, language string) (string, error)
}

// Recognizer is the subset of the Cloud Speech client used here.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

var _ Recognizer = (*cloudspeech.Client)(nil)

// CloudTranscriber sends audio to Google Cloud Speech-to-Text.
type CloudTranscriber struct {
	client  Recognizer
	closer  func() error
	convert func(ctx context.Context, audio []byte, ext string) ([]byte, error)
}

func NewCloudTranscriber(ctx context.Context, credentialsFile string) (*CloudTranscriber, error) {
	if credentialsFile == "" {
		return nil, errors.New("speech: GOOGLE_SERVICE_ACCOUNT_FILE is not set")
	}
	client, err := cloudspeech.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speech client: %w", err)
	}
	return &CloudTranscriber{client: client, closer: client.Close, convert: convertAudio}, nil
}

// NewTranscriber wraps an existing recognizer.
func NewTranscriber(r Recognizer) *CloudTranscriber {
	return &CloudTranscriber{client: r, convert: convertAudio}
}

func (t *CloudTranscriber) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer()
}

func (t *CloudTranscriber) Transcribe(ctx context.Context, audio []byte, ext, language string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("audio is empty")
	}
	if len(audio) > MaxFileSize {
		return "", fmt.Errorf("audio exceeds %d bytes", MaxFileSize)
	}

	sampleRate := int32(targetSampleRate)
	pcm := audio
	header, err := parseWaveHeader(audio)
	if ext == ".wav" && err == nil && header.isMonoPCM16() {
		sampleRate = int32(header.SampleRate)
		if header.duration() > MaxDurationSeconds {
			return "", ErrAudioTooLong
		}
	} else {
		pcm, err = t.convert(ctx, audio, ext)
		if err != nil {
			return "", err
		}
	}

	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            sampleRate,
			LanguageCode:               language,
			AudioChannelCount:          1,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}

	var transcript strings.Builder
	for _, result := range resp.Results {
		// The first alternative is the most likely one.
		if len(result.Alternatives) > 0 {
			transcript.WriteString(result.Alternatives[0].Transcript + " ")
		}
	}
	return strings.TrimSpace(transcript.String()), nil
}

type waveHeader struct {
	RiffTag       [4]byte
	FileSize      uint32
	WaveTag       [4]byte
	FmtTag        [4]byte
	FmtSize       uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataTag       [4]byte
	DataSize      uint32
}

func parseWaveHeader(data []byte) (*waveHeader, error) {
	if len(data) < 44 {
		return nil, errors.New("invalid WAV header length")
	}
	var header waveHeader
	if err := binary.Read(bytes.NewReader(data[:44]), binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if string(header.RiffTag[:]) != "RIFF" || string(header.WaveTag[:]) != "WAVE" {
		return nil, errors.New("not a RIFF/WAVE file")
	}
	return &header, nil
}

func (h *waveHeader) isMonoPCM16() bool {
	return h.AudioFormat == 1 && h.NumChannels == 1 && h.BitsPerSample == 16 &&
		string(h.DataTag[:]) == "data" && h.SampleRate > 0
}

func (h *waveHeader) duration() float64 {
	if h.ByteRate == 0 {
		return 0
	}
	return float64(h.DataSize) / float64(h.ByteRate)
}

// convertAudio re-encodes audio to 16 kHz mono LINEAR16 with ffmpeg.
func convertAudio(ctx context.Context, audio []byte, ext string) ([]byte, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found in system PATH: %v", err)
	}

	input, err := os.CreateTemp("", "dictation-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(input.Name())
	if _, err := input.Write(audio); err != nil {
		input.Close()
		return nil, fmt.Errorf("failed to save audio file: %w", err)
	}
	input.Close()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-i", input.Name(),
		"-t", fmt.Sprint(MaxDurationSeconds),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprint(targetSampleRate),
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg conversion failed: %s", stderr.String())
	}
	return stdout.Bytes(), nil
}
