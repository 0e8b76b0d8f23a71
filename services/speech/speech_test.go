package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	req  *speechpb.RecognizeRequest
	resp *speechpb.RecognizeResponse
	err  error
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.req = req
	return f.resp, f.err
}

// The fake must satisfy the same interface as *speech.Client.
var _ Recognizer = (*fakeRecognizer)(nil)

func buildWAV(t *testing.T, sampleRate uint32, channels uint16, seconds int) []byte {
	t.Helper()
	dataSize := sampleRate * uint32(channels) * 2 * uint32(seconds)
	h := waveHeader{
		FileSize:      36 + dataSize,
		FmtSize:       16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    sampleRate,
		ByteRate:      sampleRate * uint32(channels) * 2,
		BlockAlign:    channels * 2,
		BitsPerSample: 16,
		DataSize:      dataSize,
	}
	copy(h.RiffTag[:], "RIFF")
	copy(h.WaveTag[:], "WAVE")
	copy(h.FmtTag[:], "fmt ")
	copy(h.DataTag[:], "data")

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func recognized(texts ...string) *speechpb.RecognizeResponse {
	resp := &speechpb.RecognizeResponse{}
	for _, text := range texts {
		resp.Results = append(resp.Results, &speechpb.SpeechRecognitionResult{
			Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text}},
		})
	}
	return resp
}

func TestTranscribe_MonoWAVIsSentAsIs(t *testing.T) {
	rec := &fakeRecognizer{resp: recognized("bakery in Lisbon", "without a website")}
	tr := NewTranscriber(rec)
	tr.convert = func(context.Context, []byte, string) ([]byte, error) {
		t.Fatal("mono PCM WAV must not be converted")
		return nil, nil
	}

	audio := buildWAV(t, 8000, 1, 1)
	text, err := tr.Transcribe(context.Background(), audio, ".wav", "en-US")
	require.NoError(t, err)

	assert.Equal(t, "bakery in Lisbon without a website", text)
	assert.Equal(t, int32(8000), rec.req.Config.SampleRateHertz)
	assert.Equal(t, "en-US", rec.req.Config.LanguageCode)
	assert.Equal(t, audio, rec.req.Audio.GetContent())
}

func TestTranscribe_ConvertsOtherFormats(t *testing.T) {
	rec := &fakeRecognizer{resp: recognized("hello")}
	tr := NewTranscriber(rec)
	var gotExt string
	tr.convert = func(_ context.Context, _ []byte, ext string) ([]byte, error) {
		gotExt = ext
		return []byte("pcm"), nil
	}

	text, err := tr.Transcribe(context.Background(), []byte("webm-bytes"), ".webm", "pt-PT")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, ".webm", gotExt)
	assert.Equal(t, int32(targetSampleRate), rec.req.Config.SampleRateHertz)
	assert.Equal(t, []byte("pcm"), rec.req.Audio.GetContent())
}

func TestTranscribe_StereoWAVIsConverted(t *testing.T) {
	tr := NewTranscriber(&fakeRecognizer{resp: recognized("ok")})
	converted := false
	tr.convert = func(context.Context, []byte, string) ([]byte, error) {
		converted = true
		return []byte("pcm"), nil
	}

	_, err := tr.Transcribe(context.Background(), buildWAV(t, 8000, 2, 1), ".wav", "en-US")
	require.NoError(t, err)
	assert.True(t, converted)
}

func TestTranscribe_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewTranscriber(&fakeRecognizer{}).Transcribe(context.Background(), nil, ".wav", "en-US")
		assert.Error(t, err)
	})

	t.Run("too long", func(t *testing.T) {
		tr := NewTranscriber(&fakeRecognizer{resp: recognized("x")})
		_, err := tr.Transcribe(context.Background(), buildWAV(t, 100, 1, MaxDurationSeconds+5), ".wav", "en-US")
		assert.ErrorIs(t, err, ErrAudioTooLong)
	})

	t.Run("recognizer failure", func(t *testing.T) {
		tr := NewTranscriber(&fakeRecognizer{err: errors.New("quota")})
		_, err := tr.Transcribe(context.Background(), buildWAV(t, 8000, 1, 1), ".wav", "en-US")
		assert.ErrorContains(t, err, "quota")
	})
}

func TestParseWaveHeader(t *testing.T) {
	_, err := parseWaveHeader([]byte("short"))
	assert.Error(t, err)

	_, err = parseWaveHeader(bytes.Repeat([]byte{0}, 44))
	assert.Error(t, err)

	h, err := parseWaveHeader(buildWAV(t, 16000, 1, 1))
	require.NoError(t, err)
	assert.True(t, h.isMonoPCM16())
	assert.InDelta(t, 1.0, h.duration(), 0.001)
}
