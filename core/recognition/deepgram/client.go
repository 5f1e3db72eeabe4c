// Package deepgram provides a recognition gateway backed by Deepgram's
// streaming transcription API. Each call opens a short-lived websocket,
// streams the whole buffer, and collects the finalized transcript.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"

	"github.com/tomazic/vela-core/core/audio"
)

// streamChunkFrames is how many frames go into a single websocket message;
// the byte size follows from the encoding.
const streamChunkFrames = 4096

// responseTimeout caps how long Transcribe waits for the final results after
// the stream is closed.
const responseTimeout = 15 * time.Second

type TranscriptionClient struct {
	model    string
	language string
}

type Option func(*TranscriptionClient)

func WithModel(model string) Option {
	return func(c *TranscriptionClient) { c.model = model }
}

func WithLanguage(language string) Option {
	return func(c *TranscriptionClient) { c.language = language }
}

// NewTranscriptionClient validates that credentials are present; the actual
// connection is opened per Transcribe call.
func NewTranscriptionClient(opts ...Option) (*TranscriptionClient, error) {
	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &TranscriptionClient{model: "nova-3", language: "en-US"}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcribe streams the buffer to Deepgram and returns the concatenated
// finalized transcript. An empty transcript with a nil error means Deepgram
// heard nothing it could transcribe.
func (c *TranscriptionClient) Transcribe(ctx context.Context, sampleRate int, pcm []float32) (string, error) {
	info := audio.EncodingInfo{SampleRate: sampleRate, Format: audio.EncodingLinear16}
	if info.IsZero() {
		info = audio.GetDefaultEncodingInfo()
	}
	encoding, err := convertEncoding(info)
	if err != nil {
		return "", fmt.Errorf("invalid encoding: %w", err)
	}

	conn, err := connectWebsocket(ctx, connectionOptions{
		sampleRate: encoding.SampleRate,
		encoding:   encoding.Format.Name(),
		model:      c.model,
		language:   c.language,
	})
	if err != nil {
		return "", fmt.Errorf("failed to open websocket: %w", err)
	}
	defer conn.Close()

	chunkBytes := streamChunkFrames * info.Format.ByteSize()
	payload := audio.Float32ToBytes(pcm)
	for len(payload) > 0 {
		chunk := payload
		if len(chunk) > chunkBytes {
			chunk = chunk[:chunkBytes]
		}
		payload = payload[len(chunk):]

		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return "", fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return "", fmt.Errorf("failed to close deepgram stream: %w", err)
	}

	deadline := time.Now().Add(responseTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetReadDeadline(deadline)

	return c.collectTranscript(conn)
}

// collectTranscript reads messages until the server closes the stream,
// accumulating finalized segments in order.
func (c *TranscriptionClient) collectTranscript(conn *websocket.Conn) (string, error) {
	var segments []string
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return strings.TrimSpace(strings.Join(segments, " ")), nil
			}
			if len(segments) > 0 {
				// We already have usable text; a dirty close loses nothing.
				return strings.TrimSpace(strings.Join(segments, " ")), nil
			}
			return "", fmt.Errorf("failed to read deepgram websocket message: %w", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}

		var parsedMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			log.Println("Failed to unmarshal deepgram message", "error", err)
			continue
		}

		if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
			continue
		}

		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			log.Println("Failed to unmarshal deepgram message", "error", err)
			continue
		}
		if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
			continue
		}
		if transcript := strings.TrimSpace(msgResp.Channel.Alternatives[0].Transcript); transcript != "" {
			segments = append(segments, transcript)
		}
	}
}

type connectionOptions struct {
	sampleRate int
	encoding   string
	model      string
	language   string
}

func connectWebsocket(ctx context.Context, options connectionOptions) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	listenUrl, _ := url.Parse("wss://api.deepgram.com/v1/listen")
	queryParams := listenUrl.Query()
	queryParams.Set("encoding", options.encoding)
	queryParams.Set("sample_rate", strconv.Itoa(options.sampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", options.model)
	queryParams.Set("language", options.language)
	queryParams.Set("smart_format", "true")
	listenUrl.RawQuery = queryParams.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenUrl.String(),
		http.Header{"Authorization": {"Token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}
