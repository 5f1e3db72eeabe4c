// Package deepgram provides a synthesis gateway backed by Deepgram's Speak
// websocket API. Each call opens a short-lived connection, sends the whole
// text, and yields audio chunks until the server confirms the flush.
package deepgram

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomazic/vela-core/core/audio"
	"github.com/tomazic/vela-core/core/synthesis"
)

const defaultVoice = "aura-2-thalia-en"

// streamTimeout caps how long a single synthesis request may run.
const streamTimeout = 30 * time.Second

type SynthesisClient struct {
	voice      string
	sampleRate int
}

type Option func(*SynthesisClient)

func WithVoice(voice string) Option {
	return func(c *SynthesisClient) { c.voice = voice }
}

func WithSampleRate(sampleRate int) Option {
	return func(c *SynthesisClient) { c.sampleRate = sampleRate }
}

// NewSynthesisClient validates that credentials are present; the actual
// connection is opened per Synthesize call.
func NewSynthesisClient(opts ...Option) (*SynthesisClient, error) {
	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &SynthesisClient{voice: defaultVoice, sampleRate: audio.DefaultSampleRate}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Synthesize converts text into an ordered, finite chunk sequence. The
// sequence is single-use; iteration stops after the server flush
// confirmation.
func (c *SynthesisClient) Synthesize(ctx context.Context, text string, opts ...synthesis.Option) (iter.Seq2[synthesis.Chunk, error], error) {
	options := synthesis.Options{}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := connectWebsocket(ctx, c.resolveVoice(options), c.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	if err := conn.WriteJSON(speakMsg(text)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send text to deepgram through websocket: %w", err)
	}
	if err := conn.WriteJSON(flushMsg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to flush deepgram buffer through websocket: %w", err)
	}

	deadline := time.Now().Add(streamTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetReadDeadline(deadline)

	sampleRate := c.sampleRate
	return func(yield func(synthesis.Chunk, error) bool) {
		defer func() {
			if err := conn.WriteJSON(closeMsg); err != nil {
				conn.Close()
				return
			}
			conn.Close()
		}()

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					yield(synthesis.Chunk{}, fmt.Errorf("failed to read deepgram websocket message: %w", err))
				}
				return
			}

			switch msgType {
			case websocket.BinaryMessage:
				if len(msg) == 0 {
					continue
				}
				chunk := synthesis.Chunk{
					Samples:    audio.BytesToFloat32(msg),
					SampleRate: sampleRate,
				}
				if !yield(chunk, nil) {
					return
				}
			case websocket.TextMessage:
				var parsedMsg struct {
					Type string `json:"type"`
				}
				if err := json.Unmarshal(msg, &parsedMsg); err != nil {
					log.Println("Failed to unmarshal deepgram message", "error", err)
					continue
				}
				if parsedMsg.Type == "Flushed" {
					// All audio for the request has been delivered.
					return
				}
			}
		}
	}, nil
}

// resolveVoice picks the request voice: explicit override first, then a
// language-derived default, then the client voice.
func (c *SynthesisClient) resolveVoice(options synthesis.Options) string {
	if options.Voice != "" {
		return options.Voice
	}
	switch options.LanguageHint {
	case "es":
		return "aura-2-celeste-es"
	case "", "en":
		return c.voice
	}
	return c.voice
}

func connectWebsocket(ctx context.Context, voice string, sampleRate int) (*websocket.Conn, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	urlValues := url.Values{}
	urlValues.Set("encoding", audio.EncodingLinear16.Name())
	urlValues.Set("sample_rate", strconv.Itoa(sampleRate))
	urlValues.Set("model", voice)
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

type websocketMessage struct {
	Type string `json:"type"`
}

func speakMsg(text string) struct {
	Type string `json:"type"`
	Text string `json:"text"`
} {
	return struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{Type: "Speak", Text: text}
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)
