package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"cadence/internal/logging"
	"cadence/internal/synth"
)

// DefaultOutputFormat requests 24 kHz mono MP3.
const DefaultOutputFormat = "audio-24khz-48kbitrate-mono-mp3"

// Option configures the Azure client.
type Option func(*Client)

// WithEndpoint overrides the regional endpoint (used for sovereign clouds and tests).
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
}

// WithOutputFormat sets the X-Microsoft-OutputFormat header.
func WithOutputFormat(format string) Option {
	return func(c *Client) {
		if format != "" {
			c.format = format
		}
	}
}

// WithUserAgent sets the request user agent.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent != "" {
			c.userAgent = agent
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// Client synthesizes speech through the Azure Cognitive Services REST API.
// Rates are expressed through SSML prosody so L2 fragments can be slowed down.
type Client struct {
	subscriptionKey string
	endpoint        string
	format          string
	userAgent       string
	voices          synth.Voices
	httpClient      *http.Client
	logger          *slog.Logger
}

// New creates a client for the given region. Requests carry no timeout of
// their own; callers bound them with the context.
func New(key, region string, voices synth.Voices, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		subscriptionKey: key,
		endpoint:        fmt.Sprintf("https://%s.tts.speech.microsoft.com", region),
		format:          DefaultOutputFormat,
		userAgent:       "cadence",
		voices:          voices,
		httpClient:      &http.Client{},
		logger:          logging.NewComponentLogger(logger, "azure_tts"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the provider.
func (c *Client) Name() string { return "azure" }

// Synthesize posts SSML for the fragment and returns the encoded audio.
func (c *Client) Synthesize(ctx context.Context, req synth.Request) ([]byte, error) {
	voice := c.voices.For(req.Language)
	ssml, err := BuildSSML(req.Text, voice, req.Rate)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/cognitiveservices/v1", bytes.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", c.format)
	httpReq.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("azure tts request",
		logging.Int("chars", len([]rune(req.Text))),
		logging.String("voice", voice.Name),
		logging.Float64("rate", req.Rate),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}
	return audio, nil
}

// BuildSSML renders a single-voice SSML document. A rate of 1 omits the
// prosody element; other rates become a relative percentage ("-15%").
func BuildSSML(text string, voice synth.Voice, rate float64) ([]byte, error) {
	if strings.TrimSpace(voice.Name) == "" {
		return nil, fmt.Errorf("no voice configured for %s", voice.Language)
	}
	locale := voice.Locale
	if locale == "" {
		locale = "en-US"
	}

	escaped, err := escapeXML(text)
	if err != nil {
		return nil, fmt.Errorf("escape ssml text: %w", err)
	}
	escapedLocale, err := escapeXML(locale)
	if err != nil {
		return nil, fmt.Errorf("escape ssml locale: %w", err)
	}
	escapedName, err := escapeXML(voice.Name)
	if err != nil {
		return nil, fmt.Errorf("escape ssml voice: %w", err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s">`, escapedLocale)
	fmt.Fprintf(&b, `<voice name="%s">`, escapedName)
	if rate > 0 && rate != 1 {
		fmt.Fprintf(&b, `<prosody rate="%s">%s</prosody>`, RatePercent(rate), escaped)
	} else {
		b.WriteString(escaped)
	}
	b.WriteString(`</voice></speak>`)
	return b.Bytes(), nil
}

// escapeXML escapes s for use in element text or a quoted attribute.
func escapeXML(s string) (string, error) {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RatePercent converts a multiplicative rate into SSML relative form.
func RatePercent(rate float64) string {
	delta := int((rate-1)*100 + sign(rate-1)*0.5)
	if delta >= 0 {
		return "+" + strconv.Itoa(delta) + "%"
	}
	return strconv.Itoa(delta) + "%"
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
