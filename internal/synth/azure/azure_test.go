package azure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cadence/internal/lesson"
	"cadence/internal/logging"
	"cadence/internal/synth"
)

var testVoices = synth.Voices{
	lesson.L1: {Name: "en-US-JennyNeural", Locale: "en-US", Language: "en"},
	lesson.L2: {Name: "es-ES-ElviraNeural", Locale: "es-ES", Language: "es"},
}

func TestBuildSSMLEscapesAndAppliesRate(t *testing.T) {
	ssml, err := BuildSSML(`Tom & "Jerry" <3`, testVoices[lesson.L2], 0.85)
	if err != nil {
		t.Fatalf("BuildSSML: %v", err)
	}
	doc := string(ssml)
	for _, want := range []string{
		`xml:lang="es-ES"`,
		`<voice name="es-ES-ElviraNeural">`,
		`<prosody rate="-15%">`,
		`Tom &amp; &#34;Jerry&#34; &lt;3`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in %s", want, doc)
		}
	}
}

func TestBuildSSMLOmitsProsodyAtNormalRate(t *testing.T) {
	ssml, err := BuildSSML("Hello", testVoices[lesson.L1], 1)
	if err != nil {
		t.Fatalf("BuildSSML: %v", err)
	}
	if strings.Contains(string(ssml), "prosody") {
		t.Fatalf("expected no prosody element, got %s", ssml)
	}
	if _, err := BuildSSML("x", synth.Voice{Language: "es"}, 1); err == nil {
		t.Fatal("expected error for missing voice")
	}
}

func TestBuildSSMLEscapesVoiceAttributes(t *testing.T) {
	voice := synth.Voice{Name: `Custom"Voice&1`, Locale: `es-ES"<`, Language: "es"}
	ssml, err := BuildSSML("Hola", voice, 1)
	if err != nil {
		t.Fatalf("BuildSSML: %v", err)
	}
	doc := string(ssml)
	for _, want := range []string{
		`xml:lang="es-ES&#34;&lt;"`,
		`<voice name="Custom&#34;Voice&amp;1">`,
	} {
		if !strings.Contains(doc, want) {
			t.Fatalf("expected %q in %s", want, doc)
		}
	}
}

func TestRatePercent(t *testing.T) {
	cases := map[float64]string{0.85: "-15%", 1.2: "+20%", 0.5: "-50%", 1: "+0%"}
	for rate, want := range cases {
		if got := RatePercent(rate); got != want {
			t.Fatalf("RatePercent(%v) = %q, want %q", rate, got, want)
		}
	}
}

func TestSynthesizePostsSSML(t *testing.T) {
	var gotBody, gotKey, gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		if r.URL.Path != "/cognitiveservices/v1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	client := New("secret", "eastus", testVoices, logging.NewNop(), WithEndpoint(server.URL), WithOutputFormat("riff-24khz-16bit-mono-pcm"))
	audio, err := client.Synthesize(context.Background(), synth.Request{Text: "Hola", Language: lesson.L2, Rate: 0.8})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Fatalf("unexpected audio %q", audio)
	}
	if gotKey != "secret" || gotFormat != "riff-24khz-16bit-mono-pcm" {
		t.Fatalf("unexpected headers key=%q format=%q", gotKey, gotFormat)
	}
	if !strings.Contains(gotBody, "es-ES-ElviraNeural") || !strings.Contains(gotBody, `rate="-20%"`) {
		t.Fatalf("unexpected ssml %s", gotBody)
	}
}

func TestSynthesizeReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New("k", "eastus", testVoices, nil, WithEndpoint(server.URL))
	_, err := client.Synthesize(context.Background(), synth.Request{Text: "Hi", Language: lesson.L1, Rate: 1})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}
