package tone

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"cadence/internal/lesson"
	"cadence/internal/synth"
)

func TestSynthesizeProducesWAVOfExpectedLength(t *testing.T) {
	s := New(Options{CharsPerSecond: 10, SampleRate: 8000})
	audio, err := s.Synthesize(context.Background(), synth.Request{Text: "abcdefghij", Language: lesson.L2, Rate: 0.5})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.HasPrefix(audio, []byte("RIFF")) || !bytes.Equal(audio[8:12], []byte("WAVE")) {
		t.Fatalf("expected RIFF/WAVE header, got %q", audio[:12])
	}
	// 10 chars at 10 cps and rate 0.5 -> 2s -> 16000 frames of 2 bytes.
	wantData := 16000 * 2
	riffSize := int(binary.LittleEndian.Uint32(audio[4:8]))
	if riffSize != len(audio)-8 {
		t.Fatalf("riff size %d does not match payload %d", riffSize, len(audio)-8)
	}
	if len(audio) < wantData || len(audio) > wantData+100 {
		t.Fatalf("unexpected wav size %d for %d data bytes", len(audio), wantData)
	}
}

func TestSecondsHasFloor(t *testing.T) {
	s := New(Options{})
	if got := s.Seconds("a", 1); got != minimumSeconds {
		t.Fatalf("expected floor %v, got %v", minimumSeconds, got)
	}
	if got := s.Seconds("abcdefghijklmn", 0); got != 1 {
		t.Fatalf("expected 1s at default rate, got %v", got)
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	if _, err := New(Options{}).Synthesize(context.Background(), synth.Request{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestMemWriteSeekerOverwrites(t *testing.T) {
	m := &memWriteSeeker{}
	_, _ = m.Write([]byte("hello world"))
	if _, err := m.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	_, _ = m.Write([]byte("J"))
	if string(m.buf) != "Jello world" {
		t.Fatalf("unexpected buffer %q", m.buf)
	}
	if _, err := m.Seek(-1, 0); err == nil {
		t.Fatal("expected negative seek error")
	}
}
