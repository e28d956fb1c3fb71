package ringlog

import (
	"strings"
	"testing"

	"pkt.systems/ringlog/render"
)

func TestStackTraceStoreCapture(t *testing.T) {
	s := NewStackTraceStore(16)
	id := s.Capture(0)
	if id == 0 {
		t.Fatalf("capture returned the zero id")
	}

	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	s.AppendStackTraceText(id, out)
	text := out.String()
	if !strings.Contains(text, "TestStackTraceStoreCapture") {
		t.Fatalf("trace missing caller frame:\n%s", text)
	}
	if !strings.Contains(text, "stacktrace_test.go") {
		t.Fatalf("trace missing file locations:\n%s", text)
	}
}

func TestStackTraceStoreRelease(t *testing.T) {
	s := NewStackTraceStore(0)
	id := s.Capture(0)
	s.Release(id)

	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	s.AppendStackTraceText(id, out)
	if out.Len() != 0 {
		t.Fatalf("released trace still renders: %q", out.String())
	}
}

func TestStackTraceStoreZeroID(t *testing.T) {
	s := NewStackTraceStore(0)
	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	s.AppendStackTraceText(0, out)
	if out.Len() != 0 {
		t.Fatalf("zero id must render nothing")
	}
	s.Release(0)
}

func TestStackTraceStoreDepthCap(t *testing.T) {
	s := NewStackTraceStore(2)
	id := deepCapture(s, 8)
	out := render.AcquireBuffer()
	defer render.ReleaseBuffer(out)
	s.AppendStackTraceText(id, out)
	frames := strings.Count(out.String(), "\n\t")
	if frames > 2 {
		t.Fatalf("depth cap ignored: %d frames", frames)
	}
}

func deepCapture(s *StackTraceStore, depth int) uint64 {
	if depth == 0 {
		return s.Capture(0)
	}
	return deepCapture(s, depth-1)
}
