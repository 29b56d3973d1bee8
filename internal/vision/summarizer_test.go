package vision

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"testing"

	"dreamapp/internal/providers/gemini"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func mediaServerClient(contentLength int64) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"image/jpeg"}},
			Body:       io.NopCloser(strings.NewReader("jpegbytes")),
		}
		if req.Method == http.MethodHead {
			resp.ContentLength = contentLength
			resp.Body = io.NopCloser(strings.NewReader(""))
		}
		return resp, nil
	})}
}

type fakePrimary struct {
	calls int
	got   []gemini.ImageInput
	text  string
	err   error
}

func (f *fakePrimary) DescribeImages(_ context.Context, _ string, images []gemini.ImageInput) (string, error) {
	f.calls++
	f.got = images
	return f.text, f.err
}

type fakeFallback struct {
	calls int
	url   string
	text  string
	err   error
}

func (f *fakeFallback) DescribeImageURL(_ context.Context, _, imgURL string) (string, error) {
	f.calls++
	f.url = imgURL
	return f.text, f.err
}

func TestSampleIndicesAnchorsFirstMiddleLast(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	out := SampleIndices(40, 12, rng)
	if len(out) != 12 {
		t.Fatalf("len = %d, want 12", len(out))
	}
	want := map[int]bool{0: false, 20: false, 39: false}
	for _, idx := range out {
		if _, ok := want[idx]; ok {
			want[idx] = true
		}
	}
	for idx, seen := range want {
		if !seen {
			t.Fatalf("anchor index %d missing from sample %v", idx, out)
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i] <= out[i-1] {
			t.Fatalf("sample not strictly sorted: %v", out)
		}
	}
}

func TestSampleIndicesSmallBatchKeepsAll(t *testing.T) {
	out := SampleIndices(5, 12, rand.New(rand.NewSource(1)))
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
	for i, idx := range out {
		if idx != i {
			t.Fatalf("sample = %v, want identity order", out)
		}
	}
}

func TestSummarizeParsesStructuredReport(t *testing.T) {
	primary := &fakePrimary{text: "```json\n{\"summary\": \"golden noodles under neon\", \"skipIndices\": [2], \"topPicks\": [0, 4]}\n```"}
	s := NewSummarizer(Options{
		Primary:    primary,
		HTTPClient: mediaServerClient(1024),
		Rand:       rand.New(rand.NewSource(1)),
	})

	report := s.Summarize(context.Background(), []string{"http://x/a.jpg", "http://x/b.jpg", "http://x/c.jpg"})
	if report.Failed() {
		t.Fatalf("report unexpectedly failed: %+v", report)
	}
	if report.Text != "golden noodles under neon" {
		t.Fatalf("text = %q", report.Text)
	}
	if len(report.SkipIndices) != 1 || report.SkipIndices[0] != 2 {
		t.Fatalf("skipIndices = %v", report.SkipIndices)
	}
	if primary.calls != 1 {
		t.Fatalf("primary calls = %d, want 1", primary.calls)
	}
	if len(primary.got) != 3 {
		t.Fatalf("images sent = %d, want 3", len(primary.got))
	}
}

func TestSummarizeFallsBackToSingleURL(t *testing.T) {
	primary := &fakePrimary{err: errors.New("quota exhausted")}
	fallback := &fakeFallback{text: "a rustic bowl of ramen in warm light"}
	s := NewSummarizer(Options{
		Primary:    primary,
		Fallback:   fallback,
		HTTPClient: mediaServerClient(1024),
		Rand:       rand.New(rand.NewSource(1)),
	})

	report := s.Summarize(context.Background(), []string{"http://x/a.jpg", "http://x/b.jpg"})
	if report.Failed() {
		t.Fatalf("report unexpectedly failed: %+v", report)
	}
	if report.Text != "a rustic bowl of ramen in warm light" {
		t.Fatalf("text = %q", report.Text)
	}
	if fallback.url != "http://x/a.jpg" {
		t.Fatalf("fallback url = %q, want first item", fallback.url)
	}
}

func TestSummarizeSentinelWhenAllTiersFail(t *testing.T) {
	primary := &fakePrimary{err: errors.New("quota exhausted")}
	fallback := &fakeFallback{err: errors.New("model offline")}
	s := NewSummarizer(Options{
		Primary:    primary,
		Fallback:   fallback,
		HTTPClient: mediaServerClient(1024),
		Rand:       rand.New(rand.NewSource(1)),
	})

	report := s.Summarize(context.Background(), []string{"http://x/a.jpg"})
	if report.Text != FailureSentinel {
		t.Fatalf("text = %q, want sentinel", report.Text)
	}
	if !report.Failed() {
		t.Fatalf("sentinel report must register as failed")
	}
}

func TestSummarizeDropsOversizedMedia(t *testing.T) {
	primary := &fakePrimary{text: "unused"}
	fallback := &fakeFallback{text: "single-shot summary"}
	s := NewSummarizer(Options{
		Primary:    primary,
		Fallback:   fallback,
		HTTPClient: mediaServerClient(MaxProbeBytes + 1),
		Rand:       rand.New(rand.NewSource(1)),
	})

	report := s.Summarize(context.Background(), []string{"http://x/huge.jpg"})
	if primary.calls != 0 {
		t.Fatalf("primary must not be called when every item is dropped")
	}
	if report.Text != "single-shot summary" {
		t.Fatalf("text = %q", report.Text)
	}
}

func TestSummarizeEmptyBatch(t *testing.T) {
	s := NewSummarizer(Options{HTTPClient: mediaServerClient(1024)})
	report := s.Summarize(context.Background(), nil)
	if report.Text != FailureSentinel {
		t.Fatalf("text = %q, want sentinel", report.Text)
	}
}
