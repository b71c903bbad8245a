package cmd

import "testing"

func TestThumbnailPath(t *testing.T) {
	specs := []struct {
		in  string
		exp string
	}{
		{"frame.png", "frame-thumb.png"},
		{"out/frame.jpg", "out/frame-thumb.jpg"},
		{"s3://bucket/renders/frame.png", "s3://bucket/renders/frame-thumb.png"},
		{"frame", "frame-thumb"},
	}

	for idx, s := range specs {
		if got := thumbnailPath(s.in); got != s.exp {
			t.Fatalf("[spec %d] expected %q; got %q", idx, s.exp, got)
		}
	}
}
