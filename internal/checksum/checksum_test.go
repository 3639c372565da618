package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Fatalf("digest not stable: %q vs %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
}

func TestMatches(t *testing.T) {
	data := []byte("body")
	if !Matches(data, "") {
		t.Error("empty want should match")
	}
	if !Matches(data, Sum(data)) {
		t.Error("own digest should match")
	}
	if Matches(data, Sum([]byte("other"))) {
		t.Error("foreign digest should not match")
	}
}
