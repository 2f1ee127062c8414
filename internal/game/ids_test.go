package game

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadGameIDSkipsBiasedBytes(t *testing.T) {
	src := append(bytes.Repeat([]byte{255}, gameIDLength*2),
		0, 1, 35, 36, 251, 252, 253, 71, 0, 0, 0, 0)
	id, err := readGameID(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if id != "AB9A99" {
		t.Fatalf("expected AB9A99, got %q", id)
	}
}

func TestReadGameIDUsesAlphabet(t *testing.T) {
	src := make([]byte, 0, 256)
	for b := 0; b < 256; b++ {
		src = append(src, byte(b))
	}
	reader := bytes.NewReader(src)
	for i := 0; i < 3; i++ {
		id, err := readGameID(reader)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if len(id) != gameIDLength {
			t.Fatalf("expected %d characters, got %q", gameIDLength, id)
		}
		for _, r := range id {
			if !strings.ContainsRune(gameIDAlphabet, r) {
				t.Fatalf("unexpected character %q in %q", r, id)
			}
		}
	}
}

func TestReadGameIDReportsShortRead(t *testing.T) {
	if _, err := readGameID(bytes.NewReader([]byte{1, 2, 3})); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
	rejected := bytes.Repeat([]byte{gameIDByteLimit}, gameIDLength*2)
	if _, err := readGameID(bytes.NewReader(rejected)); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF once input runs out, got %v", err)
	}
}

func TestNewGameID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := newGameID()
		if err != nil {
			t.Fatalf("new id: %v", err)
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Fatalf("expected mostly distinct ids, got %d of 50", len(seen))
	}
}
