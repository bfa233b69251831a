package rpc

import (
	"bytes"
	"testing"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"hello":"world"}`)
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestWriteReadJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	type msg struct {
		Status string `json:"status"`
	}
	if err := WriteJSON(&buf, msg{Status: "working"}); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}

	var got msg
	if err := ReadJSON(&buf, &got); err != nil {
		t.Fatalf("ReadJSON error: %v", err)
	}
	if got.Status != "working" {
		t.Fatalf("got %+v", got)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF}) // absurd length prefix
	if _, err := ReadFrame(&buf); err == nil {
		t.Fatal("expected oversized frame to be rejected")
	}
}

func TestMultipleFramesInSequence(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteFrame(&buf, []byte("first"))
	_ = WriteFrame(&buf, []byte("second"))

	first, err := ReadFrame(&buf)
	if err != nil || string(first) != "first" {
		t.Fatalf("first frame = %q, err=%v", first, err)
	}
	second, err := ReadFrame(&buf)
	if err != nil || string(second) != "second" {
		t.Fatalf("second frame = %q, err=%v", second, err)
	}
}
