package service

import (
	"context"
	"fmt"
	"net/url"
	"testing"
)

func TestPermanent(t *testing.T) {
	err := fmt.Errorf("Permanent error")
	if Temporary(err) {
		t.Fail()
	}
	err = &url.Error{Err: err}
	if Temporary(err) {
		t.Fail()
	}
}

func TestTemporary(t *testing.T) {
	err := MakeTemporary(fmt.Errorf("Temporary error"))
	if !Temporary(err) {
		t.Fail()
	}
	err = fmt.Errorf("Warp: %w", err)
	if !Temporary(err) {
		t.Fail()
	}
	if !Temporary(context.Canceled) {
		t.Fail()
	}
	if !Temporary(context.DeadlineExceeded) {
		t.Fail()
	}
	err = fmt.Errorf("Warp: %w", &url.Error{Err: err})
	if !Temporary(err) {
		t.Fail()
	}
}

func TestConfigError(t *testing.T) {
	err := MakeConfig("no sampling file or bounding box provided", nil)
	if !IsConfig(err) {
		t.Fail()
	}
	err = fmt.Errorf("Run: %w", err)
	if !IsConfig(err) {
		t.Fail()
	}
	if IsConfig(fmt.Errorf("other")) {
		t.Fail()
	}
}

func TestAdapterError(t *testing.T) {
	err := MakeAdapter("SLGA", fmt.Errorf("429 Too Many Requests"))
	var ae AdapterError
	if !AsAdapter(fmt.Errorf("source: %w", err), &ae) {
		t.Fatal("AdapterError not found in trace")
	}
	if ae.Source != "SLGA" {
		t.Errorf("expecting SLGA, found %s", ae.Source)
	}
}

func TestSequenceError(t *testing.T) {
	err := error(SequenceError{Step: "download", State: "Uninitialized"})
	if !IsSequence(err) {
		t.Fail()
	}
	if IsSequence(MakeConfig("x", nil)) {
		t.Fail()
	}
}
