// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"testing"
	"time"
)

func TestPipeDelivery(t *testing.T) {
	client, server := Pipe()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.Send(ctx, []byte("hello")); err != nil {
		t.Fatalf("client Send() error: %v", err)
	}
	frame, err := server.Receive(ctx)
	if err != nil {
		t.Fatalf("server Receive() error: %v", err)
	}
	if string(frame) != "hello" {
		t.Errorf("server received %q, want %q", frame, "hello")
	}

	if err := server.Send(ctx, []byte("hi back")); err != nil {
		t.Fatalf("server Send() error: %v", err)
	}
	frame, err = client.Receive(ctx)
	if err != nil {
		t.Fatalf("client Receive() error: %v", err)
	}
	if string(frame) != "hi back" {
		t.Errorf("client received %q, want %q", frame, "hi back")
	}
}

func TestPipeSendCopiesFrame(t *testing.T) {
	client, server := Pipe()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	frame := []byte("original")
	if err := client.Send(ctx, frame); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	copy(frame, "mutated!")

	received, err := server.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error: %v", err)
	}
	if string(received) != "original" {
		t.Errorf("received %q, want %q — Send aliased the caller's buffer", received, "original")
	}
}

func TestPipeCloseFailsBothEnds(t *testing.T) {
	client, server := Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := server.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := client.Send(ctx, []byte("x")); !IsKind(err, KindClosed) {
		t.Errorf("Send() after close = %v, want closed kind", err)
	}
	if _, err := server.Receive(ctx); !IsKind(err, KindClosed) {
		t.Errorf("Receive() after close = %v, want closed kind", err)
	}

	// Idempotent, both ends.
	if err := server.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("peer Close() after close error: %v", err)
	}
}

func TestPipeDrainsBufferedFramesBeforeClose(t *testing.T) {
	client, server := Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := server.Send(ctx, []byte("in flight")); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	server.Close()

	frame, err := client.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error: %v, want the in-flight frame", err)
	}
	if string(frame) != "in flight" {
		t.Errorf("received %q, want %q", frame, "in flight")
	}
	if _, err := client.Receive(ctx); !IsKind(err, KindClosed) {
		t.Errorf("Receive() after drain = %v, want closed kind", err)
	}
}

func TestPick(t *testing.T) {
	tests := []struct {
		endpoint string
		want     any
		wantErr  bool
	}{
		{endpoint: "ws://127.0.0.1:3000/ws", want: &WebSocket{}},
		{endpoint: "wss://stage.example.com/ws", want: &WebSocket{}},
		{endpoint: "tcp://127.0.0.1:7420", want: &TCP{}},
		{endpoint: "http://127.0.0.1:3000", wantErr: true},
		{endpoint: "://bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			got, err := Pick(tt.endpoint)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Pick(%q) accepted, want error", tt.endpoint)
				}
				return
			}
			if err != nil {
				t.Fatalf("Pick(%q) error: %v", tt.endpoint, err)
			}
			switch tt.want.(type) {
			case *WebSocket:
				if _, ok := got.(*WebSocket); !ok {
					t.Errorf("Pick(%q) = %T, want *WebSocket", tt.endpoint, got)
				}
			case *TCP:
				if _, ok := got.(*TCP); !ok {
					t.Errorf("Pick(%q) = %T, want *TCP", tt.endpoint, got)
				}
			}
		})
	}
}
