// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEncodeSplicesTag(t *testing.T) {
	frame, err := Encode(PlayerAction{
		ActionID:   "a1",
		ActionType: "talk",
		Target:     "innkeeper",
		Dialogue:   "Any rooms left?",
	})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(frame, &decoded); err != nil {
		t.Fatalf("frame is not valid JSON: %v\nframe: %s", err, frame)
	}
	if decoded["type"] != "PlayerAction" {
		t.Errorf(`type = %v, want "PlayerAction"`, decoded["type"])
	}
	if decoded["action_type"] != "talk" {
		t.Errorf(`action_type = %v, want "talk"`, decoded["action_type"])
	}
	if decoded["target"] != "innkeeper" {
		t.Errorf(`target = %v, want "innkeeper"`, decoded["target"])
	}
}

func TestEncodeEmptyVariant(t *testing.T) {
	frame, err := Encode(Heartbeat{})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if string(frame) != `{"type":"Heartbeat"}` {
		t.Errorf("frame = %s, want %s", frame, `{"type":"Heartbeat"}`)
	}
}

func TestEncodeDecisionKinds(t *testing.T) {
	tests := []struct {
		name     string
		envelope ApprovalDecision
		want     []string
	}{
		{
			name:     "accept",
			envelope: ApprovalDecision{RequestID: "r1", Decision: DecisionAccept},
			want:     []string{`"decision":"accept"`},
		},
		{
			name: "modify carries edits",
			envelope: ApprovalDecision{
				RequestID:     "r1",
				Decision:      DecisionModify,
				EditedText:    "softer line",
				ApprovedTools: []string{"open_door"},
				RejectedTools: []string{"start_fight"},
			},
			want: []string{`"decision":"modify"`, `"edited_text":"softer line"`, `"approved_tools":["open_door"]`},
		},
		{
			name:     "reject carries feedback",
			envelope: ApprovalDecision{RequestID: "r1", Decision: DecisionReject, Feedback: "off tone"},
			want:     []string{`"decision":"reject"`, `"feedback":"off tone"`},
		},
		{
			name:     "take over carries authored content",
			envelope: ApprovalDecision{RequestID: "r1", Decision: DecisionTakeOver, AuthoredContent: "The innkeeper laughs."},
			want:     []string{`"decision":"take_over"`, `"authored_content":"The innkeeper laughs."`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Encode(tt.envelope)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			for _, fragment := range tt.want {
				if !strings.Contains(string(frame), fragment) {
					t.Errorf("frame missing %s\nframe: %s", fragment, frame)
				}
			}
		})
	}
}

func TestDecodeSessionJoined(t *testing.T) {
	frame := []byte(`{"type":"SessionJoined","session_id":"s1","world_snapshot":{"world":"Emberfall"},"resumed":true}`)
	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	joined, ok := env.(SessionJoined)
	if !ok {
		t.Fatalf("Decode() = %T, want SessionJoined", env)
	}
	if joined.SessionID != "s1" {
		t.Errorf("SessionID = %q, want %q", joined.SessionID, "s1")
	}
	if !joined.Resumed {
		t.Error("Resumed = false, want true")
	}
	if string(joined.WorldSnapshot) != `{"world":"Emberfall"}` {
		t.Errorf("WorldSnapshot = %s", joined.WorldSnapshot)
	}
}

func TestDecodeGenerationEvent(t *testing.T) {
	frame := []byte(`{"type":"GenerationEvent","batch_id":"b1","status":"running","progress":0.3}`)
	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	event, ok := env.(GenerationEvent)
	if !ok {
		t.Fatalf("Decode() = %T, want GenerationEvent", env)
	}
	if event.Status != BatchRunning {
		t.Errorf("Status = %q, want %q", event.Status, BatchRunning)
	}
	if event.Progress != 0.3 {
		t.Errorf("Progress = %v, want 0.3", event.Progress)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode([]byte(`{"type":"TelepathyBurst","strength":11}`))
	if err == nil {
		t.Fatal("Decode() accepted an unknown tag")
	}
	if !IsUnknownVariant(err) {
		t.Errorf("IsUnknownVariant() = false for %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"truncated JSON", `{"type":"SessionJoin`},
		{"missing tag", `{"session_id":"s1"}`},
		{"wrong field type", `{"type":"GenerationEvent","batch_id":"b1","progress":"lots"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.frame))
			if err == nil {
				t.Fatal("Decode() accepted a malformed frame")
			}
			if IsUnknownVariant(err) {
				t.Errorf("malformed frame misreported as unknown variant: %v", err)
			}
		})
	}
}

func TestDecodeRoundTripApproval(t *testing.T) {
	frame := []byte(`{
		"type": "ApprovalRequired",
		"request_id": "req-9",
		"npc_name": "Mirela",
		"proposed_dialogue": "You should not have come back.",
		"proposed_tools": [
			{"id": "t1", "name": "lock_door", "arguments": {"door": "east"}}
		]
	}`)
	env, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	request, ok := env.(ApprovalRequired)
	if !ok {
		t.Fatalf("Decode() = %T, want ApprovalRequired", env)
	}
	if request.RequestID != "req-9" {
		t.Errorf("RequestID = %q", request.RequestID)
	}
	if len(request.ProposedTools) != 1 || request.ProposedTools[0].Name != "lock_door" {
		t.Errorf("ProposedTools = %+v", request.ProposedTools)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"director", "player", "spectator"} {
		if _, err := ParseRole(valid); err != nil {
			t.Errorf("ParseRole(%q) error: %v", valid, err)
		}
	}
	if _, err := ParseRole("dungeon_master"); err == nil {
		t.Error("ParseRole accepted an unknown role")
	}
}

func TestBatchStatusTerminal(t *testing.T) {
	if BatchQueued.Terminal() || BatchRunning.Terminal() {
		t.Error("queued/running reported terminal")
	}
	if !BatchCompleted.Terminal() || !BatchFailed.Terminal() {
		t.Error("completed/failed not reported terminal")
	}
}
