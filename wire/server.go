// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "encoding/json"

// Server is a message sent from the stage server to this client.
// The concrete types in this package are the complete set this client
// understands; anything else decodes to an unknown-variant error.
type Server interface {
	serverTag() string
}

// SessionJoined confirms a [JoinSession]. Resumed reports whether the
// server restored the session named in ResumeSessionID or issued a
// fresh one. WorldSnapshot is kept raw: the session layer hands it to
// the presentation layer untouched.
type SessionJoined struct {
	SessionID     string          `json:"session_id"`
	WorldSnapshot json.RawMessage `json:"world_snapshot"`
	Resumed       bool            `json:"resumed,omitempty"`
}

// SceneUpdate replaces the current scene and its cast.
type SceneUpdate struct {
	Scene        Scene         `json:"scene"`
	Characters   []Character   `json:"characters"`
	Interactions []Interaction `json:"interactions,omitempty"`
}

// Scene describes the active scene.
type Scene struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	LocationID       string `json:"location_id"`
	LocationName     string `json:"location_name"`
	Backdrop         string `json:"backdrop_asset,omitempty"`
	TimeContext      string `json:"time_context,omitempty"`
	DirectorialNotes string `json:"directorial_notes,omitempty"`
}

// Character is one character present in the scene.
type Character struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Sprite   string `json:"sprite_asset,omitempty"`
	Portrait string `json:"portrait_asset,omitempty"`
	Position string `json:"position,omitempty"`
	Speaking bool   `json:"is_speaking,omitempty"`
}

// Interaction is one action currently available in the scene.
type Interaction struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"interaction_type"`
	TargetName string `json:"target_name,omitempty"`
	Available  bool   `json:"is_available"`
}

// DialogueResponse is NPC dialogue, with optional player choices.
type DialogueResponse struct {
	SpeakerID   string           `json:"speaker_id"`
	SpeakerName string           `json:"speaker_name"`
	Text        string           `json:"text"`
	Choices     []DialogueChoice `json:"choices,omitempty"`
}

// DialogueChoice is one selectable player response.
type DialogueChoice struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	CustomInput bool   `json:"is_custom_input,omitempty"`
}

// LLMProcessing signals that the action with ActionID is being worked
// on by the server's AI. Purely informational.
type LLMProcessing struct {
	ActionID string `json:"action_id"`
}

// ApprovalRequired asks the director to review an AI-proposed
// response before it executes.
type ApprovalRequired struct {
	RequestID         string         `json:"request_id"`
	NPCName           string         `json:"npc_name,omitempty"`
	ProposedDialogue  string         `json:"proposed_dialogue"`
	InternalReasoning string         `json:"internal_reasoning,omitempty"`
	ProposedTools     []ProposedTool `json:"proposed_tools,omitempty"`
}

// ProposedTool is one tool call the AI wants to execute. Arguments
// are kept raw for display.
type ProposedTool struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Arguments   json.RawMessage `json:"arguments,omitempty"`
}

// ResponseApproved reports the final, executed form of a reviewed
// response.
type ResponseApproved struct {
	RequestID     string   `json:"request_id,omitempty"`
	Dialogue      string   `json:"dialogue"`
	ExecutedTools []string `json:"executed_tools,omitempty"`
}

// BatchStatus is the lifecycle state of an asset-generation batch.
type BatchStatus string

const (
	// BatchQueued means the batch is waiting its turn.
	BatchQueued BatchStatus = "queued"
	// BatchRunning means assets are being generated.
	BatchRunning BatchStatus = "running"
	// BatchCompleted means all assets are ready.
	BatchCompleted BatchStatus = "completed"
	// BatchFailed means generation gave up.
	BatchFailed BatchStatus = "failed"
)

// Terminal reports whether no further status can follow.
func (s BatchStatus) Terminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// GenerationEvent is an asynchronous progress report for one
// asset-generation batch. Progress is in [0, 1].
type GenerationEvent struct {
	BatchID  string      `json:"batch_id"`
	Status   BatchStatus `json:"status"`
	Progress float64     `json:"progress"`
}

// Error is a non-fatal notice from the server.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error implements the error interface so a server notice can be
// wrapped or logged like any other error.
func (e Error) Error() string {
	if e.Code != "" {
		return "server: " + e.Code + ": " + e.Message
	}
	return "server: " + e.Message
}

// Pong answers a [Heartbeat].
type Pong struct{}

// ChallengePrompt asks a player to roll against a skill challenge.
type ChallengePrompt struct {
	ChallengeID   string `json:"challenge_id"`
	ChallengeName string `json:"challenge_name"`
	SkillName     string `json:"skill_name"`
	Difficulty    string `json:"difficulty_display,omitempty"`
	Description   string `json:"description,omitempty"`
	Modifier      int    `json:"character_modifier"`
}

// ChallengeResolved broadcasts the outcome of a challenge roll.
type ChallengeResolved struct {
	ChallengeID        string `json:"challenge_id"`
	ChallengeName      string `json:"challenge_name"`
	CharacterName      string `json:"character_name"`
	Roll               int    `json:"roll"`
	Modifier           int    `json:"modifier"`
	Total              int    `json:"total"`
	Outcome            string `json:"outcome"`
	OutcomeDescription string `json:"outcome_description,omitempty"`
}

func (SessionJoined) serverTag() string     { return "SessionJoined" }
func (SceneUpdate) serverTag() string       { return "SceneUpdate" }
func (DialogueResponse) serverTag() string  { return "DialogueResponse" }
func (LLMProcessing) serverTag() string     { return "LLMProcessing" }
func (ApprovalRequired) serverTag() string  { return "ApprovalRequired" }
func (ResponseApproved) serverTag() string  { return "ResponseApproved" }
func (GenerationEvent) serverTag() string   { return "GenerationEvent" }
func (Error) serverTag() string             { return "Error" }
func (Pong) serverTag() string              { return "Pong" }
func (ChallengePrompt) serverTag() string   { return "ChallengePrompt" }
func (ChallengeResolved) serverTag() string { return "ChallengeResolved" }
