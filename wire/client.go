// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "fmt"

// Client is a message sent from this client to the stage server.
// The concrete types in this package are the complete set.
type Client interface {
	clientTag() string
}

// Role is a participant's role in a session.
type Role string

const (
	// RoleDirector runs the table: directorial context, approval of
	// AI-proposed content, scene control.
	RoleDirector Role = "director"
	// RolePlayer controls a character.
	RolePlayer Role = "player"
	// RoleSpectator observes without acting.
	RoleSpectator Role = "spectator"
)

// ParseRole validates a role string from user input or saved
// preferences. Inbound payloads are not run through this — the server
// is the authority on its own vocabulary.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleDirector, RolePlayer, RoleSpectator:
		return Role(s), nil
	}
	return "", fmt.Errorf("wire: unknown role %q", s)
}

// JoinSession requests entry to a session. On reconnect the client
// offers its previous session ID in ResumeSessionID; the server may
// resume it or issue a fresh one — both arrive as [SessionJoined].
type JoinSession struct {
	UserID          string `json:"user_id"`
	Role            Role   `json:"role"`
	WorldID         string `json:"world_id,omitempty"`
	ResumeSessionID string `json:"resume_session_id,omitempty"`
}

// PlayerAction is one in-world action by the player. ActionID is a
// client-generated identifier the server echoes in [LLMProcessing].
type PlayerAction struct {
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
	Target     string `json:"target,omitempty"`
	Dialogue   string `json:"dialogue,omitempty"`
}

// DirectorialUpdate pushes the director's scene context to the server
// for use in AI generation.
type DirectorialUpdate struct {
	SceneNotes      string          `json:"scene_notes"`
	Tone            string          `json:"tone"`
	NPCMotivations  []NPCMotivation `json:"npc_motivations,omitempty"`
	ForbiddenTopics []string        `json:"forbidden_topics,omitempty"`
}

// NPCMotivation is directorial guidance for one NPC.
type NPCMotivation struct {
	CharacterID   string `json:"character_id"`
	Mood          string `json:"mood"`
	ImmediateGoal string `json:"immediate_goal"`
	SecretAgenda  string `json:"secret_agenda,omitempty"`
}

// DecisionKind discriminates the director's verdict on a proposed
// AI response.
type DecisionKind string

const (
	// DecisionAccept approves the proposal as-is.
	DecisionAccept DecisionKind = "accept"
	// DecisionModify approves with edited dialogue and a tool subset.
	DecisionModify DecisionKind = "modify"
	// DecisionReject discards the proposal with feedback.
	DecisionReject DecisionKind = "reject"
	// DecisionTakeOver replaces the proposal with director-authored
	// content.
	DecisionTakeOver DecisionKind = "take_over"
)

// ApprovalDecision resolves a pending [ApprovalRequired]. Only the
// fields relevant to the Decision kind are populated.
type ApprovalDecision struct {
	RequestID       string       `json:"request_id"`
	Decision        DecisionKind `json:"decision"`
	EditedText      string       `json:"edited_text,omitempty"`
	Feedback        string       `json:"feedback,omitempty"`
	AuthoredContent string       `json:"authored_content,omitempty"`
	ApprovedTools   []string     `json:"approved_tools,omitempty"`
	RejectedTools   []string     `json:"rejected_tools,omitempty"`
}

// RequestSceneChange asks the server to move the session to another
// scene.
type RequestSceneChange struct {
	SceneID string `json:"scene_id"`
}

// Heartbeat is the periodic liveness probe. The server answers with
// [Pong], but any inbound traffic counts as liveness.
type Heartbeat struct{}

// TriggerChallenge has the director put a skill challenge to a
// character.
type TriggerChallenge struct {
	ChallengeID       string `json:"challenge_id"`
	TargetCharacterID string `json:"target_character_id"`
}

// ChallengeRoll submits the player's roll for an active challenge.
type ChallengeRoll struct {
	ChallengeID string `json:"challenge_id"`
	Roll        int    `json:"roll"`
}

func (JoinSession) clientTag() string        { return "JoinSession" }
func (PlayerAction) clientTag() string       { return "PlayerAction" }
func (DirectorialUpdate) clientTag() string  { return "DirectorialUpdate" }
func (ApprovalDecision) clientTag() string   { return "ApprovalDecision" }
func (RequestSceneChange) clientTag() string { return "RequestSceneChange" }
func (Heartbeat) clientTag() string          { return "Heartbeat" }
func (TriggerChallenge) clientTag() string   { return "TriggerChallenge" }
func (ChallengeRoll) clientTag() string      { return "ChallengeRoll" }
