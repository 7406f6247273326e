// Copyright 2026 The Greenroom Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeError reports a frame that could not be decoded. Unknown is
// set when the frame was well-formed JSON carrying a tag this client
// does not recognize — a forward-compatibility case, not corruption.
// Either way the frame is droppable; the stream stays usable.
type DecodeError struct {
	// Tag is the discriminant found in the frame, if any.
	Tag string
	// Unknown is true when the tag is not in the server→client set.
	Unknown bool
	// Err is the underlying JSON error, nil for unknown tags.
	Err error
}

func (e *DecodeError) Error() string {
	if e.Unknown {
		return fmt.Sprintf("wire: unknown message type %q", e.Tag)
	}
	if e.Tag != "" {
		return fmt.Sprintf("wire: decode %s: %v", e.Tag, e.Err)
	}
	return fmt.Sprintf("wire: decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsUnknownVariant reports whether err is a DecodeError for an
// unrecognized message tag.
func IsUnknownVariant(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr) && decodeErr.Unknown
}

// Encode serializes a client envelope to one wire frame, splicing the
// discriminant tag into the variant's flat JSON object. It never fails
// on the envelope types defined in this package.
func Encode(env Client) ([]byte, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("wire: encode %s: %w", env.clientTag(), err)
	}
	return spliceTag(env.clientTag(), payload), nil
}

// spliceTag merges {"type":tag} with a marshaled struct payload.
// Relies on json.Marshal of a struct always producing an object.
func spliceTag(tag string, payload []byte) []byte {
	head, _ := json.Marshal(struct {
		Type string `json:"type"`
	}{tag})
	if len(payload) <= 2 {
		// Empty variant like Heartbeat: the tag is the whole frame.
		return head
	}
	frame := append(head[:len(head)-1], ',')
	return append(frame, payload[1:]...)
}

// Decode parses one inbound frame into its server envelope. The
// returned error, when non-nil, is always a *DecodeError; callers log
// it, drop the frame, and keep reading.
func Decode(frame []byte) (Server, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &head); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if head.Type == "" {
		return nil, &DecodeError{Err: errors.New("missing type tag")}
	}

	switch head.Type {
	case "SessionJoined":
		return decodeAs[SessionJoined](frame, head.Type)
	case "SceneUpdate":
		return decodeAs[SceneUpdate](frame, head.Type)
	case "DialogueResponse":
		return decodeAs[DialogueResponse](frame, head.Type)
	case "LLMProcessing":
		return decodeAs[LLMProcessing](frame, head.Type)
	case "ApprovalRequired":
		return decodeAs[ApprovalRequired](frame, head.Type)
	case "ResponseApproved":
		return decodeAs[ResponseApproved](frame, head.Type)
	case "GenerationEvent":
		return decodeAs[GenerationEvent](frame, head.Type)
	case "Error":
		return decodeAs[Error](frame, head.Type)
	case "Pong":
		return decodeAs[Pong](frame, head.Type)
	case "ChallengePrompt":
		return decodeAs[ChallengePrompt](frame, head.Type)
	case "ChallengeResolved":
		return decodeAs[ChallengeResolved](frame, head.Type)
	}
	return nil, &DecodeError{Tag: head.Type, Unknown: true}
}

func decodeAs[T Server](frame []byte, tag string) (Server, error) {
	var env T
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &DecodeError{Tag: tag, Err: err}
	}
	return env, nil
}
