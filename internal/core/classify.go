package core

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/marceloamor/CareDocQA/pkg/models"
)

// MessageKind is the outcome of the transcript-vs-question classification.
type MessageKind string

const (
	MessageTranscript MessageKind = "transcript"
	MessageQuestion   MessageKind = "question"
)

// speakerTurnPattern matches dialogue markers like "Greg: " or
// "Julie Peaterson: " at the start of a line.
var speakerTurnPattern = regexp.MustCompile(`(?m)^[ \t]*[A-Z][A-Za-z .'-]{0,40}:[ \t]`)

// ClassifyMessage decides whether a chat message is itself a call transcript
// or a question. The heuristic, in order:
//
//  1. length at or above TranscriptMinRunes;
//  2. at least MinSpeakerTurns speaker-turn markers ("Name: ..." lines);
//  3. presence of any configured keyword (case-insensitive).
//
// Any hit routes the message to transcript analysis; otherwise it is a
// question. The function is pure: same input and config, same answer.
func ClassifyMessage(message string, cfg models.ClassifierConfig) MessageKind {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return MessageQuestion
	}

	if cfg.TranscriptMinRunes > 0 && utf8.RuneCountInString(trimmed) >= cfg.TranscriptMinRunes {
		return MessageTranscript
	}

	if cfg.MinSpeakerTurns > 0 {
		if len(speakerTurnPattern.FindAllStringIndex(trimmed, cfg.MinSpeakerTurns)) >= cfg.MinSpeakerTurns {
			return MessageTranscript
		}
	}

	lower := strings.ToLower(trimmed)
	for _, kw := range cfg.Keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return MessageTranscript
		}
	}

	return MessageQuestion
}
