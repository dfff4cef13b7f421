// Package context implements C4: it turns a user's profile, recent memory,
// optional compressed intelligence summary, and the current prompt into the
// ordered message list handed to the upstream LLM client.
package context

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/domain"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of the ordered list C6 sends upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const identityPreamble = `You are Aurora, a supportive conversational companion. Speak only as Aurora. ` +
	`Never name, describe, or speculate about any underlying model, provider, or vendor that powers you.`

const markerGrammar = `When it is useful to record the user's emotional state or a task they want done, emit ` +
	`an in-band marker on its own line using exactly this grammar and nothing else around the JSON: ` +
	`EMOTION_LOG: {"emotion":"<label>","intensity":<1-10>,"context":"<string>"} or ` +
	`TASK_INFERENCE: {"taskType":"<name>","parameters":{...}}. These markers are stripped before the user sees your reply.`

// Assemble builds the ordered message list per spec.md §4.4.
func Assemble(profile map[string]string, recentEmotions []*domain.EmotionEntry, history []*domain.MemoryMessage, compressedIntelligence string, userPrompt string) []Message {
	var sys strings.Builder
	sys.WriteString(identityPreamble)
	sys.WriteString("\n\n")
	sys.WriteString(markerGrammar)

	if p := formatProfile(profile); p != "" {
		sys.WriteString("\n\nUser profile:\n")
		sys.WriteString(p)
	}

	if compressedIntelligence != "" {
		sys.WriteString("\n\n<intelligence-context>")
		sys.WriteString(compressedIntelligence)
		sys.WriteString("</intelligence-context>")
	}

	chronological := oldestFirst(history)
	if len(chronological) > 0 {
		sys.WriteString("\n\nThe following is the recent conversation history, oldest first.")
	}

	if s := formatTopEmotions(recentEmotions, 3); s != "" {
		sys.WriteString("\n\nRecent emotional log (most notable):\n")
		sys.WriteString(s)
	}

	msgs := make([]Message, 0, len(chronological)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: sys.String()})
	for _, m := range chronological {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: userPrompt})
	return msgs
}

// oldestFirst orders history by CreatedAt ascending (stable for equal
// timestamps) and drops any entry whose role is neither user nor assistant.
func oldestFirst(history []*domain.MemoryMessage) []*domain.MemoryMessage {
	out := make([]*domain.MemoryMessage, 0, len(history))
	for _, m := range history {
		if m.Role != domain.MemoryRoleUser && m.Role != domain.MemoryRoleAssistant {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func formatProfile(profile map[string]string) string {
	if len(profile) == 0 {
		return ""
	}
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", k, profile[k])
	}
	return b.String()
}

func formatTopEmotions(entries []*domain.EmotionEntry, n int) string {
	if len(entries) == 0 {
		return ""
	}
	if len(entries) > n {
		entries = entries[:n]
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.Intensity != nil {
			fmt.Fprintf(&b, "- %s (intensity %d)", e.Emotion, *e.Intensity)
		} else {
			fmt.Fprintf(&b, "- %s", e.Emotion)
		}
	}
	return b.String()
}
