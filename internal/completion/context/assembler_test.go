package context

import (
	"strings"
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/domain"
)

func TestAssembleOrdersOldestFirstAndDropsUnknownRoles(t *testing.T) {
	now := time.Now()
	history := []*domain.MemoryMessage{
		{Role: domain.MemoryRoleAssistant, Content: "second", CreatedAt: now},
		{Role: "system", Content: "ignored", CreatedAt: now.Add(-time.Minute)},
		{Role: domain.MemoryRoleUser, Content: "first", CreatedAt: now.Add(-2 * time.Minute)},
	}
	msgs := Assemble(nil, nil, history, "", "current prompt")

	if msgs[0].Role != RoleSystem {
		t.Fatalf("expected first message to be system, got %+v", msgs[0])
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages (system + 2 history + user), got %d: %+v", len(msgs), msgs)
	}
	if msgs[1].Content != "first" || msgs[2].Content != "second" {
		t.Fatalf("history not oldest-first: %+v", msgs[1:3])
	}
	if msgs[3].Role != RoleUser || msgs[3].Content != "current prompt" {
		t.Fatalf("expected trailing user turn, got %+v", msgs[3])
	}
}

func TestAssembleIncludesCompressedIntelligence(t *testing.T) {
	msgs := Assemble(nil, nil, nil, "MICRO{mc:0.5}", "hi")
	if len(msgs[0].Content) == 0 {
		t.Fatal("expected non-empty system message")
	}
	if !strings.Contains(msgs[0].Content, "MICRO{mc:0.5}") {
		t.Fatalf("expected compressed intelligence section in system message: %q", msgs[0].Content)
	}
}
