// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine_test

import (
	"testing"

	"github.com/flowforge/workflowcore/engine"
	"github.com/flowforge/workflowcore/workflow"
)

func TestGenerateCardsSkipsWorkflowsWithoutA2ABlock(t *testing.T) {
	workflows := []*workflow.WorkflowDefinition{
		{Name: "no-card"},
		{Name: "with-card", Description: "does things", A2A: &workflow.A2AConfig{
			Version: "1.0.0",
			Skills:  []workflow.SkillDef{{ID: "s1", Name: "Skill One"}},
		}},
	}

	cards := engine.GenerateCards(workflows, "https://example.com")
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}
	card := cards[0]
	if card.Name != "with-card" {
		t.Errorf("Name = %q, want with-card", card.Name)
	}
	if card.URL != "https://example.com/a2a/with-card" {
		t.Errorf("URL = %q, want https://example.com/a2a/with-card", card.URL)
	}
	if card.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", card.Version)
	}
	if len(card.Skills) != 1 || card.Skills[0].ID != "s1" {
		t.Errorf("Skills = %+v, want one skill with ID s1", card.Skills)
	}
	if card.Capabilities.Streaming || card.Capabilities.PushNotifications {
		t.Error("expected both capability flags to be false")
	}
}

func TestCardCacheComputesOnceAndReturnsStableSlice(t *testing.T) {
	workflows := []*workflow.WorkflowDefinition{
		{Name: "a", A2A: &workflow.A2AConfig{Version: "1.0.0"}},
	}

	var cache engine.CardCache
	first := cache.Get(workflows, "https://example.com")

	// Even with a different (empty) workflow list, the cache must keep
	// serving its first computation.
	second := cache.Get(nil, "https://example.com")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("got %d/%d cards, want 1/1 from the cached computation", len(first), len(second))
	}
	if first[0].Name != second[0].Name {
		t.Errorf("cache served different cards across calls: %q vs %q", first[0].Name, second[0].Name)
	}
}
