// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"sync"

	"github.com/flowforge/workflowcore/workflow"
)

// AgentCapabilities is the fixed capability shape every generated card
// reports (spec §6 Discovery surface). This core has no streaming/push
// transport of its own, so both flags are always false; a future transport
// layer flips them without changing the card shape.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// AgentCard is the discovery document published for one workflow that
// opted in via its `a2a` block (spec §4.9, §6).
type AgentCard struct {
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	URL                string              `json:"url"`
	Version            string              `json:"version"`
	Capabilities       AgentCapabilities   `json:"capabilities"`
	DefaultInputModes  []string            `json:"defaultInputModes"`
	DefaultOutputModes []string            `json:"defaultOutputModes"`
	Skills             []workflow.SkillDef `json:"skills"`
}

// defaultModes is the only input/output mode this core speaks: plain text
// turns. No workflow config surfaces a way to change it.
var defaultModes = []string{"text"}

// GenerateCards builds one [AgentCard] per workflow whose a2a block is
// present, skipping the rest (spec §4.9). baseURL is prefixed to
// `/a2a/<name>` to form each card's url.
func GenerateCards(workflows []*workflow.WorkflowDefinition, baseURL string) []AgentCard {
	cards := make([]AgentCard, 0, len(workflows))
	for _, def := range workflows {
		if def.A2A == nil {
			continue
		}
		cards = append(cards, AgentCard{
			Name:               def.Name,
			Description:        def.Description,
			URL:                baseURL + "/a2a/" + def.Name,
			Version:            def.A2A.Version,
			DefaultInputModes:  defaultModes,
			DefaultOutputModes: defaultModes,
			Skills:             def.A2A.Skills,
		})
	}
	return cards
}

// CardCache computes [GenerateCards] once at boot and serves the same
// slice for the platform's lifetime (spec §4.9: "cards are immutable
// thereafter").
type CardCache struct {
	once  sync.Once
	cards []AgentCard
}

// Get returns the cached cards, computing them on the first call.
func (c *CardCache) Get(workflows []*workflow.WorkflowDefinition, baseURL string) []AgentCard {
	c.once.Do(func() {
		c.cards = GenerateCards(workflows, baseURL)
	})
	return c.cards
}
