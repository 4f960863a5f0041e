// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package memory provides long-term knowledge storage and retrieval capabilities
// for agents. It allows storing and searching information from past sessions.
package memory
