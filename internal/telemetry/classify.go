package telemetry

import (
	"strings"

	"commandcenter/internal/domain"
)

// Markers recognized in kernel output, in match order
const (
	MarkerPerceptionNode    = "[Perception] Node:"
	MarkerActiveConcept     = "[Perception] Active Concept:"
	MarkerTeachingLearned   = "[Teaching] Learned:"
	MarkerCuriositySuggests = "[Curiosity] Suggests:"
)

// Unknown is substituted for an identifier the line does not carry
const Unknown = "?"

// Classify extracts at most one graph event from a telemetry line.
// The first matching marker wins; a line matching none returns (nil, false).
func Classify(line string) (domain.GraphEvent, bool) {
	switch {
	case strings.Contains(line, MarkerPerceptionNode):
		return perceptionNode(line), true

	case strings.Contains(line, MarkerActiveConcept):
		return activeConcept(line), true

	case strings.Contains(line, MarkerTeachingLearned) && strings.Contains(line, "->"):
		return teachingLearned(line), true

	case strings.Contains(line, MarkerCuriositySuggests) && strings.Contains(line, " on "):
		return curiositySuggests(line), true
	}

	return nil, false
}

// perceptionNode parses "[Perception] Node: <id> | Type: <type>"
func perceptionNode(line string) domain.GraphEvent {
	parts := strings.Split(line, "|")

	id := Unknown
	if seg := nth(strings.Split(parts[0], "Node:"), 1); seg != "" {
		id = seg
	}

	nodeType := domain.NodeTypeConcept
	if len(parts) > 1 {
		if seg := nth(strings.Split(parts[1], "Type:"), 1); seg != "" {
			nodeType = domain.NodeType(seg)
		}
	}

	return domain.NodeAdded{ID: id, Label: id, NodeType: nodeType}
}

// activeConcept parses "[Perception] Active Concept: <id>"
func activeConcept(line string) domain.GraphEvent {
	id := nth(strings.Split(line, "Active Concept:"), 1)
	return domain.NodeAdded{ID: id, Label: id, NodeType: domain.NodeTypeConcept}
}

// teachingLearned parses `[Teaching] Learned: "<source>" -> [<target>]`
func teachingLearned(line string) domain.GraphEvent {
	parts := strings.Split(line, "->")

	source := Unknown
	if quoted := strings.Split(parts[0], `"`); len(quoted) > 1 {
		source = quoted[1]
	}

	target := strings.NewReplacer("[", "", "]", "").Replace(parts[1])
	target = strings.TrimSpace(target)

	return domain.EdgeAdded{Source: source, Target: target, Relation: domain.RelationTriggers}
}

// curiositySuggests parses "[Curiosity] Suggests: <what> on <id> (<detail>)"
func curiositySuggests(line string) domain.GraphEvent {
	parts := strings.Split(line, " on ")
	target, _, _ := strings.Cut(parts[1], "(")
	return domain.Activation{ID: strings.TrimSpace(target), Level: 1.0}
}

// nth returns the trimmed i-th element of parts, or "" when absent
func nth(parts []string, i int) string {
	if i >= len(parts) {
		return ""
	}
	return strings.TrimSpace(parts[i])
}
