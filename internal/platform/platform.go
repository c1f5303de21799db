// Package platform classifies external messaging identities.
package platform

import "strings"

// Kind is the messaging platform a platform-native id belongs to.
type Kind string

const (
	Messenger Kind = "messenger"
	Instagram Kind = "instagram"
)

// Classify derives the platform from the shape of a platform-native id.
// Instagram-scoped ids carry an underscore-delimited suffix; everything else
// is treated as a Messenger page-scoped id. Ingress and outbound dispatch
// must both go through this function so they never disagree.
func Classify(externalID string) Kind {
	if strings.Contains(externalID, "_") {
		return Instagram
	}
	return Messenger
}

// Parse converts a stored platform value into a Kind.
func Parse(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case Messenger:
		return Messenger, true
	case Instagram:
		return Instagram, true
	default:
		return "", false
	}
}

func (k Kind) String() string { return string(k) }

// Valid reports whether k is a known platform.
func (k Kind) Valid() bool {
	return k == Messenger || k == Instagram
}
