// Package phase classifies the protocol's epoch phase and is the sole
// gating input for user actions. Anything the classifier does not
// recognize maps to Unknown, under which no action is permitted.
package phase

import "strings"

// Phase is the closed set of epoch phases the client understands.
type Phase uint8

const (
	// Unknown is the fail-safe classification for malformed or
	// unrecognized phase data. Zero value on purpose.
	Unknown Phase = iota
	Deposit
	Investing
	Claiming
)

// Borsh enum variant indices as laid out in the on-chain account.
const (
	variantDeposit   = 0
	variantInvesting = 1
	variantClaiming  = 2
)

// FromVariant maps a borsh enum variant index to a Phase. Indices outside
// the known range classify as Unknown rather than failing.
func FromVariant(idx uint8) Phase {
	switch idx {
	case variantDeposit:
		return Deposit
	case variantInvesting:
		return Investing
	case variantClaiming:
		return Claiming
	default:
		return Unknown
	}
}

// FromTag maps the JSON single-key tagged representation ("deposit",
// "investing", "claiming") to a Phase. Empty or unrecognized tags
// classify as Unknown.
func FromTag(tag string) Phase {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "deposit":
		return Deposit
	case "investing":
		return Investing
	case "claiming":
		return Claiming
	default:
		return Unknown
	}
}

// FromTaggedObject classifies the anchor-style tagged enum object, which
// encodes the active variant as the object's single key. Missing or
// multi-key objects classify as Unknown.
func FromTaggedObject(obj map[string]any) Phase {
	if len(obj) != 1 {
		return Unknown
	}
	for k := range obj {
		return FromTag(k)
	}
	return Unknown
}

func (p Phase) String() string {
	switch p {
	case Deposit:
		return "deposit"
	case Investing:
		return "investing"
	case Claiming:
		return "claiming"
	default:
		return "unknown"
	}
}

// Known reports whether p is one of the three protocol phases.
func (p Phase) Known() bool {
	return p == Deposit || p == Investing || p == Claiming
}
