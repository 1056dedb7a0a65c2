package flow

import (
	"crypto/sha256"
	"encoding/hex"

	"stubrunner-agent/src/contracts"
)

// digestLength is the number of hex characters of the content digest kept in flow names.
const digestLength = 8

// Group is the set of contracts one stub declares for one input destination,
// in declaration order.
type Group struct {
	Stub        contracts.StubIdentity
	Destination string
	Contracts   []contracts.Contract
}

// GroupContracts splits a collection into groups keyed by (stub, input destination).
// Contracts without an input destination are not message driven and are left out.
// Stubs are visited in sorted order, groups within a stub in order of first
// appearance, and contracts keep their declaration order.
func GroupContracts(collection contracts.Collection) []Group {
	var groups []Group

	for _, stub := range collection.Stubs() {
		index := make(map[string]int)
		var stubGroups []Group

		for _, c := range collection[stub] {
			from, ok := c.Input.From.Name()
			if !ok {
				continue
			}
			i, seen := index[from]
			if !seen {
				i = len(stubGroups)
				index[from] = i
				stubGroups = append(stubGroups, Group{Stub: stub, Destination: from})
			}
			stubGroups[i].Contracts = append(stubGroups[i].Contracts, c)
		}

		groups = append(groups, stubGroups...)
	}

	return groups
}

// Name derives the flow name: "<group>_<artifact>_<destination>_<digest>".
// The digest is content addressed (SHA-256 of the contracts' canonical encoding),
// so the same contracts always produce the same name across restarts. Truncating
// it keeps names readable at the cost of a small collision probability, which
// the Builder detects and resolves.
func (g Group) Name() string {
	return g.Stub.String() + "_" + g.Destination + "_" + g.Digest()
}

// Digest returns the truncated content digest of the group's contracts.
func (g Group) Digest() string {
	h := sha256.New()
	for _, c := range g.Contracts {
		h.Write(c.Fingerprint())
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:digestLength]
}

// Destinations returns the distinct input destinations of the group's contracts.
func (g Group) Destinations() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range g.Contracts {
		from, ok := c.Input.From.Name()
		if !ok || seen[from] {
			continue
		}
		seen[from] = true
		out = append(out, from)
	}
	return out
}
