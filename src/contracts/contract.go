// Package contracts defines the declarative request/response contracts that drive
// the simulated messaging endpoints.
package contracts

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// StubIdentity identifies the artifact that contributed a set of contracts.
type StubIdentity struct {
	// Organization or group the stub belongs to (e.g. "com.example").
	Group string `json:"group"`
	// Module name within the group (e.g. "orders-service").
	Artifact string `json:"artifact"`
}

// String renders the identity as "group_artifact", the prefix used for flow names.
func (s StubIdentity) String() string {
	return s.Group + "_" + s.Artifact
}

// Destination is an optional destination name. The zero value is absent.
type Destination struct {
	name    string
	present bool
}

// At returns a present destination. Blank names are treated as absent.
func At(name string) Destination {
	name = strings.TrimSpace(name)
	if name == "" {
		return Destination{}
	}
	return Destination{name: name, present: true}
}

// NoDestination returns an absent destination.
func NoDestination() Destination {
	return Destination{}
}

// Name returns the destination name and whether it is present.
func (d Destination) Name() (string, bool) {
	return d.name, d.present
}

// IsPresent reports whether the destination is set.
func (d Destination) IsPresent() bool {
	return d.present
}

// String returns the name, or "" when absent.
func (d Destination) String() string {
	return d.name
}

var destinationPattern = regexp.MustCompile(`^[A-Za-z0-9._\-/:]+$`)

// ValidDestinationName reports whether name is usable as a broker destination.
func ValidDestinationName(name string) bool {
	return destinationPattern.MatchString(name)
}

// Input is the trigger side of a contract.
type Input struct {
	// Destination the triggering message arrives on. Absent for contracts
	// that are not message driven.
	From Destination
	// Expected message body.
	Body Pattern
	// Expected headers. Every entry must be present on the inbound message.
	Headers map[string]Pattern
}

// Output is the response side of a contract.
type Output struct {
	// Destination the response is sent to.
	SentTo Destination
	// Body sent verbatim.
	Body string
	// Headers sent verbatim.
	Headers map[string]string
	// EchoHeaders copies inbound header values onto the response.
	// Key: outbound header name, Value: inbound header name.
	EchoHeaders map[string]string
	// Delay before the response is sent.
	Delay time.Duration
}

// Contract is a single simulated interaction. Contracts are immutable once loaded.
type Contract struct {
	Name   string
	Input  Input
	Output Output
}

// Triggered reports whether the contract is driven by an inbound message.
func (c Contract) Triggered() bool {
	return c.Input.From.IsPresent()
}

// Validate checks the destination names and output of a triggered contract.
func (c Contract) Validate() error {
	if !c.Triggered() {
		return nil
	}

	from, _ := c.Input.From.Name()
	if !ValidDestinationName(from) {
		return fmt.Errorf("contract %q: malformed input destination %q", c.Name, from)
	}

	to, ok := c.Output.SentTo.Name()
	if !ok {
		return fmt.Errorf("contract %q: output destination is required", c.Name)
	}
	if !ValidDestinationName(to) {
		return fmt.Errorf("contract %q: malformed output destination %q", c.Name, to)
	}

	if c.Output.Delay < 0 {
		return fmt.Errorf("contract %q: negative output delay %s", c.Name, c.Output.Delay)
	}

	return nil
}

// Collection maps each stub to the contracts it contributed, in declaration order.
type Collection map[StubIdentity][]Contract

// Stubs returns the stub identities in a stable order.
func (c Collection) Stubs() []StubIdentity {
	stubs := make([]StubIdentity, 0, len(c))
	for stub := range c {
		stubs = append(stubs, stub)
	}
	sort.Slice(stubs, func(i, j int) bool {
		if stubs[i].Group != stubs[j].Group {
			return stubs[i].Group < stubs[j].Group
		}
		return stubs[i].Artifact < stubs[j].Artifact
	})
	return stubs
}

// Len returns the total number of contracts across all stubs.
func (c Collection) Len() int {
	n := 0
	for _, list := range c {
		n += len(list)
	}
	return n
}
