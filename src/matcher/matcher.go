// Package matcher selects the contract that answers an inbound message.
//
// Matching is first-match-wins over the contracts in declaration order.
// Contracts are not required to be mutually exclusive; when several accept a
// message the earliest one is chosen, so results are reproducible even when
// contracts overlap. Match is pure and safe for concurrent use.
package matcher

import (
	"bytes"
	"encoding/json"
	"math/big"
	"reflect"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
)

// Result is the outcome of matching one message against a contract group.
type Result struct {
	// Matched is false when no contract accepted the message.
	Matched bool
	// Contract is the accepted contract. Zero when Matched is false.
	Contract contracts.Contract
	// Index is the position of Contract in the group, or -1.
	Index int
}

// NoMatch is the result returned when no contract accepts a message.
var NoMatch = Result{Index: -1}

// Match returns the first contract in group that accepts msg.
// The destination is not checked: routing already guarantees it.
func Match(msg broker.Message, group []contracts.Contract) Result {
	for i, c := range group {
		if Accepts(c, msg) {
			return Result{Matched: true, Contract: c, Index: i}
		}
	}
	return NoMatch
}

// Accepts reports whether the contract's body and header expectations hold for msg.
func Accepts(c contracts.Contract, msg broker.Message) bool {
	return bodyAccepts(c.Input.Body, msg.Value) && headersAccept(c.Input.Headers, msg.Headers)
}

func bodyAccepts(p contracts.Pattern, body []byte) bool {
	switch p.Kind() {
	case contracts.PatternAbsent:
		return true
	case contracts.PatternLiteral:
		if string(body) == p.Value() {
			return true
		}
		return jsonEqual([]byte(p.Value()), body)
	default:
		return p.Accepts(string(body))
	}
}

func headersAccept(expected map[string]contracts.Pattern, actual map[string]string) bool {
	for name, p := range expected {
		if !p.IsPresent() {
			continue
		}
		v, ok := actual[name]
		if !ok || !p.Accepts(v) {
			return false
		}
	}
	return true
}

// jsonEqual reports whether a and b are both JSON documents with equal content,
// so that literal bodies match regardless of key order or whitespace.
func jsonEqual(a, b []byte) bool {
	a, b = bytes.TrimSpace(a), bytes.TrimSpace(b)
	if len(a) == 0 || len(b) == 0 || !isJSONContainer(a) || !isJSONContainer(b) {
		return false
	}

	va, ok := decodeJSON(a)
	if !ok {
		return false
	}
	vb, ok := decodeJSON(b)
	if !ok {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

// decodeJSON keeps numbers as json.Number so that large integers compare exactly.
func decodeJSON(data []byte) (interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return normalizeNumbers(v), true
}

// canonicalNumber keeps numbers distinct from strings of the same text.
type canonicalNumber string

// normalizeNumbers rewrites numbers into a canonical form, so 1, 1.0 and 1e0
// stay equal while distinct large integers do not.
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if r, ok := new(big.Rat).SetString(t.String()); ok {
			return canonicalNumber(r.RatString())
		}
		return canonicalNumber(t.String())
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	}
	return v
}

func isJSONContainer(b []byte) bool {
	return b[0] == '{' || b[0] == '['
}
