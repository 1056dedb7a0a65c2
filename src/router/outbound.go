package router

import (
	"time"

	"stubrunner-agent/src/broker"
	"stubrunner-agent/src/contracts"
)

// Outbound is the response produced for a matched message.
type Outbound struct {
	Destination string
	Key         string
	Body        []byte
	Headers     map[string]string
	Delay       time.Duration
}

// BuildOutbound derives the response for inbound from the contract's output.
// Body and headers are copied verbatim; EchoHeaders copy inbound header values
// and win over static headers of the same name. The inbound key is kept so
// responses land on the same partition as their trigger.
func BuildOutbound(c contracts.Contract, inbound broker.Message) Outbound {
	out := Outbound{
		Destination: c.Output.SentTo.String(),
		Key:         inbound.Key,
		Body:        []byte(c.Output.Body),
		Delay:       c.Output.Delay,
	}

	if n := len(c.Output.Headers) + len(c.Output.EchoHeaders); n > 0 {
		out.Headers = make(map[string]string, n)
	}
	for name, value := range c.Output.Headers {
		out.Headers[name] = value
	}
	for outName, inName := range c.Output.EchoHeaders {
		if v, ok := inbound.Headers[inName]; ok {
			out.Headers[outName] = v
		}
	}

	return out
}

// Message converts the response into a broker message.
func (o Outbound) Message() broker.Message {
	return broker.Message{
		Topic:   o.Destination,
		Key:     o.Key,
		Value:   o.Body,
		Headers: o.Headers,
	}
}
