package mcp

import (
	"stubrunner-agent/src/contracts"
	"stubrunner-agent/src/flow"
	"stubrunner-agent/src/sanitize"
)

func toSummary(f *flow.Flow) FlowSummary {
	return FlowSummary{
		Name:        f.Name,
		Stub:        f.Stub.String(),
		Destination: f.Destination,
		Contracts:   len(f.Router.Contracts()),
		State:       f.Router.State().String(),
		Metrics:     f.Router.Metrics(),
	}
}

func toDetail(f *flow.Flow) FlowDetail {
	detail := FlowDetail{FlowSummary: toSummary(f)}

	for _, sub := range f.Subscriptions {
		detail.Subscriptions = append(detail.Subscriptions, SubscriptionView{
			Destination: sub.Destination(),
			GroupID:     sub.GroupID(),
			Running:     sub.Running(),
		})
	}
	for _, c := range f.Router.Contracts() {
		detail.Contracts = append(detail.Contracts, toContractView(c))
	}
	return detail
}

func toContractView(c contracts.Contract) ContractView {
	view := ContractView{
		Name:         c.Name,
		Body:         toPatternView(c.Input.Body),
		SentTo:       c.Output.SentTo.String(),
		OutputBody:   sanitize.Preview([]byte(c.Output.Body), 0),
		OutputHeader: c.Output.Headers,
		EchoHeaders:  c.Output.EchoHeaders,
	}
	if len(c.Input.Headers) > 0 {
		view.Headers = make(map[string]PatternView, len(c.Input.Headers))
		for name, p := range c.Input.Headers {
			view.Headers[name] = toPatternView(p)
		}
	}
	if c.Output.Delay > 0 {
		view.Delay = c.Output.Delay.String()
	}
	return view
}

func toPatternView(p contracts.Pattern) PatternView {
	return PatternView{Kind: p.Kind().String(), Value: p.Value()}
}
