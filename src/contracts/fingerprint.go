package contracts

import (
	"bytes"
	"encoding/json"

	"golang.org/x/text/unicode/norm"
)

// canonicalContract is the stable JSON shape used for fingerprints.
// encoding/json sorts map keys, so equal contracts always encode identically.
type canonicalContract struct {
	Name   string             `json:"name"`
	From   string             `json:"from"`
	Body   Pattern            `json:"body"`
	Match  map[string]Pattern `json:"headers,omitempty"`
	SentTo string             `json:"sent_to"`
	Out    string             `json:"out_body"`
	OutHdr map[string]string  `json:"out_headers,omitempty"`
	Echo   map[string]string  `json:"echo_headers,omitempty"`
	Delay  int64              `json:"delay_ms,omitempty"`
}

// Fingerprint returns a canonical encoding of the contract content. Strings
// are NFC normalized so that composed and decomposed spellings of the same
// text fingerprint alike.
func (c Contract) Fingerprint() []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(canonicalContract{
		Name:   nfc(c.Name),
		From:   nfc(c.Input.From.String()),
		Body:   c.Input.Body,
		Match:  c.Input.Headers,
		SentTo: nfc(c.Output.SentTo.String()),
		Out:    nfc(c.Output.Body),
		OutHdr: nfcMap(c.Output.Headers),
		Echo:   nfcMap(c.Output.EchoHeaders),
		Delay:  c.Output.Delay.Milliseconds(),
	})
	if err != nil {
		// Only strings and patterns are encoded; this cannot fail.
		panic(err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

func nfcMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[nfc(k)] = nfc(v)
	}
	return out
}
