// Package loader reads stub contract files into a contracts.Collection.
//
// A contract file is YAML (JSON is accepted too) and may hold several
// documents, one per stub:
//
//	stub:
//	  group: com.example
//	  artifact: orders
//	contracts:
//	  - name: create
//	    input:
//	      messageFrom: orders.in
//	      body: CREATE
//	    output:
//	      sentTo: orders.out
//	      body: CREATED
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"stubrunner-agent/src/contracts"
)

// File is one decoded stub document.
type File struct {
	Stub      StubSpec       `yaml:"stub"`
	Contracts []ContractSpec `yaml:"contracts"`
}

// StubSpec identifies the stub that owns the contracts.
type StubSpec struct {
	Group    string `yaml:"group"`
	Artifact string `yaml:"artifact"`
}

// ContractSpec is the on-disk form of a contract.
type ContractSpec struct {
	Name   string     `yaml:"name"`
	Input  InputSpec  `yaml:"input,omitempty"`
	Output OutputSpec `yaml:"output"`
}

// InputSpec describes the trigger. Body is matched literally; BodyMatches is a
// regular expression over the whole body. At most one of them may be set.
type InputSpec struct {
	MessageFrom     string            `yaml:"messageFrom,omitempty"`
	Body            interface{}       `yaml:"body,omitempty"`
	BodyMatches     string            `yaml:"bodyMatches,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty"`
	HeadersMatching map[string]string `yaml:"headersMatching,omitempty"`
}

// OutputSpec describes the response. Structured bodies are sent as JSON.
type OutputSpec struct {
	SentTo      string            `yaml:"sentTo"`
	Body        interface{}       `yaml:"body,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	EchoHeaders map[string]string `yaml:"echoHeaders,omitempty"`
	Delay       string            `yaml:"delay,omitempty"`
}

var extensions = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// Load reads path, which may be a single contract file or a directory of them.
func Load(path string) (contracts.Collection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat contracts path: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadDir loads every .yaml, .yml and .json file below dir, in lexical path order.
func LoadDir(dir string) (contracts.Collection, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk contracts directory: %w", err)
	}
	sort.Strings(paths)

	collection := contracts.Collection{}
	for _, path := range paths {
		if err := loadInto(collection, path); err != nil {
			return nil, err
		}
	}
	return collection, nil
}

// LoadFile loads a single contract file.
func LoadFile(path string) (contracts.Collection, error) {
	collection := contracts.Collection{}
	if err := loadInto(collection, path); err != nil {
		return nil, err
	}
	return collection, nil
}

func loadInto(collection contracts.Collection, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read contract file: %w", err)
	}

	files, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	for _, f := range files {
		stub, list, err := f.Convert()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		collection[stub] = append(collection[stub], list...)
	}
	return nil
}

// Parse decodes every document in data. Unknown fields are rejected so that
// typos such as "sendTo" fail loudly instead of silently dropping the output.
func Parse(data []byte) ([]File, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var files []File
	for {
		var f File
		err := decoder.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no stub documents found")
	}
	return files, nil
}

// Convert turns a decoded document into domain contracts.
func (f File) Convert() (contracts.StubIdentity, []contracts.Contract, error) {
	stub := contracts.StubIdentity{Group: f.Stub.Group, Artifact: f.Stub.Artifact}
	if stub.Group == "" || stub.Artifact == "" {
		return stub, nil, fmt.Errorf("stub group and artifact are required")
	}

	out := make([]contracts.Contract, 0, len(f.Contracts))
	for i, spec := range f.Contracts {
		c, err := spec.Convert()
		if err != nil {
			name := spec.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return stub, nil, fmt.Errorf("stub %s contract %s: %w", stub, name, err)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("%s-%d", stub, i)
		}
		out = append(out, c)
	}
	return stub, out, nil
}

// Convert turns a decoded contract into a contracts.Contract. Regular
// expressions are compiled here.
func (s ContractSpec) Convert() (contracts.Contract, error) {
	body, err := bodyPattern(s.Input)
	if err != nil {
		return contracts.Contract{}, err
	}

	headers, err := headerPatterns(s.Input)
	if err != nil {
		return contracts.Contract{}, err
	}

	outBody, err := renderBody(s.Output.Body)
	if err != nil {
		return contracts.Contract{}, fmt.Errorf("output body: %w", err)
	}

	var delay time.Duration
	if s.Output.Delay != "" {
		delay, err = time.ParseDuration(s.Output.Delay)
		if err != nil {
			return contracts.Contract{}, fmt.Errorf("output delay: %w", err)
		}
	}

	return contracts.Contract{
		Name: s.Name,
		Input: contracts.Input{
			From:    destination(s.Input.MessageFrom),
			Body:    body,
			Headers: headers,
		},
		Output: contracts.Output{
			SentTo:      destination(s.Output.SentTo),
			Body:        outBody,
			Headers:     s.Output.Headers,
			EchoHeaders: s.Output.EchoHeaders,
			Delay:       delay,
		},
	}, nil
}

func destination(name string) contracts.Destination {
	if strings.TrimSpace(name) == "" {
		return contracts.NoDestination()
	}
	return contracts.At(name)
}

func bodyPattern(in InputSpec) (contracts.Pattern, error) {
	if in.Body != nil && in.BodyMatches != "" {
		return contracts.Pattern{}, fmt.Errorf("input body and bodyMatches are mutually exclusive")
	}
	if in.BodyMatches != "" {
		return contracts.Regex(in.BodyMatches)
	}
	if in.Body == nil {
		return contracts.Any(), nil
	}
	literal, err := renderBody(in.Body)
	if err != nil {
		return contracts.Pattern{}, fmt.Errorf("input body: %w", err)
	}
	return contracts.Literal(literal), nil
}

func headerPatterns(in InputSpec) (map[string]contracts.Pattern, error) {
	if len(in.Headers) == 0 && len(in.HeadersMatching) == 0 {
		return nil, nil
	}

	out := make(map[string]contracts.Pattern, len(in.Headers)+len(in.HeadersMatching))
	for name, value := range in.Headers {
		out[name] = contracts.Literal(value)
	}
	for name, expr := range in.HeadersMatching {
		if _, dup := in.Headers[name]; dup {
			return nil, fmt.Errorf("header %q declared in both headers and headersMatching", name)
		}
		p, err := contracts.Regex(expr)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}

// renderBody returns strings as-is and encodes anything else as JSON.
func renderBody(v interface{}) (string, error) {
	switch b := v.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
