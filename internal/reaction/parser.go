package reaction

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Parse decodes a reaction document from YAML or JSON bytes.
//
// JSON documents exported by the editor are valid YAML, so both formats go
// through the same decoder.
//
// Example:
//
//	doc, err := reaction.Parse(data)
//	if err != nil {
//	    log.Fatalf("Failed to parse document: %v", err)
//	}
//	fmt.Printf("Steps: %d\n", doc.Timeline.Len())
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return &Document{}, nil
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse reaction document: %w", err)
	}
	return &doc, nil
}

// ParseFile reads and decodes a reaction document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reaction file '%s': %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}
	return doc, nil
}

// Marshal encodes a document as YAML. Extra fields are written back
// alongside the core fields.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode reaction document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush reaction document: %w", err)
	}
	return buf.Bytes(), nil
}
