package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/qagate/internal/records"
)

// readRows loads an ingest request from a JSON or YAML file holding either
// a bare list of rows or a {source, rows} document. The source defaults
// to the file name.
func readRows(path string) (records.IngestRequest, error) {
	req := records.IngestRequest{Source: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("read rows: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return req, fmt.Errorf("%s: empty document", path)
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		err = root.Decode(&req.Rows)
	case yaml.MappingNode:
		err = root.Decode(&req)
	default:
		return req, fmt.Errorf("%s: expected a list of rows or a {source, rows} document", path)
	}
	if err != nil {
		return req, fmt.Errorf("decode %s: %w", path, err)
	}
	return req, nil
}
