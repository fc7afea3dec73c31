package main

import (
	"slices"
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root, _ := newRootCmd()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"migrate", "seed", "worker", "status", "list", "get", "create", "update", "delete"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestParsePayload(t *testing.T) {
	payload, err := parsePayload(`{"name": "Paris", "country_code": "FR"}`)
	if err != nil || payload["name"] != "Paris" {
		t.Fatalf("parsePayload() = %v, %v", payload, err)
	}

	for _, bad := range []string{`[1, 2]`, `not json`} {
		if _, err := parsePayload(bad); err == nil {
			t.Errorf("parsePayload(%q) should fail", bad)
		}
	}
}
