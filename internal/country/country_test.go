package country

import (
	"sort"
	"testing"
)

func TestForDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"hbl.com.pk", "Pakistan"},
		{"example.com", "United States"},
		{"bbc.co.uk", "United Kingdom"},
		{"something.uk", "United Kingdom"},
		{"code.dev", "International"},
		{"localhost", "Unknown"},
		{"", "Unknown"},
		{"UPPER.DE", "Germany"},
		{"site.example", "Unknown"},
	}
	for _, tt := range tests {
		if got := ForDomain(tt.domain); got != tt.want {
			t.Errorf("ForDomain(%q) = %q, want %q", tt.domain, got, tt.want)
		}
	}
}

func TestForTLD(t *testing.T) {
	if got := ForTLD("PK"); got != "Pakistan" {
		t.Errorf("ForTLD(PK) = %q, want Pakistan", got)
	}
	if got := ForTLD("xyz"); got != "Unknown" {
		t.Errorf("ForTLD(xyz) = %q, want Unknown", got)
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Pakistan", "PK"},
		{"united kingdom", "GB"},
		{" United States ", "US"},
		{"International", "International"}, // synthetic bucket, no code
		{"PK", "PK"},                       // already a code
	}
	for _, tt := range tests {
		if got := Code(tt.name); got != tt.want {
			t.Errorf("Code(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestTLDs(t *testing.T) {
	tlds := TLDs("United Kingdom")
	sort.Strings(tlds)
	if len(tlds) != 2 || tlds[0] != "co.uk" || tlds[1] != "uk" {
		t.Errorf("TLDs(United Kingdom) = %v, want [co.uk uk]", tlds)
	}

	if tlds := TLDs("Atlantis"); len(tlds) != 0 {
		t.Errorf("TLDs(Atlantis) = %v, want empty", tlds)
	}
}
