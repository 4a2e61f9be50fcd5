// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package jsonlite

import (
	"testing"

	"github.com/tidwall/gjson"
)

// ============================================================
// Sample Builder Tests
// ============================================================

func TestSampleFloat_Format(t *testing.T) {
	got := string(SampleFloat("temp", 8.234, "garage", "22-59-55"))
	want := `{"temp":{"value":8.23,"location":"garage","tstamp":"22-59-55"}}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestSampleQuotedInt_Format(t *testing.T) {
	got := string(SampleQuotedInt("count", 42, "shed", "t"))
	want := `{"count":{"value":"42","location":"shed","tstamp":"t"}}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"22:59:55", `22\:59\:55`},
		{"a b", `a\ b`},
		{`{x,y}`, `\{x\,y\}`},
		{`a\b`, `a\\b`},
	}
	for _, tt := range tests {
		if got := Escape(tt.in); got != tt.want {
			t.Errorf("Escape(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

// ============================================================
// Round-Trip Tests
// ============================================================

func TestRoundTrip_Scalars(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"float", SampleFloat("temp", 8.23, "garage", "22:59:55"), "8.23"},
		{"negative float", SampleFloat("temp", -0.5, "garage", "22:59:55"), "-0.50"},
		{"int", SampleInt("gas", 412, "kitchen", "t"), "412"},
		{"quoted int", SampleQuotedInt("gas", 412, "kitchen", "t"), "412"},
		{"bool", SampleBool("o_light", true, "porch", "t"), "true"},
		{"string", SampleString("note", "door open", "hall", "t"), "door open"},
		{"string with structure", SampleString("note", `{a:b, c\d}`, "hall", "t"), `{a:b, c\d}`},
	}

	p := NewParser(DefaultLimits())
	for _, tt := range tests {
		r, err := p.Parse(tt.payload)
		if err != nil {
			t.Errorf("%s: Parse(%s) failed: %v", tt.name, tt.payload, err)
			continue
		}
		v, err := r.Value()
		if err != nil {
			t.Errorf("%s: Value failed: %v", tt.name, err)
			continue
		}
		if got := Unquote(v); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestRoundTrip_Metadata(t *testing.T) {
	p := NewParser(DefaultLimits())
	r, err := p.Parse(SampleFloat("temp", 8.23, "back garden", "22:59:55"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	loc, err := r.Lookup(LocationLabel)
	if err != nil || Unquote(loc) != "back garden" {
		t.Errorf("Expected location back garden, got %q (%v)", loc, err)
	}
	ts, err := r.Lookup(TimestampLabel)
	if err != nil || Unquote(ts) != "22:59:55" {
		t.Errorf("Expected tstamp 22:59:55, got %q (%v)", ts, err)
	}
	if r.Level(0).Child(0).Label() != `"temp"` {
		t.Errorf(`Expected outer label "temp", got %s`, r.Level(0).Child(0).Label())
	}
}

// Payloads without escapes are plain JSON, so gjson decodes them independently
func TestRoundTrip_AgreesWithGJSON(t *testing.T) {
	payloads := [][]byte{
		SampleFloat("temp", 21.5, "garage", "2024-01-02T03-04-05"),
		SampleFloat("humidity", 48.125, "attic", "now"),
		SampleInt("gas", -7, "kitchen", "t0"),
		SampleBool("o_auto", false, "porch", "t1"),
		SampleString("status", "ok", "hall", "t2"),
	}

	p := NewParser(DefaultLimits())
	for _, payload := range payloads {
		if !gjson.ValidBytes(payload) {
			t.Fatalf("Sample is not valid JSON: %s", payload)
		}
		r, err := p.Parse(payload)
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", payload, err)
		}

		param := Unquote(r.Level(0).Child(0).Label())
		for _, key := range []string{"value", "location", "tstamp"} {
			want := gjson.GetBytes(payload, param+"."+key)
			got, err := r.Lookup(`"` + key + `"`)
			if err != nil {
				t.Errorf("%s: Lookup(%s) failed: %v", payload, key, err)
				continue
			}
			if got != want.Raw {
				t.Errorf("%s: %s expected raw %s, got %s", payload, key, want.Raw, got)
			}
			if want.Type == gjson.String && Unquote(got) != want.String() {
				t.Errorf("%s: %s expected %s, got %s", payload, key, want.String(), Unquote(got))
			}
		}
	}
}
