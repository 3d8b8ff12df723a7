package watch

import (
	"reflect"
	"testing"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name  string
		entry string
		want  Rule
		ok    bool
	}{
		{
			name:  "catch-all",
			entry: "napcat:GroupMessage:12345678",
			want:  Rule{Destination: "napcat:GroupMessage:12345678"},
			ok:    true,
		},
		{
			name:  "bare-id sources",
			entry: "napcat:GroupMessage:78787878:56565656,12345678",
			want: Rule{
				Destination: "napcat:GroupMessage:78787878",
				Sources:     []string{"56565656", "12345678"},
			},
			ok: true,
		},
		{
			name:  "full session id source",
			entry: "napcat:GroupMessage:1:napcat:GroupMessage:2",
			want: Rule{
				Destination: "napcat:GroupMessage:1",
				Sources:     []string{"napcat:GroupMessage:2"},
			},
			ok: true,
		},
		{
			name:  "mixed sources with spaces",
			entry: "napcat:GroupMessage:1:napcat:GroupMessage:2, 333",
			want: Rule{
				Destination: "napcat:GroupMessage:1",
				Sources:     []string{"napcat:GroupMessage:2", "333"},
			},
			ok: true,
		},
		{
			name:  "trailing colon is still a catch-all",
			entry: "napcat:GroupMessage:1:",
			want:  Rule{Destination: "napcat:GroupMessage:1"},
			ok:    true,
		},
		{name: "too few segments", entry: "napcat:GroupMessage", ok: false},
		{name: "empty segment", entry: "napcat::123", ok: false},
		{name: "empty entry", entry: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRule(tt.entry)
			if ok != tt.ok {
				t.Fatalf("ParseRule(%q) ok = %v, want %v", tt.entry, ok, tt.ok)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRule(%q) = %+v, want %+v", tt.entry, got, tt.want)
			}
		})
	}
}

func TestRuleMatch(t *testing.T) {
	sourced, _ := ParseRule("napcat:GroupMessage:78787878:56565656,12345678")
	catchAll, _ := ParseRule("napcat:GroupMessage:78787878")

	tests := []struct {
		name    string
		rule    Rule
		sid     string
		groupID string
		want    bool
	}{
		{"bare id in sources", sourced, "napcat:GroupMessage:12345678", "12345678", true},
		{"other bare id", sourced, "napcat:GroupMessage:56565656", "56565656", true},
		{"not listed", sourced, "napcat:GroupMessage:99999999", "99999999", false},
		{"catch-all matches anything", catchAll, "napcat:GroupMessage:99999999", "99999999", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Match(tt.sid, tt.groupID); got != tt.want {
				t.Errorf("Match(%q, %q) = %v, want %v", tt.sid, tt.groupID, got, tt.want)
			}
		})
	}

	t.Run("full session id source token", func(t *testing.T) {
		rule, _ := ParseRule("napcat:GroupMessage:1:napcat:GroupMessage:2")
		if !rule.Match("napcat:GroupMessage:2", "2") {
			t.Error("full session id token should match the event's session id")
		}
	})

	t.Run("matching is literal", func(t *testing.T) {
		rule, _ := ParseRule("napcat:GroupMessage:1:NapCat:GroupMessage:2")
		if rule.Match("napcat:GroupMessage:2", "2") {
			t.Error("source tokens must not be case-normalized")
		}
	})
}

func TestDestinations(t *testing.T) {
	pushList := []string{
		"napcat:GroupMessage:1",                   // catch-all
		"napcat:GroupMessage:2:12345678",          // sourced, matches
		"napcat:GroupMessage:3:99999999",          // sourced, no match
		"broken",                                  // skipped
		"napcat:GroupMessage:4:napcat:GroupMessage:12345678", // full-sid source, matches
	}
	got := Destinations(pushList, "napcat:GroupMessage:12345678", "12345678")
	want := []string{
		"napcat:GroupMessage:1",
		"napcat:GroupMessage:2",
		"napcat:GroupMessage:4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Destinations() = %v, want %v", got, want)
	}
}
