package quoting

import "testing"

func TestEscapeString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no quotes", "hello", "hello"},
		{"single quote", "it's", "it''s"},
		{"double single quote", "it''s", "it''''s"},
		{"multiple quotes", "a'b'c", "a''b''c"},
		{"only quote", "'", "''"},
		{"backslash", `hello\world`, `hello\\world`},
		{"unicode with quote", "café's", "café''s"},
		{"injection attempt", "'; DROP TABLE users; --", "''; DROP TABLE users; --"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeString(tt.input)
			if got != tt.want {
				t.Errorf("EscapeString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLiteral(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "''"},
		{"simple", "Lee", "'Lee'"},
		{"irish surname", "O'Brien", "'O''Brien'"},
		{"only quote", "'", "''''"},
		{"backslash untouched", `a\b`, `'a\b'`},
		{"injection attempt", "x'; DROP TABLE Room; --", "'x''; DROP TABLE Room; --'"},
		{"unicode", "café", "'café'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Literal(tt.input)
			if got != tt.want {
				t.Errorf("Literal(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMySQLLiteral(t *testing.T) {
	t.Parallel()
	if got, want := MySQLLiteral(`O'Brien\`), `'O''Brien\\'`; got != want {
		t.Errorf("MySQLLiteral = %q, want %q", got, want)
	}
}

func TestUnliteralRoundTrip(t *testing.T) {
	t.Parallel()
	inputs := []string{"", "plain", "O'Brien", "''", "'leading", "trailing'", "a'b'c'd", "it's 'quoted'"}
	for _, in := range inputs {
		got, ok := Unliteral(Literal(in))
		if !ok {
			t.Errorf("Unliteral(Literal(%q)) not ok", in)
			continue
		}
		if got != in {
			t.Errorf("round trip: got %q, want %q", got, in)
		}
	}
}

func TestUnliteralRejectsMalformed(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"", "'", "abc", "'a'b'", "'unterminated"} {
		if _, ok := Unliteral(in); ok {
			t.Errorf("Unliteral(%q) should fail", in)
		}
	}
}
