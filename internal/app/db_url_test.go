package app

import "testing"

func TestNormalizeDBURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		disable bool
		want    string
	}{
		{
			name:    "adds param when enabled",
			in:      "postgres://u:p@localhost:5432/inhouse?sslmode=disable",
			disable: true,
			want:    "postgres://u:p@localhost:5432/inhouse?disable_prepared_binary_result=yes&sslmode=disable",
		},
		{
			name:    "keeps existing param",
			in:      "postgres://u:p@localhost:5432/inhouse?disable_prepared_binary_result=no",
			disable: true,
			want:    "postgres://u:p@localhost:5432/inhouse?disable_prepared_binary_result=no",
		},
		{
			name:    "untouched when disabled",
			in:      "postgres://u:p@localhost:5432/inhouse",
			disable: false,
			want:    "postgres://u:p@localhost:5432/inhouse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeDBURL(tt.in, tt.disable); got != tt.want {
				t.Fatalf("normalizeDBURL(%q)=%q want=%q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDBNameFromURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "url form", in: "postgres://u:p@localhost:5432/inhouse?sslmode=disable", want: "inhouse"},
		{name: "dsn form", in: "host=localhost dbname=inhouse user=u", want: "inhouse"},
		{name: "quoted dsn", in: `host=localhost dbname="inhouse"`, want: "inhouse"},
		{name: "missing", in: "postgres://u:p@localhost:5432/", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dbNameFromURL(tt.in); got != tt.want {
				t.Fatalf("dbNameFromURL(%q)=%q want=%q", tt.in, got, tt.want)
			}
		})
	}
}
