package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	const key = "PULSEBOT_TEST_BOOL"
	tests := []struct {
		name  string
		value string
		def   bool
		want  bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"yes mixed case", " YeS ", false, true},
		{"on", "on", false, true},
		{"false", "false", true, false},
		{"zero", "0", true, false},
		{"off", "OFF", true, false},
		{"invalid keeps default", "maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.value)
			if got := ParseBoolEnv(key, tt.def); got != tt.want {
				t.Errorf("ParseBoolEnv(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetenvDefault(t *testing.T) {
	const key = "PULSEBOT_TEST_STRING"
	t.Setenv(key, "")
	if got := GetenvDefault(key, "fallback"); got != "fallback" {
		t.Errorf("GetenvDefault unset = %q, want fallback", got)
	}
	t.Setenv(key, "   ")
	if got := GetenvDefault(key, "fallback"); got != "fallback" {
		t.Errorf("GetenvDefault blank = %q, want fallback", got)
	}
	t.Setenv(key, " value ")
	if got := GetenvDefault(key, "fallback"); got != "value" {
		t.Errorf("GetenvDefault = %q, want value", got)
	}
}

func TestListenAddr(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"3000":           ":3000",
		" 8080 ":         ":8080",
		":3000":          ":3000",
		"127.0.0.1:2112": "127.0.0.1:2112",
	}
	for in, want := range tests {
		if got := ListenAddr(in); got != want {
			t.Errorf("ListenAddr(%q) = %q, want %q", in, got, want)
		}
	}
}
