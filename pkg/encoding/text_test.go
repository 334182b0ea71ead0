package encoding

import "testing"

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("Cube"), "Cube"},
		{"utf8", []byte("Würfel"), "Würfel"},
		{"windows-1252", []byte{'W', 0xFC, 'r', 'f', 'e', 'l'}, "Würfel"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeName(tt.in); got != tt.want {
				t.Errorf("DecodeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCString(t *testing.T) {
	data := []byte{'C', 'a', 'f', 0xE9, 0, 'x', 'y'}
	if got := CString(data); got != "Café" {
		t.Errorf("CString = %q, want %q", got, "Café")
	}
	if got := CString([]byte("plain")); got != "plain" {
		t.Errorf("CString without terminator = %q", got)
	}
}

func TestEncodeNameRoundTrip(t *testing.T) {
	enc := EncodeName("Würfel")
	if len(enc) != 6 || enc[1] != 0xFC {
		t.Fatalf("EncodeName = %v", enc)
	}
	if got := DecodeName(enc); got != "Würfel" {
		t.Errorf("round trip = %q", got)
	}
}
