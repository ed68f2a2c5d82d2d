package domain

import "testing"

// FuzzParseStudentRef checks that the parser never accepts a value it would
// not itself produce: anything accepted must be 64 lowercase hex characters.
func FuzzParseStudentRef(f *testing.F) {
	f.Add("a3f1")
	f.Add("")
	f.Add("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	f.Fuzz(func(t *testing.T, s string) {
		ref, err := ParseStudentRef(s)
		if err != nil {
			return
		}
		if len(ref) != 64 {
			t.Fatalf("accepted ref with length %d: %q", len(ref), ref)
		}
		for _, r := range ref {
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
				t.Fatalf("accepted non-hex ref: %q", ref)
			}
		}
	})
}

// FuzzParseObjectiveID checks the slug allowlist holds for arbitrary input.
func FuzzParseObjectiveID(f *testing.F) {
	f.Add("algebra-1")
	f.Add("UPPER")
	f.Add("a b")
	f.Fuzz(func(t *testing.T, s string) {
		obj, err := ParseObjectiveID(s)
		if err != nil {
			return
		}
		for _, r := range obj.String() {
			valid := r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '_' || r == ':'
			if !valid {
				t.Fatalf("accepted objective id with invalid rune %q: %q", r, obj)
			}
		}
	})
}
