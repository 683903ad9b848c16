package signature_test

import (
	"strings"
	"testing"

	"github.com/xraph/ledger/signature"
)

func TestSignFormat(t *testing.T) {
	sig := signature.Sign([]byte(`{"action":"opened"}`), "secret")

	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("expected sha256= prefix, got %q", sig)
	}
	if len(sig) != len("sha256=")+64 {
		t.Fatalf("expected 64 hex chars after prefix, got %d", len(sig)-len("sha256="))
	}
}

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"action":"opened"}`)

	a := signature.Sign(payload, "secret")
	b := signature.Sign(payload, "secret")
	if a != b {
		t.Fatalf("same payload and secret produced different signatures: %q vs %q", a, b)
	}

	other := signature.Sign(payload, "other-secret")
	if a == other {
		t.Fatal("different secrets produced the same signature")
	}
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"action":"opened"}`)
	sig := signature.Sign(payload, "secret")

	if !signature.Verify(payload, "secret", sig) {
		t.Fatal("expected valid signature to verify")
	}
	if signature.Verify(payload, "wrong-secret", sig) {
		t.Fatal("expected wrong secret to fail verification")
	}
	if signature.Verify([]byte("tampered"), "secret", sig) {
		t.Fatal("expected tampered payload to fail verification")
	}
	if signature.Verify(payload, "secret", "sha256=deadbeef") {
		t.Fatal("expected malformed signature to fail verification")
	}
}

func TestGenerateSecret(t *testing.T) {
	s := signature.GenerateSecret()

	if !strings.HasPrefix(s, "lsec_") {
		t.Fatalf("expected lsec_ prefix, got %q", s)
	}
	if len(s) != len("lsec_")+64 {
		t.Fatalf("expected 64 hex chars after prefix, got %d", len(s)-len("lsec_"))
	}
	if s == signature.GenerateSecret() {
		t.Fatal("expected distinct secrets on successive calls")
	}
}
