package password

import (
	"errors"
	"strings"
	"testing"

	"github.com/deppfellow/lodging/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	digest, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if digest == "s3cret" || !strings.HasPrefix(digest, "$2a$") {
		t.Fatalf("unexpected digest %q", digest)
	}

	if ok, err := h.Verify("s3cret", digest); !ok || err != nil {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}
	if ok, err := h.Verify("wrong", digest); ok || err != nil {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	if _, err := NewBcrypt(bcrypt.MinCost).Verify("s3cret", "plain"); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestHashRejectsBadInput(t *testing.T) {
	h := NewBcrypt(bcrypt.MinCost)

	for _, in := range []string{"", strings.Repeat("x", 73)} {
		if _, err := h.Hash(in); !errors.Is(err, errs.ErrValidation) {
			t.Errorf("Hash(len=%d) error = %v, want validation error", len(in), err)
		}
	}
}

func TestDefaultCost(t *testing.T) {
	if NewBcrypt(0).cost != bcrypt.DefaultCost {
		t.Fatal("zero cost should fall back to bcrypt.DefaultCost")
	}
}
