package envelope

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const testKeyHex = "6368616e676520746869732070617373776f726420746f206120736563726574"

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	c, err := NewCipher(testKeyHex)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func TestNewCipher_KeyLength(t *testing.T) {
	tests := []struct {
		name   string
		keyHex string
	}{
		{"too short", "deadbeef"},
		{"31 bytes", strings.Repeat("ab", 31)},
		{"33 bytes", strings.Repeat("ab", 33)},
		{"not hex", strings.Repeat("zz", 32)},
	}

	for _, tc := range tests {
		if _, err := NewCipher(tc.keyHex); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("%s: expected ErrInvalidKeyLength, got %v", tc.name, err)
		}
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c := testCipher(t)

	inputs := []string{
		"",
		"Coffee Shop",
		"  leading and trailing  ",
		"multi\nline\nvalue",
		"unicode: café 東京 ₿ €42,00",
		strings.Repeat("x", 4096),
	}

	for _, in := range inputs {
		ct, err := c.EncryptString(in)
		if err != nil {
			t.Fatalf("EncryptString(%q): %v", in, err)
		}
		out, err := c.DecryptString(ct)
		if err != nil {
			t.Fatalf("DecryptString(%q): %v", in, err)
		}
		if out != in {
			t.Errorf("round trip mismatch: got %q, want %q", out, in)
		}
	}
}

func TestEncryptString_NonDeterministic(t *testing.T) {
	c := testCipher(t)

	first, err := c.EncryptString("same plaintext")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	second, err := c.EncryptString("same plaintext")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	if first == second {
		t.Fatal("two encryptions of the same plaintext produced identical blobs")
	}

	for _, ct := range []string{first, second} {
		got, err := c.DecryptString(ct)
		if err != nil {
			t.Fatalf("DecryptString: %v", err)
		}
		if got != "same plaintext" {
			t.Errorf("decrypt mismatch: %q", got)
		}
	}
}

func TestDecryptString_FailsClosed(t *testing.T) {
	c := testCipher(t)

	ct, err := c.EncryptString("secret")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}

	// Wrong key.
	other, err := NewCipher(strings.Repeat("42", 32))
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	if _, err := other.DecryptString(ct); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("wrong key: expected ErrDecryptionFailed, got %v", err)
	}

	// Flipped byte in the payload.
	blob, _ := base64.StdEncoding.DecodeString(ct)
	blob[len(blob)-1] ^= 0x01
	tampered := base64.StdEncoding.EncodeToString(blob)
	if _, err := c.DecryptString(tampered); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("tampered: expected ErrDecryptionFailed, got %v", err)
	}

	// Inputs that are not envelopes at all.
	for _, in := range []string{"", "not base64 !!!", "cGxhaW50ZXh0", "Coffee Shop"} {
		if _, err := c.DecryptString(in); !errors.Is(err, ErrDecryptionFailed) {
			t.Errorf("DecryptString(%q): expected ErrDecryptionFailed, got %v", in, err)
		}
	}
}

func TestEnvelopeLayout(t *testing.T) {
	c := testCipher(t)

	ct, err := c.EncryptString("layout")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	blob, err := base64.StdEncoding.DecodeString(ct)
	if err != nil {
		t.Fatalf("blob is not base64: %v", err)
	}
	if want := ivSize + tagSize + len("layout"); len(blob) != want {
		t.Errorf("blob length = %d, want %d (iv+tag+payload)", len(blob), want)
	}
}

func TestNilCipher_KeyNotInitialized(t *testing.T) {
	var c *Cipher

	if _, err := c.EncryptString("x"); !errors.Is(err, ErrKeyNotInitialized) {
		t.Errorf("EncryptString: expected ErrKeyNotInitialized, got %v", err)
	}
	if _, err := c.DecryptString("x"); !errors.Is(err, ErrKeyNotInitialized) {
		t.Errorf("DecryptString: expected ErrKeyNotInitialized, got %v", err)
	}
	if _, err := c.EncryptAmount(decimal.New(1, 0)); !errors.Is(err, ErrKeyNotInitialized) {
		t.Errorf("EncryptAmount: expected ErrKeyNotInitialized, got %v", err)
	}
}

func TestAmountRoundTrip(t *testing.T) {
	c := testCipher(t)

	amounts := []string{"0", "-4.5", "12.34", "-1234.56", "0.01", "1000000"}
	for _, raw := range amounts {
		amount := decimal.RequireFromString(raw)
		ct, err := c.EncryptAmount(amount)
		if err != nil {
			t.Fatalf("EncryptAmount(%s): %v", raw, err)
		}
		got, err := c.DecryptAmount(ct)
		if err != nil {
			t.Fatalf("DecryptAmount(%s): %v", raw, err)
		}
		if !got.Equal(amount) {
			t.Errorf("amount round trip: got %s, want %s", got, amount)
		}
	}
}

func TestOptionalVariants(t *testing.T) {
	c := testCipher(t)

	ct, err := c.EncryptOptional(nil)
	if err != nil {
		t.Fatalf("EncryptOptional(nil): %v", err)
	}
	if ct != nil {
		t.Errorf("EncryptOptional(nil) = %v, want nil", *ct)
	}

	pt, err := c.DecryptOptional(nil)
	if err != nil {
		t.Fatalf("DecryptOptional(nil): %v", err)
	}
	if pt != nil {
		t.Errorf("DecryptOptional(nil) = %v, want nil", *pt)
	}

	notes := "imported from statement"
	ct, err = c.EncryptOptional(&notes)
	if err != nil {
		t.Fatalf("EncryptOptional: %v", err)
	}
	if ct == nil {
		t.Fatal("EncryptOptional returned nil for present value")
	}
	got, err := c.DecryptOptional(ct)
	if err != nil {
		t.Fatalf("DecryptOptional: %v", err)
	}
	if got == nil || *got != notes {
		t.Errorf("optional round trip mismatch: %v", got)
	}
}

func TestIsEnvelope(t *testing.T) {
	c := testCipher(t)

	ct, err := c.EncryptString("encrypted already")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	if !c.IsEnvelope(ct) {
		t.Error("IsEnvelope(ciphertext) = false, want true")
	}
	if c.IsEnvelope("Grocery Store") {
		t.Error("IsEnvelope(plaintext) = true, want false")
	}
}
