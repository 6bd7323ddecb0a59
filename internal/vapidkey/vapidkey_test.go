package vapidkey_test

import (
	"errors"
	"strings"
	"testing"

	"eagain.net/go/vapidgen/internal/keysource"
	"eagain.net/go/vapidgen/internal/vapidkey"
	"github.com/google/go-cmp/cmp"
)

type fixture struct {
	derPrivate string
	derPublic  string
	rawPrivate string
	rawPublic  string
	tag        string
}

// $ go run ./internal/debug/cmd/describe-key <derPrivate>
//
// Keys made with openssl ecparam -name prime256v1 -genkey; the first
// one has a scalar with a leading zero byte.
var fixtures = []fixture{
	{
		derPrivate: "MIGHAgEAMBMGByqGSM49AgEGCCqGSM49AwEHBG0wawIBAQQgAL2iPAmJVycxtacDMWezxnOA656HBenp6bPx4B_FEO6hRANCAASdt_PrZ_rUcEQeeWdeGiqHwJUf5YCMR9cmFJGD35YaaiDa2W7eyqT7h6uQl-aPabsKJ66Z9zkIFsV-H3APEO7r",
		derPublic:  "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAEnbfz62f61HBEHnlnXhoqh8CVH-WAjEfXJhSRg9-WGmog2tlu3sqk-4erkJfmj2m7Cieumfc5CBbFfh9wDxDu6w",
		rawPrivate: "AL2iPAmJVycxtacDMWezxnOA656HBenp6bPx4B_FEO4",
		rawPublic:  "BJ238-tn-tRwRB55Z14aKofAlR_lgIxH1yYUkYPflhpqINrZbt7KpPuHq5CX5o9puwonrpn3OQgWxX4fcA8Q7us",
		tag:        "Q2RBuQ",
	},
	{
		derPrivate: "MIGHAgEAMBMGByqGSM49AgEGCCqGSM49AwEHBG0wawIBAQQgb2pdw-zo-pTLy5lLNtAM7IfdNgij_rmIC9mPAiQmMjahRANCAARGWHEBSGSCccKu9AkMxXVAV8S9NpFMMQXVLQePViFGWLzjyV_b6kyZnH0aRkyp6DRlPOEyj6dNvV78DYvJhCoq",
		derPublic:  "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAERlhxAUhkgnHCrvQJDMV1QFfEvTaRTDEF1S0Hj1YhRli848lf2-pMmZx9GkZMqeg0ZTzhMo-nTb1e_A2LyYQqKg",
		rawPrivate: "b2pdw-zo-pTLy5lLNtAM7IfdNgij_rmIC9mPAiQmMjY",
		rawPublic:  "BEZYcQFIZIJxwq70CQzFdUBXxL02kUwxBdUtB49WIUZYvOPJX9vqTJmcfRpGTKnoNGU84TKPp029XvwNi8mEKio",
		tag:        "Fd7yag",
	},
}

const (
	p384Public  = "MHYwEAYHKoZIzj0CAQYFK4EEACIDYgAEAD5lWgm5aPmLGPMHxaatdTC0btZYZ1OlzbmenjZcFwCRnCeRSGBs48zqF3TsyrEBKNrQ3GzKlHiOHK9hrGfhkCmMt8t_9FVLRLMhkiDZgnJG7D62t1LFAfZkIcqounna"
	p384Private = "MIG2AgEAMBAGByqGSM49AgEGBSuBBAAiBIGeMIGbAgEBBDAVStqBWmTSF6xdzFYsy17Z6GRdgjUkZjGlUil1paOwEF9coXssaCZuMooZOiItSnChZANiAAQAPmVaCblo-YsY8wfFpq11MLRu1lhnU6XNuZ6eNlwXAJGcJ5FIYGzjzOoXdOzKsQEo2tDcbMqUeI4cr2GsZ-GQKYy3y3_0VUtEsyGSINmCckbsPra3UsUB9mQhyqi6edo"
)

func pad(s string) string {
	for len(s)%4 != 0 {
		s += "="
	}
	return s
}

func TestEncodeFixtures(t *testing.T) {
	for _, fx := range fixtures {
		t.Run(fx.tag, func(t *testing.T) {
			key, err := vapidkey.ParsePrivateKey(fx.derPrivate)
			if err != nil {
				t.Fatalf("ParsePrivateKey: %v", err)
			}

			got, err := vapidkey.Encode(key, vapidkey.DER)
			if err != nil {
				t.Fatalf("Encode DER: %v", err)
			}
			want := &vapidkey.Encoded{Public: fx.derPublic, Private: fx.derPrivate}
			if diff := cmp.Diff(got, want); diff != "" {
				t.Errorf("wrong DER encoding (-got +want)\n%s", diff)
			}

			got, err = vapidkey.Encode(key, vapidkey.Raw)
			if err != nil {
				t.Fatalf("Encode raw: %v", err)
			}
			want = &vapidkey.Encoded{Public: fx.rawPublic, Private: fx.rawPrivate}
			if diff := cmp.Diff(got, want); diff != "" {
				t.Errorf("wrong raw encoding (-got +want)\n%s", diff)
			}
		})
	}
}

func TestParseFormatsAgree(t *testing.T) {
	for _, fx := range fixtures {
		t.Run(fx.tag, func(t *testing.T) {
			derPub, err := vapidkey.ParsePublicKey(fx.derPublic)
			if err != nil {
				t.Fatalf("ParsePublicKey DER: %v", err)
			}
			rawPub, err := vapidkey.ParsePublicKey(fx.rawPublic)
			if err != nil {
				t.Fatalf("ParsePublicKey raw: %v", err)
			}
			if !derPub.Equal(rawPub) {
				t.Error("DER and raw public keys differ")
			}

			derPriv, err := vapidkey.ParsePrivateKey(fx.derPrivate)
			if err != nil {
				t.Fatalf("ParsePrivateKey DER: %v", err)
			}
			rawPriv, err := vapidkey.ParsePrivateKey(fx.rawPrivate)
			if err != nil {
				t.Fatalf("ParsePrivateKey raw: %v", err)
			}
			if !derPriv.Equal(rawPriv) {
				t.Error("DER and raw private keys differ")
			}
			if !rawPriv.PublicKey.Equal(derPub) {
				t.Error("public key derived from the scalar does not match")
			}

			if got := vapidkey.Tag(derPub); got != fx.tag {
				t.Errorf("wrong tag: %q != %q", got, fx.tag)
			}
		})
	}
}

func TestParsePadded(t *testing.T) {
	fx := fixtures[0]
	if _, err := vapidkey.ParsePublicKey(pad(fx.derPublic)); err != nil {
		t.Errorf("padded DER public key: %v", err)
	}
	if _, err := vapidkey.ParsePrivateKey(pad(fx.rawPrivate)); err != nil {
		t.Errorf("padded raw private key: %v", err)
	}
	e := &vapidkey.Encoded{Public: pad(fx.rawPublic), Private: pad(fx.derPrivate)}
	if err := vapidkey.Check(e); err != nil {
		t.Errorf("Check padded: %v", err)
	}
}

func TestParseReject(t *testing.T) {
	fx := fixtures[0]
	publics := map[string]string{
		"empty":       "",
		"std-base64":  strings.NewReplacer("-", "+", "_", "/").Replace(fx.derPublic),
		"truncated":   fx.derPublic[:len(fx.derPublic)-8],
		"trailing":    fx.derPublic + "AAAA",
		"p384":        p384Public,
		"private-der": fx.derPrivate,
		"off-curve":   "BA" + fx.rawPublic[2:],
	}
	for name, s := range publics {
		t.Run("public/"+name, func(t *testing.T) {
			if pub, err := vapidkey.ParsePublicKey(s); err == nil {
				t.Errorf("accepted bad public key: %v", pub)
			}
		})
	}

	privates := map[string]string{
		"empty":      "",
		"truncated":  fx.derPrivate[:len(fx.derPrivate)-8],
		"p384":       p384Private,
		"public-der": fx.derPublic,
		"overflow":   "__________________________________________8",
	}
	for name, s := range privates {
		t.Run("private/"+name, func(t *testing.T) {
			if _, err := vapidkey.ParsePrivateKey(s); err == nil {
				t.Error("accepted bad private key")
			}
		})
	}
}

func TestCheckMismatch(t *testing.T) {
	e := &vapidkey.Encoded{
		Public:  fixtures[1].rawPublic,
		Private: fixtures[0].derPrivate,
	}
	if err := vapidkey.Check(e); !errors.Is(err, vapidkey.ErrMismatch) {
		t.Errorf("bad error: %v", err)
	}
}

func TestEncodeGenerated(t *testing.T) {
	gen := keysource.New()
	for _, f := range []vapidkey.Format{vapidkey.DER, vapidkey.Raw} {
		t.Run(f.String(), func(t *testing.T) {
			key, err := gen.GenerateKey()
			if err != nil {
				t.Fatalf("GenerateKey: %v", err)
			}
			e, err := vapidkey.Encode(key, f)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			for _, s := range []string{e.Public, e.Private} {
				if strings.ContainsAny(s, "+/=") {
					t.Errorf("not unpadded URL-safe base64: %q", s)
				}
			}
			if err := vapidkey.Check(e); err != nil {
				t.Errorf("Check: %v", err)
			}
			pub, err := vapidkey.ParsePublicKey(e.Public)
			if err != nil {
				t.Fatalf("ParsePublicKey: %v", err)
			}
			if !pub.Equal(&key.PublicKey) {
				t.Error("parsed public key differs from generated key")
			}
			if !vapidkey.PrefixReachable(f, e.Public[:3]) {
				t.Errorf("PrefixReachable rejects prefix of real key %q", e.Public)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range []vapidkey.Format{vapidkey.DER, vapidkey.Raw} {
		got, err := vapidkey.ParseFormat(f.String())
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", f, err)
		}
		if got != f {
			t.Errorf("ParseFormat(%q) = %v", f, got)
		}
	}
	var f vapidkey.Format
	if err := f.Set("pem"); err == nil {
		t.Error("Set accepted unknown format")
	}
}

func TestPrefixReachable(t *testing.T) {
	tests := []struct {
		format vapidkey.Format
		prefix string
		want   bool
	}{
		{vapidkey.Raw, "", true},
		{vapidkey.Raw, "B", true},
		{vapidkey.Raw, "BP", true},
		{vapidkey.Raw, "BPx-", true},
		{vapidkey.Raw, "BQ", false},
		{vapidkey.Raw, "C", false},
		{vapidkey.Raw, "B+", false},
		{vapidkey.Raw, "B" + strings.Repeat("A", 87), false},
		{vapidkey.DER, "", true},
		{vapidkey.DER, "MFkw", true},
		{vapidkey.DER, "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAE", true},
		{vapidkey.DER, "MFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAE_z", true},
		{vapidkey.DER, "MFkx", false},
		{vapidkey.DER, "BP", false},
	}
	for _, tt := range tests {
		if got := vapidkey.PrefixReachable(tt.format, tt.prefix); got != tt.want {
			t.Errorf("PrefixReachable(%v, %q) = %v, want %v", tt.format, tt.prefix, got, tt.want)
		}
	}
}
