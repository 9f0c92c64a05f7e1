package assettypes

import (
	"reflect"
	"testing"
)

func TestHeadersFor(t *testing.T) {
	tests := []struct {
		category Category
		want     []Signature
	}{
		{CategoryMusic, []Signature{SignatureOgg, SignatureID3}},
		{CategorySounds, []Signature{SignatureOgg, SignatureID3}},
		{CategoryImages, []Signature{SignaturePNG, SignatureWEBP}},
		{CategoryKtx, []Signature{SignatureKTX}},
		{CategoryRbxm, []Signature{SignatureRbxm}},
		{CategoryAll, []Signature{SignatureOgg, SignatureID3, SignaturePNG, SignatureWEBP, SignatureKTX, SignatureRbxm}},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			got := HeadersFor(tt.category)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HeadersFor(%v) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestHeadersForAllIsUnion(t *testing.T) {
	all := HeadersFor(CategoryAll)

	seen := make(map[Signature]int)
	for _, sig := range all {
		if sig == "" {
			t.Error("HeadersFor(All) contains an empty pattern")
		}
		seen[sig]++
	}
	for sig, n := range seen {
		if n != 1 {
			t.Errorf("signature %q appears %d times", sig, n)
		}
	}

	for _, c := range ConcreteCategories {
		for _, sig := range HeadersFor(c) {
			if seen[sig] == 0 {
				t.Errorf("signature %q of %v missing from HeadersFor(All)", sig, c)
			}
		}
	}
}

func TestHeadersForReturnsCopy(t *testing.T) {
	got := HeadersFor(CategoryImages)
	got[0] = "mutated"

	if HeadersFor(CategoryImages)[0] != SignaturePNG {
		t.Error("mutating the returned slice changed the catalog")
	}
}

func TestBackwardOffset(t *testing.T) {
	tests := []struct {
		sig  Signature
		want int
	}{
		{SignaturePNG, 1},
		{SignatureKTX, 1},
		{SignatureWEBP, 8},
		{SignatureOgg, 0},
		{SignatureID3, 0},
		{SignatureRbxm, 0},
		{Signature("other"), 0},
	}

	for _, tt := range tests {
		if got := BackwardOffset(tt.sig); got != tt.want {
			t.Errorf("BackwardOffset(%q) = %d, want %d", tt.sig, got, tt.want)
		}
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		sig  Signature
		want string
	}{
		{SignatureOgg, "ogg"},
		{SignatureID3, "mp3"},
		{SignaturePNG, "png"},
		{SignatureWEBP, "webp"},
		{SignatureKTX, "ktx"},
		{SignatureRbxm, "rbxm"},
		{Signature("unknown"), "ogg"},
		{Signature(""), "ogg"},
	}

	for _, tt := range tests {
		if got := ExtensionFor(tt.sig); got != tt.want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestGetMimeType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"png", "image/png"},
		{"webp", "image/webp"},
		{"ogg", "audio/ogg"},
		{"mp3", "audio/mpeg"},
		{"xyz", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := GetMimeType(tt.ext); got != tt.want {
			t.Errorf("GetMimeType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}
