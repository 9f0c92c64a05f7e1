package assettypes

// Signature is an exact byte pattern that identifies a category. Matching is
// a plain substring search anywhere in the buffer.
type Signature string

const (
	// SignatureOgg marks an Ogg container page.
	SignatureOgg Signature = "OggS"
	// SignatureID3 marks an MP3 ID3 tag.
	SignatureID3 Signature = "ID3"
	// SignaturePNG is the ASCII part of the PNG magic number.
	SignaturePNG Signature = "PNG"
	// SignatureWEBP is the RIFF form type of a WEBP image.
	SignatureWEBP Signature = "WEBP"
	// SignatureKTX is the ASCII part of the KTX magic number.
	SignatureKTX Signature = "KTX"
	// SignatureRbxm marks a Roblox binary model.
	SignatureRbxm Signature = "<roblox!"
)

// MimeBinaryMarker must accompany an ID3 match before a buffer is classified
// as audio, since "ID3" alone appears too often by chance.
const MimeBinaryMarker = "binary/"

// catalog maps each concrete category to its signatures in match order.
var catalog = map[Category][]Signature{
	CategoryMusic:  {SignatureOgg, SignatureID3},
	CategorySounds: {SignatureOgg, SignatureID3},
	CategoryImages: {SignaturePNG, SignatureWEBP},
	CategoryKtx:    {SignatureKTX},
	CategoryRbxm:   {SignatureRbxm},
}

// backwardOffsets holds the number of container bytes that precede the
// literal signature in each format.
var backwardOffsets = map[Signature]int{
	SignaturePNG:  1,
	SignatureKTX:  1,
	SignatureWEBP: 8,
}

var extensions = map[Signature]string{
	SignatureOgg:  "ogg",
	SignatureID3:  "mp3",
	SignaturePNG:  "png",
	SignatureWEBP: "webp",
	SignatureKTX:  "ktx",
	SignatureRbxm: "rbxm",
}

// MimeTypes maps output extensions to their MIME types.
var MimeTypes = map[string]string{
	"ogg":  "audio/ogg",
	"mp3":  "audio/mpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"ktx":  "image/ktx",
	"rbxm": "application/octet-stream",
}

// HeadersFor returns the signatures of a category in match order. For
// CategoryAll it returns the order-preserving, deduplicated union of every
// concrete category's signatures, excluding empty patterns.
func HeadersFor(category Category) []Signature {
	if category != CategoryAll {
		sigs := catalog[category]
		out := make([]Signature, len(sigs))
		copy(out, sigs)
		return out
	}

	seen := make(map[Signature]bool)
	var out []Signature
	for _, c := range ConcreteCategories {
		for _, sig := range catalog[c] {
			if sig == "" || seen[sig] {
				continue
			}
			seen[sig] = true
			out = append(out, sig)
		}
	}
	return out
}

// BackwardOffset returns how many bytes before the signature the payload
// actually starts.
func BackwardOffset(sig Signature) int {
	return backwardOffsets[sig]
}

// ExtensionFor returns the output file extension for a signature, without the
// leading dot. Unmapped signatures default to "ogg".
func ExtensionFor(sig Signature) string {
	if ext, ok := extensions[sig]; ok {
		return ext
	}
	return "ogg"
}

// GetMimeType returns the MIME type for an extension without the leading dot.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}
