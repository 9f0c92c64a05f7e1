// Package assettypes defines the asset data model and the signature catalog.
//
// A cache entry is an undifferentiated blob; its category is recovered from
// the ASCII signatures listed here:
//   - Music, Sounds: "OggS", "ID3"
//   - Images: "PNG", "WEBP"
//   - Ktx: "KTX"
//   - Rbxm: "<roblox!"
//
// CategoryAll stands for every concrete category and is also the category of
// the placeholder descriptor shown when no assets were found.
package assettypes
