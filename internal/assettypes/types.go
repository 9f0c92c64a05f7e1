package assettypes

import (
	"fmt"
	"strings"
	"time"
)

// Category is the coarse media type inferred from a byte signature.
type Category int

const (
	// CategoryMusic is audio stored in the sounds folder of the cache directory.
	CategoryMusic Category = iota
	// CategorySounds is audio stored as ordinary cache entries.
	CategorySounds
	// CategoryImages is PNG or WEBP image data.
	CategoryImages
	// CategoryKtx is KTX texture data.
	CategoryKtx
	// CategoryRbxm is a Roblox binary model.
	CategoryRbxm
	// CategoryAll matches every concrete category.
	CategoryAll
)

// Categories lists every category in catalog order, ending with CategoryAll.
var Categories = []Category{
	CategoryMusic,
	CategorySounds,
	CategoryImages,
	CategoryKtx,
	CategoryRbxm,
	CategoryAll,
}

// ConcreteCategories lists every category except CategoryAll, in catalog order.
var ConcreteCategories = Categories[:len(Categories)-1]

var categoryNames = map[Category]string{
	CategoryMusic:  "music",
	CategorySounds: "sounds",
	CategoryImages: "images",
	CategoryKtx:    "ktx",
	CategoryRbxm:   "rbxm",
	CategoryAll:    "all",
}

// String returns the lowercase name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory converts a category name (case-insensitive) to a Category.
func ParseCategory(name string) (Category, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for c, n := range categoryNames {
		if n == name {
			return c, nil
		}
	}
	return CategoryAll, fmt.Errorf("unknown category %q", name)
}

// Origin identifies the asset source that owns an asset.
type Origin int

const (
	// OriginNone marks placeholder descriptors that belong to no backend.
	OriginNone Origin = iota
	// OriginDirectory is the loose-file cache directory.
	OriginDirectory
	// OriginDatabase is the embedded SQLite cache database.
	OriginDatabase
)

// String returns the lowercase name of the origin.
func (o Origin) String() string {
	switch o {
	case OriginDirectory:
		return "directory"
	case OriginDatabase:
		return "database"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// AssetInfo describes one cache entry. Values are never mutated after they
// are produced; replacing an asset's content does not update its descriptor.
type AssetInfo struct {
	// Name is the filesystem name or hex-encoded database row id.
	Name string `json:"name"`
	// Size is the byte length when the asset was last observed.
	Size int64 `json:"size"`
	// LastModified is the zero time when unknown.
	LastModified time.Time `json:"lastModified"`
	Origin       Origin    `json:"origin"`
	Category     Category  `json:"category"`
}

// HasLastModified reports whether a modification time is known.
func (a AssetInfo) HasLastModified() bool {
	return !a.LastModified.IsZero()
}

// IsPlaceholder reports whether the descriptor belongs to no backend.
func (a AssetInfo) IsPlaceholder() bool {
	return a.Origin == OriginNone
}

// Placeholder returns the "no assets found" descriptor shown in place of an
// empty index.
func Placeholder(label string) AssetInfo {
	return AssetInfo{
		Name:     label,
		Origin:   OriginNone,
		Category: CategoryAll,
	}
}
