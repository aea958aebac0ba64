package mediatypes

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Category is the media classification stored with every record.
type Category string

const (
	// CategoryVideo is a regular video file.
	CategoryVideo Category = "video"
	// CategoryAudio is an audio file.
	CategoryAudio Category = "audio"
	// CategoryVR is a video file found under a VR root or named with a VR
	// projection or stereo layout marker.
	CategoryVR Category = "vr"
)

// IsVisual reports whether files of this category carry video frames and
// are therefore eligible for perceptual hashing.
func (c Category) IsVisual() bool {
	return c == CategoryVideo || c == CategoryVR
}

// DefaultVideoExtensions lists the video container extensions scanned when
// no override is configured.
var DefaultVideoExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm",
	".m4v", ".mpeg", ".mpg", ".3gp", ".ts", ".m2ts", ".ogv",
}

// DefaultAudioExtensions lists the audio extensions scanned when no override
// is configured.
var DefaultAudioExtensions = []string{
	".mp3", ".flac", ".wav", ".aac", ".ogg", ".opus", ".m4a",
	".wma", ".aiff", ".alac",
}

// ExtensionSet is a case-insensitive set of file extensions with a leading dot.
type ExtensionSet map[string]bool

// NewExtensionSet normalizes the given extensions: lower-cased, trimmed and
// dot-prefixed. Empty entries are ignored.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}

// ParseExtensionList splits a comma-separated list such as "mp4, .MKV,avi".
func ParseExtensionList(list string) ExtensionSet {
	return NewExtensionSet(strings.Split(list, ",")...)
}

// Has reports whether ext (any case, with or without dot) is in the set.
func (s ExtensionSet) Has(ext string) bool {
	return s[NewExtensionSet(ext).first()]
}

func (s ExtensionSet) first() string {
	for ext := range s {
		return ext
	}
	return ""
}

// Sorted returns the extensions in lexical order, for logging.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Classifier maps file names onto media categories using two disjoint
// extension allow-lists. An extension present in both is treated as video.
type Classifier struct {
	Video ExtensionSet
	Audio ExtensionSet
}

// DefaultClassifier returns a classifier using the built-in extension lists.
func DefaultClassifier() Classifier {
	return Classifier{
		Video: NewExtensionSet(DefaultVideoExtensions...),
		Audio: NewExtensionSet(DefaultAudioExtensions...),
	}
}

// vrNameMarker matches projection and stereo layout tokens such as
// "_180_", "-360.", ".sbs.", "_tb_" or "_3dh_" delimited by _, - or .
var vrNameMarker = regexp.MustCompile(`(?i)[_\-.](?:180|360|sbs|lr|tb|ou|3dh|half)[_\-.]|180x180`)

// HasVRMarker reports whether the base name of path carries a VR marker.
func HasVRMarker(path string) bool {
	return vrNameMarker.MatchString(filepath.Base(path))
}

// Classify returns the category for path, or ok=false when the extension is
// not on either allow-list. Video files under a VR root, or whose name
// carries a VR marker, are CategoryVR.
func (c Classifier) Classify(path string, vrRoot bool) (Category, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	if c.Video[ext] {
		if vrRoot || HasVRMarker(path) {
			return CategoryVR, true
		}
		return CategoryVideo, true
	}
	if c.Audio[ext] {
		return CategoryAudio, true
	}
	return "", false
}
