// Package selection loads the user's chosen video and exposes it to the
// front end through revocable preview handles.
package selection

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"video-transcriber/internal/domain"
)

// RecommendedMediaType is what the picker suggests. Other containers are accepted.
const RecommendedMediaType = "video/mp4"

// ErrEmptyFile is returned when the chosen file has no content.
var ErrEmptyFile = errors.New("selected file is empty")

// Container names the sniffed container family of a selection.
type Container string

const (
	ContainerMP4     Container = "mp4"
	ContainerOgg     Container = "ogg"
	ContainerFLAC    Container = "flac"
	ContainerMP3     Container = "mp3"
	ContainerUnknown Container = "unknown"
)

// ReadFile loads path fully into memory.
func ReadFile(path string) (domain.SelectedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SelectedFile{}, fmt.Errorf("read selection: %w", err)
	}
	if len(data) == 0 {
		return domain.SelectedFile{}, ErrEmptyFile
	}

	name := filepath.Base(path)
	return domain.SelectedFile{
		Name:      name,
		MediaType: mediaTypeFor(name, data),
		Size:      int64(len(data)),
		Data:      data,
	}, nil
}

// videoTypes covers containers the host MIME table often lacks.
var videoTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mov":  "video/quicktime",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".avi":  "video/x-msvideo",
}

// mediaTypeFor prefers the extension and falls back to content sniffing.
func mediaTypeFor(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := videoTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
		return mt
	}
	return http.DetectContentType(data)
}

// Identify classifies the container of data from its leading bytes.
func Identify(data []byte) Container {
	format, fileType, err := tag.Identify(bytes.NewReader(data))
	if err != nil {
		return ContainerUnknown
	}
	switch {
	case format == tag.MP4:
		return ContainerMP4
	case fileType == tag.OGG:
		return ContainerOgg
	case fileType == tag.FLAC:
		return ContainerFLAC
	case fileType == tag.MP3:
		return ContainerMP3
	default:
		return ContainerUnknown
	}
}

// IsRecommended reports whether file matches the picker's recommendation.
func IsRecommended(file domain.SelectedFile) bool {
	return file.MediaType == RecommendedMediaType || Identify(file.Data) == ContainerMP4
}
