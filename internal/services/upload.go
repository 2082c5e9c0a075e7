package services

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/huangang/researchhub/internal/config"
	"github.com/huangang/researchhub/internal/models"
	"github.com/huangang/researchhub/pkg/logger"
	"github.com/huangang/researchhub/pkg/response"
)

// Storage subdirectories under the upload root.
const (
	DirImages     = "images"
	DirVideos     = "videos"
	DirDocuments  = "documents"
	DirThumbnails = "thumbnails"
)

var allowedMIMETypes = toSet(
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/webp",
	"video/mp4",
	"video/webm",
	"video/ogg",
	"video/avi",
	"video/mov",
	"video/quicktime",
)

func toSet(values ...string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// UploadedFile describes one stored upload.
type UploadedFile struct {
	Filename     string  `json:"filename"`
	OriginalName string  `json:"original_name"`
	Mimetype     string  `json:"mimetype"`
	Size         int64   `json:"size"`
	URL          string  `json:"url"`
	Type         string  `json:"type"`
	ThumbnailURL *string `json:"thumbnail_url"`
}

type UploadService struct {
	cfg     *config.UploadConfig
	baseURL string
	thumbs  Thumbnailer
	now     func() time.Time
}

func NewUploadService(cfg *config.UploadConfig, baseURL string, thumbs Thumbnailer) *UploadService {
	if thumbs == nil {
		thumbs = NewThumbnailer(cfg)
	}
	return &UploadService{cfg: cfg, baseURL: strings.TrimSuffix(baseURL, "/"), thumbs: thumbs, now: time.Now}
}

// EnsureDirs creates the upload tree.
func (s *UploadService) EnsureDirs() error {
	for _, sub := range []string{DirImages, DirVideos, DirDocuments, DirThumbnails} {
		if err := os.MkdirAll(filepath.Join(s.cfg.Dir, sub), 0755); err != nil {
			return err
		}
	}
	return nil
}

func (s *UploadService) MaxFiles() int {
	if s.cfg.MaxFiles <= 0 {
		return 10
	}
	return s.cfg.MaxFiles
}

func (s *UploadService) maxFileSize() int64 {
	if n := s.cfg.MaxFileSize(); n > 0 {
		return n
	}
	return 50 << 20
}

// MaxRequestBytes bounds a whole multipart body.
func (s *UploadService) MaxRequestBytes() int64 {
	return int64(s.MaxFiles())*s.maxFileSize() + 1<<20
}

// ClassifyMIME maps a MIME type to a media kind and its subdirectory.
func ClassifyMIME(mimeType string) (kind, subdir string) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.MediaTypeImage, DirImages
	case strings.HasPrefix(mimeType, "video/"):
		return models.MediaTypeVideo, DirVideos
	default:
		return models.MediaTypeDoc, DirDocuments
	}
}

// detectMIME trusts the declared part type unless it is missing or
// generic, in which case the content is sniffed.
func detectMIME(fh *multipart.FileHeader) (string, error) {
	declared := fh.Header.Get("Content-Type")
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = strings.ToLower(mt)
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	mt, _, _ := mime.ParseMediaType(detected.String())
	return mt, nil
}

type checkedFile struct {
	header   *multipart.FileHeader
	mimeType string
}

func (s *UploadService) check(fh *multipart.FileHeader) (*checkedFile, error) {
	if fh.Size > s.maxFileSize() {
		return nil, response.NewUploadRejected(fmt.Sprintf("file %q exceeds the %dMB limit", fh.Filename, s.maxFileSize()>>20))
	}
	mt, err := detectMIME(fh)
	if err != nil {
		return nil, response.NewUploadRejected("unable to read uploaded file")
	}
	if !allowedMIMETypes[mt] {
		return nil, response.NewUploadRejected(fmt.Sprintf("file type %s is not allowed", mt))
	}
	return &checkedFile{header: fh, mimeType: mt}, nil
}

func (s *UploadService) generateName(original, mimeType string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		if m := mimetype.Lookup(mimeType); m != nil {
			ext = m.Extension()
		}
	}
	return fmt.Sprintf("files-%d-%d%s", s.now().UnixMilli(), uuid.New().ID(), ext)
}

func (s *UploadService) publicURL(subdir, name string) string {
	prefix := s.cfg.URLPrefix
	if prefix == "" {
		prefix = "/uploads"
	}
	return s.baseURL + prefix + "/" + subdir + "/" + name
}

// Save stores a single file.
func (s *UploadService) Save(fh *multipart.FileHeader) (*UploadedFile, error) {
	files, err := s.SaveAll([]*multipart.FileHeader{fh})
	if err != nil {
		return nil, err
	}
	return &files[0], nil
}

// SaveAll validates every file before writing any, so a rejected batch
// leaves nothing in the upload tree.
func (s *UploadService) SaveAll(headers []*multipart.FileHeader) ([]UploadedFile, error) {
	if len(headers) == 0 {
		return nil, response.NewBadRequest("no file uploaded")
	}
	if len(headers) > s.MaxFiles() {
		return nil, response.NewUploadRejected(fmt.Sprintf("too many files, at most %d per request", s.MaxFiles()))
	}

	checked := make([]*checkedFile, 0, len(headers))
	for _, fh := range headers {
		cf, err := s.check(fh)
		if err != nil {
			return nil, err
		}
		checked = append(checked, cf)
	}

	out := make([]UploadedFile, 0, len(checked))
	for _, cf := range checked {
		uf, err := s.write(cf)
		if err != nil {
			s.Discard(out...)
			return nil, err
		}
		out = append(out, *uf)
	}
	return out, nil
}

// Discard removes stored files and their thumbnails. Failures are only logged.
func (s *UploadService) Discard(files ...UploadedFile) {
	for _, f := range files {
		if err := s.Remove(f.Type, f.Filename); err != nil {
			logger.Warn().Err(err).Str("file", f.Filename).Msg("[Upload] failed to discard stored file")
		}
	}
}

func (s *UploadService) write(cf *checkedFile) (*UploadedFile, error) {
	kind, subdir := ClassifyMIME(cf.mimeType)
	name := s.generateName(cf.header.Filename, cf.mimeType)
	dir := filepath.Join(s.cfg.Dir, subdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, response.NewStorageError("failed to store file", err)
	}
	path := filepath.Join(dir, name)

	src, err := cf.header.Open()
	if err != nil {
		return nil, response.NewUploadRejected("unable to read uploaded file")
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, response.NewStorageError("failed to store file", err)
	}
	// the header size is client-declared; the copy enforces the real cap
	n, err := io.Copy(dst, io.LimitReader(src, s.maxFileSize()+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, response.NewStorageError("failed to store file", err)
	}
	if n > s.maxFileSize() {
		os.Remove(path)
		return nil, response.NewUploadRejected(fmt.Sprintf("file %q exceeds the %dMB limit", cf.header.Filename, s.maxFileSize()>>20))
	}

	uf := &UploadedFile{
		Filename:     name,
		OriginalName: cf.header.Filename,
		Mimetype:     cf.mimeType,
		Size:         n,
		URL:          s.publicURL(subdir, name),
		Type:         kind,
	}

	if kind == models.MediaTypeImage {
		thumbName, err := s.thumbs.Thumbnail(path, filepath.Join(s.cfg.Dir, DirThumbnails), name)
		if err != nil {
			logger.Warn().Err(err).Str("file", name).Msg("[Upload] thumbnail generation failed")
		} else {
			thumbURL := s.publicURL(DirThumbnails, thumbName)
			uf.ThumbnailURL = &thumbURL
		}
	}

	return uf, nil
}

// StoreThumbnail writes generated image bytes into the thumbnails directory
// and returns the public URL.
func (s *UploadService) StoreThumbnail(prefix, ext string, data []byte) (string, error) {
	dir := filepath.Join(s.cfg.Dir, DirThumbnails)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", response.NewStorageError("failed to store image", err)
	}
	name := fmt.Sprintf("%s-%d-%d%s", prefix, s.now().UnixMilli(), uuid.New().ID(), strings.ToLower(ext))
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		return "", response.NewStorageError("failed to store image", err)
	}
	return s.publicURL(DirThumbnails, name), nil
}

// subdirForKind accepts either a media kind or a storage subdirectory.
func subdirForKind(kind string) (string, bool) {
	switch kind {
	case models.MediaTypeImage, DirImages:
		return DirImages, true
	case models.MediaTypeVideo, DirVideos:
		return DirVideos, true
	case models.MediaTypeDoc, DirDocuments:
		return DirDocuments, true
	}
	return "", false
}

// Remove deletes an uploaded original and any thumbnail derived from it.
func (s *UploadService) Remove(kind, filename string) error {
	subdir, ok := subdirForKind(kind)
	if !ok {
		return response.NewBadRequest("unknown file kind")
	}
	if filename == "" || filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return response.NewBadRequest("invalid filename")
	}

	path := filepath.Join(s.cfg.Dir, subdir, filename)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return response.NewNotFound("file not found")
		}
		return response.NewStorageError("failed to delete file", err)
	}

	pattern := filepath.Join(s.cfg.Dir, DirThumbnails, globEscape(thumbStem(filename))+".*")
	matches, _ := filepath.Glob(pattern)
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("file", m).Msg("[Upload] failed to remove thumbnail")
		}
	}
	return nil
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`)
	return r.Replace(s)
}
