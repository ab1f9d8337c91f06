package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"docpress/internal/logging"
	"docpress/internal/release"
	"docpress/internal/services"
)

// Security limits on referenced asset files.
const (
	MaxFileSize   = 10 * 1024 * 1024
	MaxTotalSize  = 50 * 1024 * 1024
	MaxAssetCount = 20
)

var allowedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".pdf":  {},
	".txt":  {},
}

// Resolver validates and resolves asset references for a document.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a Resolver. A nil logger is replaced with a noop.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve validates every image and attachment path in doc against baseDir,
// setting ResolvedPath and SHA256 on each entry in place. It returns
// non-fatal warnings; security violations (traversal, missing file, blocked
// type, size breach) are returned as services.ErrAssetSecurity errors.
func (r *Resolver) Resolve(doc *release.Document, baseDir string) ([]string, error) {
	if !doc.HasAssets() {
		return nil, nil
	}
	if strings.TrimSpace(baseDir) == "" {
		return []string{"no asset directory provided; image/attachment paths will not be resolved"}, nil
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "resolve assets", "resolve asset directory", err)
	}
	if info, statErr := os.Stat(base); statErr != nil || !info.IsDir() {
		return []string{fmt.Sprintf("asset directory does not exist: %s", baseDir)}, nil
	}

	count := len(doc.Images) + len(doc.Attachments)
	if count > MaxAssetCount {
		return nil, tooLarge(fmt.Sprintf("%d files", count),
			fmt.Sprintf("asset count exceeds limit of %d files", MaxAssetCount))
	}

	var total int64
	for i := range doc.Images {
		img := &doc.Images[i]
		resolved, sum, size, err := r.resolveOne(img.Path, base)
		if err != nil {
			return nil, err
		}
		img.ResolvedPath = resolved
		img.SHA256 = sum
		total += size
		r.logger.Debug("resolved image",
			logging.String("path", img.Path),
			logging.Int64("size_bytes", size),
			logging.String("sha256", sum[:12]),
		)
	}
	for i := range doc.Attachments {
		att := &doc.Attachments[i]
		resolved, sum, size, err := r.resolveOne(att.Path, base)
		if err != nil {
			return nil, err
		}
		att.ResolvedPath = resolved
		att.SHA256 = sum
		total += size
		r.logger.Debug("resolved attachment",
			logging.String("path", att.Path),
			logging.Int64("size_bytes", size),
		)
	}

	if total > MaxTotalSize {
		return nil, tooLarge("total assets",
			fmt.Sprintf("combined asset size %.1f MB exceeds %d MB limit",
				float64(total)/(1024*1024), MaxTotalSize/(1024*1024)))
	}
	return nil, nil
}

func (r *Resolver) resolveOne(relPath, base string) (resolved, sum string, size int64, err error) {
	if strings.Contains(relPath, "..") {
		return "", "", 0, traversal(relPath)
	}

	candidate := filepath.Join(base, relPath)
	abs, err := filepath.Abs(candidate)
	if err != nil {
		return "", "", 0, traversal(relPath)
	}
	if abs != base && !strings.HasPrefix(abs, base+string(filepath.Separator)) {
		return "", "", 0, traversal(relPath)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", "", 0, services.NewError(services.ErrAssetSecurity,
			"ASSET_NOT_FOUND",
			fmt.Sprintf("asset file not found: %s", relPath),
			"Check the path in images[] or attachments[]. Paths must be relative to the assets directory.")
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", "", 0, services.NewError(services.ErrAssetSecurity,
			"ASSET_TYPE_BLOCKED",
			fmt.Sprintf("file type not allowed: %s (%s)", ext, relPath),
			"Allowed types: jpg, jpeg, png, gif, pdf, txt.")
	}

	if info.Size() > MaxFileSize {
		return "", "", 0, tooLarge(relPath,
			fmt.Sprintf("file exceeds %d MB limit: %s (%.1f MB)",
				MaxFileSize/(1024*1024), relPath, float64(info.Size())/(1024*1024)))
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return "", "", 0, services.Wrap(services.ErrAssetSecurity, "resolve assets", "read asset file", err)
	}
	digest := sha256.Sum256(content)
	return abs, hex.EncodeToString(digest[:]), int64(len(content)), nil
}

func traversal(path string) error {
	return services.NewError(services.ErrAssetSecurity,
		"ASSET_PATH_TRAVERSAL",
		fmt.Sprintf("path traversal blocked: %s", path),
		"Use relative paths only. '..' is not allowed.")
}

func tooLarge(subject, message string) error {
	return services.NewError(services.ErrAssetSecurity,
		"ASSET_TOO_LARGE", message,
		"Compress or resize the file before uploading.").
		WithDetail(subject)
}
