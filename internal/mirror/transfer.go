package mirror

import (
	"context"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/sunvalleybronze/dropmirror/internal/utils"
)

// Transferer copies single files from the source onto the target.
type Transferer struct {
	source SourceListing
	target TargetStore
}

func NewTransferer(source SourceListing, target TargetStore) *Transferer {
	return &Transferer{source: source, target: target}
}

// Transfer downloads path from the source and uploads it under its normalized key.
// It returns the number of bytes written or a *TransferError.
func (t *Transferer) Transfer(ctx context.Context, srcPath string) (int64, error) {
	srcPath = strings.TrimPrefix(srcPath, "/")
	key := NormalizeKey(srcPath)

	slog.Debug("sync", "op", OpTransfer, "stage", StageDownload, "path", srcPath)
	body, err := t.source.Download(ctx, srcPath)
	if err != nil {
		return 0, &TransferError{Path: srcPath, Stage: StageDownload, Cause: err}
	}
	defer body.Close()

	slog.Debug("sync", "op", OpTransfer, "stage", StageUpload, "key", key)
	n, err := t.target.Put(ctx, &PutParams{
		Key:                key,
		Body:               body,
		ContentType:        utils.DetectContentType(srcPath),
		ContentDisposition: InlineDisposition(path.Base(srcPath)),
		PublicRead:         true,
	})
	if err != nil {
		return 0, &TransferError{Path: srcPath, Stage: StageUpload, Cause: err}
	}

	return n, nil
}

// InlineDisposition builds an inline Content-Disposition carrying the original file name.
func InlineDisposition(name string) string {
	if isPlainFilename(name) {
		return `inline; filename="` + name + `"`
	}
	if v := mime.FormatMediaType("inline", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "inline"
}

// AttachmentDisposition is the download counterpart of InlineDisposition.
func AttachmentDisposition(name string) string {
	return "attachment" + strings.TrimPrefix(InlineDisposition(name), "inline")
}

func isPlainFilename(name string) bool {
	for _, r := range name {
		if r < 0x20 || r > 0x7e || r == '"' || r == '\\' {
			return false
		}
	}
	return true
}
