package service

import (
	"log/slog"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// rootPrefix returns the blob key prefix for a user's root. Derived
// deterministically from the owner id so it never needs a lookup.
func rootPrefix(ownerID string) string {
	return "users/" + ownerID + "/"
}

// childPrefix returns the blob key prefix for a folder created under the
// given parent prefix. Prefixes are assigned at creation and never rewritten;
// file rows carry their authoritative storage key.
func childPrefix(parentPrefix, name string) string {
	return parentPrefix + name + "/"
}

// fileKey returns the blob key for a file's content. Name uniqueness is per
// owner, so two owners can hold same-named files in a shared folder; the
// file id in the key keeps their content from colliding on one object.
func fileKey(prefix, fileID, name string) string {
	return prefix + fileID + "_" + name
}

// sanitizeFilename normalizes an uploaded filename into a safe blob key
// segment. Any path components are stripped. Filenames that arrived through
// legacy single-byte-per-char decoding (each byte widened to one rune) are
// reinterpreted as UTF-8 before Unicode NFC normalization, so "Ð¾Ñ‚Ñ‡ÐµÑ‚.docx"
// comes back as the UTF-8 name it originally was.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}

	name = repairLatin1(name)
	name = norm.NFC.String(name)

	// Slashes would change the key hierarchy
	name = strings.ReplaceAll(name, "/", "_")

	return name
}

// repairLatin1 undoes a Latin-1 mis-decode. If every rune fits in a single
// byte and at least one has the high bit set, the original byte sequence is
// reconstructed; when those bytes form valid UTF-8, that reading wins.
func repairLatin1(name string) string {
	hasHighBit := false
	buf := make([]byte, 0, len(name))
	for _, r := range name {
		if r > 0xFF {
			return name // genuinely multi-byte, nothing to repair
		}
		if r > 0x7F {
			hasHighBit = true
		}
		buf = append(buf, byte(r))
	}
	if !hasHighBit {
		return name
	}
	if utf8.Valid(buf) {
		return string(buf)
	}
	return name
}

// fileExtension returns the lowercase extension without the leading dot.
func fileExtension(name string) string {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	return strings.ToLower(ext)
}

// contentTypeForName maps a filename to a MIME type by its extension,
// falling back to a generic binary type.
func contentTypeForName(name string) string {
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// logAdvisory records a best-effort side-channel failure (marker blobs,
// cleanup deletes). Advisory failures are logged and discarded, never
// propagated as the operation's own error.
func logAdvisory(logger *slog.Logger, op string, err error, args ...any) {
	if err == nil {
		return
	}
	args = append([]any{"op", op, "error", err}, args...)
	logger.Warn("advisory storage operation failed", args...)
}
