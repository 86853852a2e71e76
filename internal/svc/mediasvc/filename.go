package mediasvc

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const fallbackBasename = "image"

// splitFilename returns the safe base name and the extension of a client supplied
// file name. Directory components are dropped, the base is folded to ASCII and
// reduced to [A-Za-z0-9_.-]. The extension keeps its original case.
func splitFilename(filename string) (base, ext string) {
	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext = path.Ext(filename)

	return sanitizeBasename(strings.TrimSuffix(filename, ext)), ext
}

func sanitizeBasename(name string) string {
	name = strings.Join(strings.Fields(norm.NFKD.String(name)), "_")

	var sb strings.Builder

	for _, r := range name {
		switch {
		case r > unicode.MaxASCII:
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == '_', r == '.', r == '-':
			sb.WriteRune(r)
		}
	}

	if base := strings.Trim(sb.String(), "._"); base != "" {
		return base
	}

	return fallbackBasename
}
