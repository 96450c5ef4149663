package subtitle

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// NormalizeBytes converts subtitle bytes from any detectable encoding to
// UTF-8 with Unix line endings and no byte-order mark. Subtitle files in the
// wild arrive in Windows-1252, UTF-16, and worse; everything downstream
// assumes clean UTF-8.
func NormalizeBytes(raw []byte) ([]byte, error) {
	encoding, _, _ := charset.DetermineEncoding(raw, "")
	decoded, _, err := transform.Bytes(encoding.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decode subtitles: %w", err)
	}
	decoded = bytes.TrimPrefix(decoded, utf8BOM)
	decoded = bytes.ReplaceAll(decoded, []byte("\r\n"), []byte("\n"))
	decoded = bytes.ReplaceAll(decoded, []byte("\r"), []byte("\n"))
	return decoded, nil
}

// NormalizeFile rewrites path in place with NormalizeBytes applied.
func NormalizeFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	normalized, err := NormalizeBytes(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, normalized, info.Mode().Perm())
}
