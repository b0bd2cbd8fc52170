package upsert

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// quoteIdentifier quotes a SQL identifier, ensuring internal quotes are escaped.
func quoteIdentifier(name string) (string, error) {
	if !isSafeIdentifier(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, "\"", "\"\"")), nil
}

// isSafeIdentifier reports whether the identifier meets simple SQL safety rules.
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r == '_' {
			continue
		}
		if unicode.IsLetter(r) {
			continue
		}
		if unicode.IsDigit(r) {
			if i == 0 {
				return false
			}
			continue
		}
		return false
	}
	return true
}

// deriveStagingName builds the name of the staging table backing one upsert
// call. The per-call random token keeps concurrent calls against the same
// target from sharing a staging table.
func deriveStagingName(table string) string {
	token := stagingToken()
	// Postgres truncates identifiers at 63 bytes; trim the table part so the
	// token survives intact.
	const maxBase = 63 - len("staging_") - 1 - 8
	base := strings.ToLower(table)
	if len(base) > maxBase {
		base = base[:maxBase]
	}
	return fmt.Sprintf("staging_%s_%s", base, token)
}

var stagingToken = func() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
