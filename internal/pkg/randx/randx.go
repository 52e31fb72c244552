/*
Package randx provides functions for generating unique identifiers.

It is used for per-attempt request ids on outbound calls and for attachment object keys.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for short random suffixes.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the number of characters in Base62Chars.
	Base62Len = int64(len(Base62Chars))

	// suffixLength is the length of the random part of an object key.
	suffixLength = 8
)

// RequestID returns a UUID v4 string used as X-Request-ID.
func RequestID() string {
	return uuid.New().String()
}

// ObjectKey builds a storage key "<prefix>/<uuid>-<suffix><ext>" for an uploaded file.
// The extension of fileName is preserved in lower case.
func ObjectKey(prefix, fileName string) (string, error) {
	suffix := make([]byte, suffixLength)

	for i := range suffixLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for object key: %w", err)
		}
		suffix[i] = Base62Chars[num.Int64()]
	}

	ext := strings.ToLower(path.Ext(fileName))

	return fmt.Sprintf("%s/%s-%s%s", strings.Trim(prefix, "/"), uuid.New().String(), suffix, ext), nil
}
