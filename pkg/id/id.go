// Package id generates sortable, globally unique entity identifiers.
package id

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mutex   sync.Mutex
	entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// New returns a prefixed ULID such as "ord_01J...". Ids generated within the same
// millisecond are strictly increasing.
func New(prefix string, at time.Time) string {
	mutex.Lock()
	defer mutex.Unlock()

	v := ulid.MustNew(ulid.Timestamp(at), entropy)
	if prefix == "" {
		return v.String()
	}
	return prefix + "_" + v.String()
}

// Parse validates an id produced by New and returns its timestamp.
func Parse(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	v, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(v.Time()), nil
}
