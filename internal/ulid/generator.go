package ulid

import (
	"fmt"
	"io"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     io.Reader
	entropyOnce sync.Once
	generator   = DefaultGenerator

	// Crockford's Base32, 10 characters of timestamp and 16 of randomness.
	ulidPattern = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)
)

// DefaultEntropy returns a reader that generates ULID entropy.
func DefaultEntropy() io.Reader {
	entropyOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))

		entropy = &ulid.LockedMonotonicReader{
			MonotonicReader: ulid.Monotonic(rng, 0),
		}
	})
	return entropy
}

// ValidID checks if the given id is a valid ULID.
func ValidID(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil && ulidPattern.MatchString(id)
}

// GenerateID generates a new universal ID. IDs are monotonic within
// the process, so block keys sort in creation order.
func GenerateID() string {
	return generator()
}

// GeneratePrefixedID generates an ID usable inside Markdown text,
// for example as a placeholder image alt.
func GeneratePrefixedID(prefix string) string {
	return prefix + "-" + strings.ToLower(generator())
}

func DefaultGenerator() string {
	ts := ulid.Timestamp(time.Now())
	return ulid.MustNew(ts, DefaultEntropy()).String()
}

func ResetGenerator() {
	generator = DefaultGenerator
}

// MockGenerator makes GenerateID return successive values with the given
// prefix, which keeps keys unique while making them predictable.
func MockGenerator(prefix string) {
	var (
		mu sync.Mutex
		n  int
	)
	generator = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s%04d", prefix, n)
	}
}
