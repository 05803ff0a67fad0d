// ABOUTME: Sequential human-readable identifiers such as "workout7".
// ABOUTME: Derives the next identifier from the collection's last one inside a store transaction.
package idgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/fitlog/internal/storage"
)

// MalformedIDError reports a stored identifier that does not carry the
// collection's prefix followed by a decimal counter.
type MalformedIDError struct {
	Prefix string
	ID     string
}

func (e *MalformedIDError) Error() string {
	return fmt.Sprintf("malformed identifier %q: expected %s<number>", e.ID, e.Prefix)
}

// Allocation is the result of Allocate.
type Allocation struct {
	// ID is the new, unused identifier.
	ID string
	// Last is the identifier that sorted last before allocation, or "" for an empty collection.
	Last string
}

// Allocate picks the next identifier for prefix. The last identifier in
// byte-wise descending order supplies the counter; the counter is then
// incremented until it names an identifier that does not exist yet.
//
// Ordering is lexicographic, so with "workout9" and "workout10" stored the
// last identifier is "workout9" and the scan settles on "workout11".
func Allocate(tx storage.Tx, prefix string) (Allocation, error) {
	last, ok, err := tx.Last()
	if err != nil {
		return Allocation{}, fmt.Errorf("read last %s identifier: %w", prefix, err)
	}

	counter := 0
	if ok {
		counter, err = Parse(prefix, last)
		if err != nil {
			return Allocation{}, err
		}
	}

	for {
		counter++
		candidate := Format(prefix, counter)
		exists, err := tx.Exists(candidate)
		if err != nil {
			return Allocation{}, fmt.Errorf("check %s: %w", candidate, err)
		}
		if !exists {
			return Allocation{ID: candidate, Last: last}, nil
		}
	}
}

// Parse extracts the counter from an identifier such as "goal12".
func Parse(prefix, id string) (int, error) {
	digits, ok := strings.CutPrefix(id, prefix)
	if !ok || digits == "" {
		return 0, &MalformedIDError{Prefix: prefix, ID: id}
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, &MalformedIDError{Prefix: prefix, ID: id}
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, &MalformedIDError{Prefix: prefix, ID: id}
	}
	return n, nil
}

// Format renders prefix and counter as an identifier.
func Format(prefix string, counter int) string {
	return prefix + strconv.Itoa(counter)
}
