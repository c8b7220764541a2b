package shared

import (
	"context"
	"strconv"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the longest slug ever produced
const MaxSlugLength = 50

// ErrEmptySlug is returned when nothing usable is left of a name
var ErrEmptySlug = NewDomainError("INVALID_INPUT", "slug cannot be empty: name has no usable words")

// DefaultStopWords are dropped from names before slugging
var DefaultStopWords = []string{
	"a", "an", "and", "as", "at", "by", "for", "from", "in", "into",
	"is", "of", "on", "or", "the", "to", "with",
}

// Slugify turns a human name into a URL-safe identifier.
//
// Stop-words are matched case-insensitively on whole words. The result is
// ASCII, lowercase, hyphen separated and at most MaxSlugLength long.
func Slugify(name string, stopWords []string) (string, error) {
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	words := strings.Fields(name)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, ok := stop[strings.ToLower(w)]; ok {
			continue
		}
		kept = append(kept, w)
	}

	ascii := toASCII(strings.Join(kept, " "))

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(ascii) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := truncateSlug(b.String(), MaxSlugLength)
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

// toASCII composes combining sequences first so that "e" followed by an acute
// accent transliterates like "é". Scripts without a Latin form (Cyrillic,
// Greek, CJK) are romanised.
func toASCII(s string) string {
	return unidecode.Unidecode(norm.NFC.String(s))
}

func truncateSlug(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.Trim(s, "-")
}

// SlugExistsFunc reports whether a slug is taken in the caller's scope
type SlugExistsFunc func(ctx context.Context, slug string) (exists bool, err error)

// SlugCountFunc counts slugs equal to base or prefixed with "base-"
type SlugCountFunc func(ctx context.Context, base string) (int64, error)

// UniqueSlug returns base if it is free, otherwise base-N where N starts at
// the number of slugs already sharing the base plus one.
func UniqueSlug(ctx context.Context, base string, exists SlugExistsFunc, count SlugCountFunc) (string, error) {
	taken, err := exists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	n, err := count(ctx, base)
	if err != nil {
		return "", err
	}
	for i := n + 1; ; i++ {
		suffix := "-" + strconv.FormatInt(i, 10)
		candidate := truncateSlug(base, MaxSlugLength-len(suffix)) + suffix
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}
