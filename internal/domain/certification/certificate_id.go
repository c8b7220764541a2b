package certification

import (
	"strconv"
	"strings"
)

// FormatCertificateID renders "{scope}-{n}". scope comes from
// project.Project.CertificateScope.
func FormatCertificateID(scope string, n int64) string {
	return scope + "-" + strconv.FormatInt(n, 10)
}

// ParseCertificateSequence extracts N from "{scope}-{N}". ok is false for ids
// of another scope or with a non-numeric suffix.
func ParseCertificateSequence(scope, id string) (n int64, ok bool) {
	rest, found := strings.CutPrefix(id, scope+"-")
	if !found || rest == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// MaxCertificateSequence returns the highest N among ids of scope, 0 if none
func MaxCertificateSequence(scope string, ids []string) int64 {
	var max int64
	for _, id := range ids {
		if n, ok := ParseCertificateSequence(scope, id); ok && n > max {
			max = n
		}
	}
	return max
}
