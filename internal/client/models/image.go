package models

import (
	"net/url"
	"strings"
)

// IsDurable reports whether ref is a durable remote reference: an absolute
// http(s) URL with a host. Device paths, file://, content:// and similar
// picker handles are ephemeral.
func IsDurable(ref string) bool {
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// IsLocalHandle reports whether ref names device-local media: an absolute
// or dot-relative path, or a URL with a non-http scheme such as file:// or
// content://. Bare strings without a scheme are not treated as handles.
func IsLocalHandle(ref string) bool {
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "./") ||
		strings.HasPrefix(ref, "../") || strings.HasPrefix(ref, "~") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return strings.Contains(ref, "://")
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme != "" && scheme != "http" && scheme != "https"
}

// SplitImages partitions refs into durable references and local handles,
// keeping the relative order within each group.
func SplitImages(refs []string) (durable, local []string) {
	for _, r := range refs {
		if IsDurable(r) {
			durable = append(durable, r)
		} else {
			local = append(local, r)
		}
	}
	return durable, local
}

// AllDurable reports whether every ref is durable.
func AllDurable(refs []string) bool {
	for _, r := range refs {
		if !IsDurable(r) {
			return false
		}
	}
	return true
}
