// Package storage turns object-storage image URLs returned by the backend
// into short-lived presigned GET URLs.
//
// Profiles reference images either inline (data: URLs), by foreign http(s)
// URL, or by a URL into the image bucket. Only the last kind needs signing;
// ExtractKey recognizes it and SignImages rewrites it.
package storage
