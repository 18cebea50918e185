// Package images accepts image uploads and deletions on behalf of items
// and containers. Uploads are checked by declared type or extension, then
// by decoding the image header (JPEG, PNG, GIF or WebP), before they reach
// the configured storage.Store.
package images
