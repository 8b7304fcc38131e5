// Package filemanager owns the on-disk library layout. Canonical audio lives
// once under tracks/, and each playlist is a directory of position-prefixed
// hard links (symlinks on filesystems that refuse hard links) pointing at
// those canonical files. Exports produce M3U files or physical copies.
package filemanager
