package treenav

// EntryType valid types are RegularEntry "file", DirEntry "dir" and
// OtherEntry "other" (symlinks, devices, sockets...).
type EntryType string

const (
	RegularEntry EntryType = "file"
	DirEntry     EntryType = "dir"
	OtherEntry   EntryType = "other"
)

// Entry is a single directory listing item as reported by a [DirHandle].
type Entry struct {
	Name string
	Type EntryType
}

// IsRegular reports whether the entry counts toward ranks.
func (e Entry) IsRegular() bool {
	return e.Type == RegularEntry
}

// IsDir reports whether the entry is a subdirectory to descend into.
// The "." and ".." pseudo entries are never descended.
func (e Entry) IsDir() bool {
	return e.Type == DirEntry && e.Name != "." && e.Name != ".."
}
