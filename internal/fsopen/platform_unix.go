//go:build linux || darwin

package fsopen

import "golang.org/x/sys/unix"

// RawStat is the opaque platform value spec.md's FileEntry.permissions
// calls for: raw stat_t fields beyond what os.FileMode exposes. The stat
// cache compares Dev and Ino, together with the entry's mtime, to detect
// that a file changed out from under it.
type RawStat struct {
	Dev   uint64
	Ino   uint64
	Mode  uint32
	Nlink uint64
}

func populatePlatformStat(entry *FileEntry, path string) {
	st, err := StatPath(path)
	if err != nil {
		return
	}
	entry.raw = &st
}

// StatPath performs a raw unix.Stat of path. openAndStat calls it, via
// populatePlatformStat, right after opening a file, to fill the raw stat
// the stat cache reads.
func StatPath(path string) (RawStat, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return RawStat{}, err
	}
	return RawStat{
		Dev:   uint64(st.Dev),
		Ino:   uint64(st.Ino),
		Mode:  uint32(st.Mode),
		Nlink: uint64(st.Nlink),
	}, nil
}
