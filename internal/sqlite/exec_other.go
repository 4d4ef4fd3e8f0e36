//go:build !windows

package sqlite

func isWindowsExe(string) bool { return false }
