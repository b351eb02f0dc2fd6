package utils

const (
	Kilobyte = 1024
	Megabyte = 1024 * Kilobyte
)
