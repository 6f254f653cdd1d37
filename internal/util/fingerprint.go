package util

import (
	"fmt"
	"hash/crc32"
	"os"
)

// CalculateFileFingerprint calculates a CRC32 fingerprint of the first 2KB of a file.
// PLC logs grow by appending, so the head identifies the file even while a
// recorder is still writing to it.
func CalculateFileFingerprint(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	readSize := int64(2048)
	if stat.Size() < readSize {
		readSize = stat.Size()
	}

	data := make([]byte, readSize)
	if _, err := file.Read(data); err != nil {
		return "", err
	}

	crc := crc32.ChecksumIEEE(data)
	return fmt.Sprintf("%08x", crc), nil
}
