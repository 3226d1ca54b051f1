package stepper

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/archlab/tea-scoreboard/datapath"
)

// dataStartWord is the word index in data memory where the processed
// blocks begin — words 0-3 hold the 128-bit key, per spec.md §3.
const dataStartWord = 4

// WriteEncryptedOutput writes dp's data memory, from word index 4 onward,
// to <inputPath-without-extension>.enc: two words (8 bytes, little-endian)
// per block, truncated to the smallest multiple of 8 bytes that covers
// inputPath's original size. A direct rewrite of Pipeline.py's
// save_encrypted_file.
func WriteEncryptedOutput(dp *datapath.Datapath, inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("stepper: stat %q: %w", inputPath, err)
	}

	totalBytes := int(math.Ceil(float64(info.Size())/8) * 8)

	ext := filepath.Ext(inputPath)
	encPath := strings.TrimSuffix(inputPath, ext) + ".enc"

	out := make([]byte, 0, totalBytes)
	for i := 0; i < totalBytes; i += 8 {
		word1 := dp.Data.Read(uint32(i/4 + dataStartWord))
		word2 := dp.Data.Read(uint32(i/4 + dataStartWord + 1))

		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[0:4], word1)
		binary.LittleEndian.PutUint32(buf[4:8], word2)
		out = append(out, buf[:]...)
	}

	if err := os.WriteFile(encPath, out, 0600); err != nil {
		return fmt.Errorf("stepper: writing %q: %w", encPath, err)
	}
	return nil
}
