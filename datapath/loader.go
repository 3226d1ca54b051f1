package datapath

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadBinaryFile reads raw bytes, groups them into little-endian 32-bit
// words (the final partial group zero-padded), and writes them to dm
// starting at startAddress. Grounded on original_source/.../DM.py's
// load_file.
func LoadBinaryFile(dm *DataMemory, path string, startAddress int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("datapath: reading binary file %q: %w", path, err)
	}

	for i := 0; i < len(data); i += 4 {
		end := i + 4
		var buf [4]byte
		if end > len(data) {
			end = len(data)
		}
		copy(buf[:], data[i:end]) // zero-pads the final partial group
		word := binary.LittleEndian.Uint32(buf[:])
		dm.Write(uint32(startAddress+i/4), word)
	}
	return nil
}

// LoadHexKeyFile reads a single 32-character hex string, splits it into
// four 8-char groups, and writes each as a word starting at startAddress.
// Grounded on original_source/.../DM.py's load_key.
func LoadHexKeyFile(dm *DataMemory, path string, startAddress int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("datapath: reading key file %q: %w", path, err)
	}

	hexKey := strings.ToLower(strings.TrimSpace(string(raw)))
	if len(hexKey) != 32 {
		return fmt.Errorf("datapath: key must be exactly 128 bits (32 hex chars), got %d chars", len(hexKey))
	}

	for i := 0; i < len(hexKey); i += 8 {
		word, err := strconv.ParseUint(hexKey[i:i+8], 16, 32)
		if err != nil {
			return fmt.Errorf("datapath: invalid key chunk %q: %w", hexKey[i:i+8], err)
		}
		dm.Write(uint32(startAddress+i/8), uint32(word))
	}
	return nil
}

// LoadHexLineFile reads one hex word per line, left-padded to 8 hex digits,
// and writes them sequentially starting at startAddress. Grounded on
// original_source/.../DM.py's load_hex_lines.
func LoadHexLineFile(dm *DataMemory, path string, startAddress int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("datapath: reading hex-line file %q: %w", path, err)
	}
	defer f.Close()

	addr := startAddress
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		if len(line) < 8 {
			line = strings.Repeat("0", 8-len(line)) + line
		}
		word, err := strconv.ParseUint(line, 16, 32)
		if err != nil {
			return fmt.Errorf("datapath: invalid hex line %q: %w", line, err)
		}
		dm.Write(uint32(addr), uint32(word))
		addr++
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("datapath: scanning hex-line file %q: %w", path, err)
	}
	return nil
}

// LoadAssembledInstructions parses one 21-bit binary string per line (the
// format asm's CLI contract emits, per spec.md §6) into an ordered word
// list suitable for NewInstructionMemory.
func LoadAssembledInstructions(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("datapath: reading assembled program %q: %w", path, err)
	}
	defer f.Close()

	var words []uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		word, err := strconv.ParseUint(line, 2, 32)
		if err != nil {
			return nil, fmt.Errorf("datapath: invalid binary line %q: %w", line, err)
		}
		words = append(words, uint32(word))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("datapath: scanning assembled program %q: %w", path, err)
	}
	return words, nil
}
