package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Minimal codec for the NumPy .npy v1.0 container, restricted to the
// only shape this pipeline ever persists: a one-dimensional
// little-endian float32 vector.

var npyMagic = []byte("\x93NUMPY")

const npyHeaderAlignment = 64

func writeNpy(w io.Writer, vector []float32) error {
	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d,), }", len(vector))

	// Pad the header with spaces (terminated by a newline) so the
	// payload starts on a 64-byte boundary, as the format requires.
	unpadded := len(npyMagic) + 4 + len(header) + 1
	padding := (npyHeaderAlignment - unpadded%npyHeaderAlignment) % npyHeaderAlignment
	header = header + strings.Repeat(" ", padding) + "\n"

	if _, err := w.Write(npyMagic); err != nil {
		return err
	}
	if _, err := w.Write([]byte{0x01, 0x00}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(header))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, vector)
}

func readNpy(r io.Reader) ([]float32, error) {
	preamble := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, fmt.Errorf("failed to read npy preamble: %w", err)
	}
	if string(preamble[:len(npyMagic)]) != string(npyMagic) {
		return nil, fmt.Errorf("not an npy file")
	}
	if preamble[len(npyMagic)] != 0x01 {
		return nil, fmt.Errorf("unsupported npy version %d.%d", preamble[len(npyMagic)], preamble[len(npyMagic)+1])
	}

	var headerLen uint16
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return nil, fmt.Errorf("failed to read npy header length: %w", err)
	}

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, fmt.Errorf("failed to read npy header: %w", err)
	}

	header := string(headerBytes)
	if !strings.Contains(header, "'descr': '<f4'") {
		return nil, fmt.Errorf("unsupported npy dtype in header %q", strings.TrimSpace(header))
	}
	if !strings.Contains(header, "'fortran_order': False") {
		return nil, fmt.Errorf("unsupported npy ordering in header %q", strings.TrimSpace(header))
	}

	length, err := parseVectorLength(header)
	if err != nil {
		return nil, err
	}

	vector := make([]float32, length)
	if err := binary.Read(r, binary.LittleEndian, &vector); err != nil {
		return nil, fmt.Errorf("failed to read npy payload: %w", err)
	}

	return vector, nil
}

// parseVectorLength extracts N from a "'shape': (N,)" header entry.
func parseVectorLength(header string) (int, error) {
	openIdx := strings.Index(header, "(")
	closeIdx := strings.Index(header, ")")
	if openIdx == -1 || closeIdx == -1 || closeIdx < openIdx {
		return 0, fmt.Errorf("malformed npy shape in header %q", strings.TrimSpace(header))
	}

	shape := strings.TrimSuffix(strings.TrimSpace(header[openIdx+1:closeIdx]), ",")
	length, err := strconv.Atoi(strings.TrimSpace(shape))
	if err != nil {
		return 0, fmt.Errorf("npy shape is not one-dimensional in header %q", strings.TrimSpace(header))
	}

	return length, nil
}
