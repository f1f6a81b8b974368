// Package seeds turns a crawler report into a bounded, ASN-diverse seed list.
//
// The pipeline runs in fixed stages: parse, filter, sort by reputation,
// select under per-ASN and global caps, then sort by address value.
package seeds

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cintamani/seedgen/internal/models"
)

// Report column positions
const (
	colAddress     = 0
	colLastSuccess = 2
	colUptime30d   = 7
	colBlocks      = 8
	colServices    = 9
	colVersion     = 10
	colUserAgent   = 11

	minFields = colUserAgent + 1
)

const maxLineSize = 1 << 20

// Parser converts report lines into peer records for one listening port
type Parser struct {
	port string
}

// NewParser creates a parser accepting only addresses on port
func NewParser(port int) *Parser {
	return &Parser{port: strconv.Itoa(port)}
}

// ParseLine parses a single report line. Lines that do not match the
// report format yield ok == false.
func (p *Parser) ParseLine(line string) (models.PeerRecord, bool) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return models.PeerRecord{}, false
	}

	address, value, ok := p.parseAddress(fields[colAddress])
	if !ok {
		return models.PeerRecord{}, false
	}

	uptimeField := fields[colUptime30d]
	if !strings.HasSuffix(uptimeField, "%") {
		return models.PeerRecord{}, false
	}
	uptime, err := strconv.ParseFloat(strings.TrimSuffix(uptimeField, "%"), 64)
	if err != nil {
		return models.PeerRecord{}, false
	}

	lastSuccess, err := strconv.ParseInt(fields[colLastSuccess], 10, 64)
	if err != nil {
		return models.PeerRecord{}, false
	}

	version, err := strconv.Atoi(fields[colVersion])
	if err != nil {
		return models.PeerRecord{}, false
	}

	services, err := parseServices(fields[colServices])
	if err != nil {
		return models.PeerRecord{}, false
	}

	blocks, err := strconv.ParseInt(fields[colBlocks], 10, 64)
	if err != nil {
		return models.PeerRecord{}, false
	}

	return models.PeerRecord{
		Address:      address,
		AddressValue: value,
		Uptime30d:    uptime,
		LastSuccess:  lastSuccess,
		Version:      version,
		UserAgent:    strings.Trim(fields[colUserAgent], `"'[]`),
		Services:     services,
		Blocks:       blocks,
	}, true
}

// ParseReport parses every line of r and returns the accepted records
// together with the number of lines read. Lines longer than maxLineSize
// are counted and skipped.
func (p *Parser) ParseReport(r io.Reader) ([]models.PeerRecord, int, error) {
	reader := bufio.NewReaderSize(r, 64*1024)

	var (
		records []models.PeerRecord
		lines   int
	)
	for {
		line, oversized, err := readLine(reader)
		if err != nil && err != io.EOF {
			return records, lines, fmt.Errorf("failed to read report: %w", err)
		}
		if line != nil || oversized {
			lines++
			if !oversized {
				if rec, ok := p.ParseLine(string(line)); ok {
					records = append(records, rec)
				}
			}
		}
		if err == io.EOF {
			return records, lines, nil
		}
	}
}

// readLine returns the next line without its terminator. Once a line
// grows past maxLineSize the rest of it is discarded and oversized is
// set. At io.EOF a nil line means there was nothing left to read.
func readLine(r *bufio.Reader) (line []byte, oversized bool, err error) {
	for {
		chunk, err := r.ReadSlice('\n')
		if !oversized {
			if len(line)+len(chunk) > maxLineSize+2 {
				oversized = true
				line = nil
			} else if len(chunk) > 0 || line != nil {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if line != nil {
			line = bytes.TrimSuffix(bytes.TrimSuffix(line, []byte("\n")), []byte("\r"))
		}
		return line, oversized, err
	}
}

// parseAddress accepts only a.b.c.d:port on the parser's port and returns
// the canonical dotted quad and its big-endian value
func (p *Parser) parseAddress(field string) (string, uint32, bool) {
	host, port, found := strings.Cut(field, ":")
	if !found || port != p.port {
		return "", 0, false
	}

	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return "", 0, false
	}

	var octets [4]byte
	for i, part := range parts {
		if part == "" || len(part) > 3 || !isDigits(part) {
			return "", 0, false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return "", 0, false
		}
		octets[i] = byte(n)
	}

	value := binary.BigEndian.Uint32(octets[:])
	if value == 0 {
		return "", 0, false
	}

	return FormatAddress(value), value, true
}

// FormatAddress renders a big-endian address value as a dotted quad
func FormatAddress(value uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(value>>24), byte(value>>16), byte(value>>8), byte(value))
}

func parseServices(field string) (uint64, error) {
	field = strings.TrimPrefix(strings.TrimPrefix(field, "0x"), "0X")
	return strconv.ParseUint(field, 16, 64)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
