package seeds

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cintamani/seedgen/internal/models"
)

const goodLine = "1.2.3.4:1993 1 1609459200 x x x x 75.0% 250000 1 70015 /Core:0.12.0/"

// withField replaces one whitespace-separated column of goodLine
func withField(idx int, value string) string {
	fields := strings.Fields(goodLine)
	fields[idx] = value
	return strings.Join(fields, " ")
}

func TestParseLineAccepts(t *testing.T) {
	p := NewParser(1993)

	rec, ok := p.ParseLine(goodLine)
	require.True(t, ok)
	assert.Equal(t, models.PeerRecord{
		Address:      "1.2.3.4",
		AddressValue: 0x01020304,
		Uptime30d:    75.0,
		LastSuccess:  1609459200,
		Version:      70015,
		UserAgent:    "/Core:0.12.0/",
		Services:     1,
		Blocks:       250000,
	}, rec)
}

func TestParseLineFieldShapes(t *testing.T) {
	p := NewParser(1993)

	tests := []struct {
		name   string
		line   string
		ok     bool
		verify func(t *testing.T, rec models.PeerRecord)
	}{
		{name: "too few fields", line: "1.2.3.4:1993 1 1609459200 x x x x 75.0% 250000 1 70015"},
		{name: "empty line", line: ""},
		{name: "wrong port", line: withField(colAddress, "1.2.3.4:8333")},
		{name: "missing port", line: withField(colAddress, "1.2.3.4")},
		{name: "ipv6", line: withField(colAddress, "[2001:db8::1]:1993")},
		{name: "onion", line: withField(colAddress, "abcdefghijklmnop.onion:1993")},
		{name: "three octets", line: withField(colAddress, "1.2.3:1993")},
		{name: "octet out of range", line: withField(colAddress, "1.2.3.256:1993")},
		{name: "negative octet", line: withField(colAddress, "1.2.-3.4:1993")},
		{name: "empty octet", line: withField(colAddress, "1..3.4:1993")},
		{name: "zero address", line: withField(colAddress, "0.0.0.0:1993")},
		{name: "uptime without percent", line: withField(colUptime30d, "75.0")},
		{name: "uptime not a number", line: withField(colUptime30d, "abc%")},
		{name: "last success not an integer", line: withField(colLastSuccess, "yesterday")},
		{name: "version not an integer", line: withField(colVersion, "v70015")},
		{name: "services not hex", line: withField(colServices, "xyz")},
		{name: "blocks not an integer", line: withField(colBlocks, "250k")},
		{
			name: "leading zeros are canonicalised",
			line: withField(colAddress, "001.002.003.004:1993"),
			ok:   true,
			verify: func(t *testing.T, rec models.PeerRecord) {
				assert.Equal(t, "1.2.3.4", rec.Address)
				assert.Equal(t, uint32(0x01020304), rec.AddressValue)
			},
		},
		{
			name: "services are hexadecimal",
			line: withField(colServices, "0x40d"),
			ok:   true,
			verify: func(t *testing.T, rec models.PeerRecord) {
				assert.Equal(t, uint64(0x40d), rec.Services)
			},
		},
		{
			name: "user agent brackets are trimmed",
			line: withField(colUserAgent, `"/Satoshi:0.9.3/"`),
			ok:   true,
			verify: func(t *testing.T, rec models.PeerRecord) {
				assert.Equal(t, "/Satoshi:0.9.3/", rec.UserAgent)
			},
		},
		{
			name: "trailing columns ignored",
			line: goodLine + " extra columns here",
			ok:   true,
		},
		{
			name: "highest address",
			line: withField(colAddress, "255.255.255.255:1993"),
			ok:   true,
			verify: func(t *testing.T, rec models.PeerRecord) {
				assert.Equal(t, uint32(0xffffffff), rec.AddressValue)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := p.ParseLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, models.PeerRecord{}, rec)
				return
			}
			if tt.verify != nil {
				tt.verify(t, rec)
			}
		})
	}
}

func TestParseLineUsesConfiguredPort(t *testing.T) {
	_, ok := NewParser(11993).ParseLine(goodLine)
	assert.False(t, ok)

	_, ok = NewParser(11993).ParseLine(withField(colAddress, "1.2.3.4:11993"))
	assert.True(t, ok)
}

func TestParseReport(t *testing.T) {
	report := strings.Join([]string{
		"# address good lastSuccess %(2h) %(8h) %(1d) %(7d) %(30d) blocks svcs version",
		goodLine,
		"",
		withField(colAddress, "[::1]:1993"),
		withField(colAddress, "5.6.7.8:1993"),
		strings.Repeat("x", 200*1024),
	}, "\n")

	records, lines, err := NewParser(1993).ParseReport(strings.NewReader(report))
	require.NoError(t, err)
	assert.Equal(t, 6, lines)
	require.Len(t, records, 2)
	assert.Equal(t, "1.2.3.4", records[0].Address)
	assert.Equal(t, "5.6.7.8", records[1].Address)
}

func TestParseReportSkipsOversizedLine(t *testing.T) {
	report := goodLine + "\n" +
		strings.Repeat("x", 2*maxLineSize) + "\n" +
		withField(colAddress, "5.6.7.8:1993") + "\r\n"

	records, lines, err := NewParser(1993).ParseReport(strings.NewReader(report))
	require.NoError(t, err)
	assert.Equal(t, 3, lines)
	require.Len(t, records, 2)
	assert.Equal(t, "1.2.3.4", records[0].Address)
	assert.Equal(t, "5.6.7.8", records[1].Address)
}

func TestParseReportOversizedLastLine(t *testing.T) {
	report := goodLine + "\n" + strings.Repeat("x", maxLineSize+10)

	records, lines, err := NewParser(1993).ParseReport(strings.NewReader(report))
	require.NoError(t, err)
	assert.Equal(t, 2, lines)
	assert.Len(t, records, 1)
}

func TestParseReportEmpty(t *testing.T) {
	records, lines, err := NewParser(1993).ParseReport(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, lines)
	assert.Empty(t, records)
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "1.2.3.4", FormatAddress(0x01020304))
	assert.Equal(t, "255.0.0.1", FormatAddress(0xff000001))
}
