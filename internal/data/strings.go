package data

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/traditionalchinese"
)

// 舊版 stat_txt.tbl 依語系使用不同的 code page。
var stringEncodings = map[string]encoding.Encoding{
	"cp1252": charmap.Windows1252,
	"ms950":  traditionalchinese.Big5,
	"cp949":  korean.EUCKR,
}

// StringTable is a decoded legacy string table. Indices are 1-based.
type StringTable struct {
	strings []string
}

// LoadStringTable reads a .tbl file: a uint16 count, count uint16 offsets,
// then NUL-terminated strings in the named code page.
func LoadStringTable(path, enc string) (*StringTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read string table: %w", err)
	}
	e, ok := stringEncodings[enc]
	if !ok {
		return nil, fmt.Errorf("unknown string table encoding %q", enc)
	}
	return ParseStringTable(raw, e)
}

func ParseStringTable(raw []byte, e encoding.Encoding) (*StringTable, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("parse string table: truncated header")
	}
	n := int(binary.LittleEndian.Uint16(raw))
	if len(raw) < 2+n*2 {
		return nil, fmt.Errorf("parse string table: truncated offsets (%d strings)", n)
	}
	dec := e.NewDecoder()
	t := &StringTable{strings: make([]string, n)}
	for i := 0; i < n; i++ {
		off := int(binary.LittleEndian.Uint16(raw[2+i*2:]))
		if off >= len(raw) {
			return nil, fmt.Errorf("parse string table: string %d offset %d past end", i+1, off)
		}
		end := off
		for end < len(raw) && raw[end] != 0 {
			end++
		}
		s, err := dec.Bytes(raw[off:end])
		if err != nil {
			return nil, fmt.Errorf("parse string table: string %d: %w", i+1, err)
		}
		t.strings[i] = string(s)
	}
	return t, nil
}

// Get returns string index i the way the game does: 0 is the null string and
// an index past the end is reported inline.
func (t *StringTable) Get(i int) string {
	if i == 0 {
		return "<null string>"
	}
	if i < 0 || i > len(t.strings) {
		return "<invalid string index>"
	}
	return t.strings[i-1]
}

func (t *StringTable) Count() int { return len(t.strings) }

// UnitName prefers the string table entry of the type and falls back to the
// name in units.yaml.
func (t *StringTable) UnitName(u *UnitType) string {
	if t == nil || u.NameIndex <= 0 || u.NameIndex > len(t.strings) {
		return u.Name
	}
	return t.strings[u.NameIndex-1]
}
