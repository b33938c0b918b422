package testutil

import (
	"testing"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
)

// LegacySample is task text saved in a legacy encoding alongside the
// UTF-8 text it should decode to.
type LegacySample struct {
	Name  string
	Raw   []byte
	Want  string
	Exact bool // false when charset detection may legitimately pick a sibling encoding
}

// LegacySamples returns fresh byte slices, safe for tests to mutate.
func LegacySamples() []LegacySample {
	return []LegacySample{
		{"windows-1252 smart quote", []byte("Rand\x92s Opponent"), "Rand’s Opponent", true},
		{"windows-1252 en dash", []byte("2020 \x96 2024"), "2020 – 2024", true},
		{"windows-1252 quotes", []byte("\x93Hello\x94"), "“Hello”", true},
		{"windows-1252 euro", []byte("Price: \x80100"), "Price: €100", true},
		{"latin-1 accent", []byte("Caf\xe9 with Ren\xe9e"), "Café with Renée", false},
		{"latin-1 umlaut", []byte("Flug nach M\xfcnchen buchen"), "Flug nach München buchen", false},
		{
			"shift-jis", mustEncode(japanese.ShiftJIS, "日本語のテキストサンプルです。これは文字化けのテストに使用されます。"),
			"日本語のテキストサンプルです。これは文字化けのテストに使用されます。", false,
		},
		{
			"gbk", mustEncode(simplifiedchinese.GBK, "这是一个中文文本示例，用于测试字符编码检测功能。"),
			"这是一个中文文本示例，用于测试字符编码检测功能。", false,
		},
	}
}

// UTF16LEWithBOM encodes s as UTF-16 little endian with a byte order mark,
// as Windows tools often save exported files.
func UTF16LEWithBOM(s string) []byte {
	return mustEncode(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), s)
}

func mustEncode(enc encoding.Encoding, s string) []byte {
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return b
}

// AssertValidUTF8 fails the test if s is not valid UTF-8.
func AssertValidUTF8(t testing.TB, s string) {
	t.Helper()
	if !utf8.ValidString(s) {
		t.Errorf("invalid UTF-8: %q", s)
	}
}
