package value

import "unicode/utf8"

// parseString decodes a JSON string literal starting at the current '"'.
// It is two-pass: scanString first walks the raw bytes to find the closing
// quote and compute the exact decoded length (so the short-string/heap
// choice can be made before any byte is written), then decodeStringInto
// performs the actual escape decoding into the destination.
func (p *parser) parseString() (Value, error) {
	if err := p.expect('"', `'"'`); err != nil {
		return Value{}, err
	}
	start := p.pos
	decodedLen, end, err := p.scanString(start)
	if err != nil {
		return Value{}, err
	}

	if decodedLen <= ShortStringMax {
		var v Value
		v.kind = String
		v.shortLen = int8(decodedLen)
		decodeStringInto(p.data[start:end], v.short[:decodedLen])
		p.pos = end + 1
		return v, nil
	}

	dst := p.a.Get(decodedLen)
	if dst == nil {
		return Value{}, perr(start, "arena exhausted decoding string")
	}
	decodeStringInto(p.data[start:end], dst)
	p.pos = end + 1
	return Value{kind: String, shortLen: -1, str: string(dst)}, nil
}

// scanString walks raw bytes starting just after the opening quote and
// returns the exact decoded length and the index of the closing quote.
// Raw control bytes (< 0x20) are rejected; unpaired surrogates are
// rejected; unknown escapes are rejected.
func (p *parser) scanString(start int) (decodedLen, end int, err error) {
	data := p.data
	i := start
	for i < len(data) {
		c := data[i]
		switch {
		case c == '"':
			return decodedLen, i, nil
		case c < 0x20:
			return 0, 0, perr(i, "raw control byte in string")
		case c == '\\':
			n, adv, e := scanEscape(data, i)
			if e != nil {
				return 0, 0, e
			}
			decodedLen += n
			i += adv
		default:
			decodedLen++
			i++
		}
	}
	return 0, 0, perr(i, "truncated string")
}

// scanEscape inspects the escape sequence starting at the backslash at
// data[i] and returns the number of decoded bytes it produces and how many
// raw bytes it consumes (including the backslash).
func scanEscape(data []byte, i int) (decodedBytes, consumed int, err error) {
	if i+1 >= len(data) {
		return 0, 0, perr(i, "truncated escape")
	}
	switch data[i+1] {
	case '"', '\\', '/', 'n', 'r', 't', 'b', 'f':
		return 1, 2, nil
	case 'u':
		if i+6 > len(data) {
			return 0, 0, perr(i, "truncated unicode escape")
		}
		cp, ok := parseHex4(data[i+2 : i+6])
		if !ok {
			return 0, 0, perr(i, "invalid unicode escape")
		}
		switch {
		case cp >= 0xD800 && cp <= 0xDBFF: // high surrogate
			if i+12 > len(data) || data[i+6] != '\\' || data[i+7] != 'u' {
				return 0, 0, perr(i, "unpaired high surrogate")
			}
			lo, ok := parseHex4(data[i+8 : i+12])
			if !ok || lo < 0xDC00 || lo > 0xDFFF {
				return 0, 0, perr(i, "unpaired high surrogate")
			}
			code := ((cp - 0xD800) << 10) + (lo - 0xDC00) + 0x10000
			return utf8.RuneLen(rune(code)), 12, nil
		case cp >= 0xDC00 && cp <= 0xDFFF: // orphan low surrogate
			return 0, 0, perr(i, "orphan low surrogate")
		default:
			return utf8.RuneLen(rune(cp)), 6, nil
		}
	default:
		return 0, 0, perr(i, "invalid escape character")
	}
}

func parseHex4(b []byte) (rune, bool) {
	if len(b) != 4 {
		return 0, false
	}
	var v rune
	for _, c := range b {
		v <<= 4
		switch {
		case c >= '0' && c <= '9':
			v |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			v |= rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			v |= rune(c-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}

// decodeStringInto performs the actual escape decoding pass over raw (the
// bytes strictly between the quotes) into dst, which must be exactly as
// long as scanString computed. scanString already validated every escape,
// so this pass cannot fail.
func decodeStringInto(raw, dst []byte) {
	i, o := 0, 0
	for i < len(raw) {
		c := raw[i]
		if c != '\\' {
			dst[o] = c
			o++
			i++
			continue
		}
		switch raw[i+1] {
		case '"':
			dst[o] = '"'
			o++
			i += 2
		case '\\':
			dst[o] = '\\'
			o++
			i += 2
		case '/':
			dst[o] = '/'
			o++
			i += 2
		case 'n':
			dst[o] = '\n'
			o++
			i += 2
		case 'r':
			dst[o] = '\r'
			o++
			i += 2
		case 't':
			dst[o] = '\t'
			o++
			i += 2
		case 'b':
			dst[o] = '\b'
			o++
			i += 2
		case 'f':
			dst[o] = '\f'
			o++
			i += 2
		case 'u':
			cp, _ := parseHex4(raw[i+2 : i+6])
			if cp >= 0xD800 && cp <= 0xDBFF {
				lo, _ := parseHex4(raw[i+8 : i+12])
				code := ((cp - 0xD800) << 10) + (lo - 0xDC00) + 0x10000
				o += utf8.EncodeRune(dst[o:], rune(code))
				i += 12
			} else {
				o += utf8.EncodeRune(dst[o:], cp)
				i += 6
			}
		}
	}
}
