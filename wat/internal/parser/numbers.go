package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func splitSign(s string) (neg bool, rest string) {
	if strings.HasPrefix(s, "-") {
		return true, s[1:]
	}
	return false, strings.TrimPrefix(s, "+")
}

func parseUint(s string, bits int) (uint64, error) {
	s = strings.ReplaceAll(s, "_", "")
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, bits)
	}
	return strconv.ParseUint(s, 10, bits)
}

// parseInt accepts the full signed and unsigned range of the given width
// and returns the two's complement bit pattern.
func parseInt(s string, bits int) (uint64, error) {
	neg, rest := splitSign(s)
	u, err := parseUint(rest, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid i%d literal %q", bits, s)
	}
	if !neg {
		return u, nil
	}
	if u > 1<<(bits-1) {
		return 0, fmt.Errorf("i%d literal %q out of range", bits, s)
	}
	return -u, nil
}

func parseI32(s string) (int32, error) {
	u, err := parseInt(s, 32)
	return int32(uint32(u)), err
}

func parseI64(s string) (int64, error) {
	u, err := parseInt(s, 64)
	return int64(u), err
}

// parseFloatBits returns the IEEE-754 bit pattern of a WAT float literal.
func parseFloatBits(s string, bits int) (uint64, error) {
	neg, rest := splitSign(s)
	rest = strings.ReplaceAll(rest, "_", "")

	var signBit, expMask, quiet, payloadMask uint64
	if bits == 32 {
		signBit, expMask, quiet, payloadMask = 1<<31, 0x7f800000, 0x00400000, 0x007fffff
	} else {
		signBit, expMask, quiet, payloadMask = 1<<63, 0x7ff0000000000000, 0x0008000000000000, 0x000fffffffffffff
	}
	sign := uint64(0)
	if neg {
		sign = signBit
	}

	switch {
	case rest == "inf":
		return sign | expMask, nil
	case rest == "nan":
		return sign | expMask | quiet, nil
	case strings.HasPrefix(rest, "nan:0x"):
		payload, err := strconv.ParseUint(rest[6:], 16, 64)
		if err != nil || payload == 0 || payload > payloadMask {
			return 0, fmt.Errorf("invalid nan payload %q", s)
		}
		return sign | expMask | payload, nil
	}

	lit := rest
	if strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X") {
		if !strings.ContainsAny(lit, "pP") {
			lit += "p0"
		}
	}
	v, err := strconv.ParseFloat(lit, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid f%d literal %q", bits, s)
	}
	if bits == 32 {
		return sign | uint64(math.Float32bits(float32(v))), nil
	}
	return sign | math.Float64bits(v), nil
}

func parseF32(s string) (float32, error) {
	b, err := parseFloatBits(s, 32)
	return math.Float32frombits(uint32(b)), err
}

func parseF64(s string) (float64, error) {
	b, err := parseFloatBits(s, 64)
	return math.Float64frombits(b), err
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, rest := splitSign(s)
	return rest != "" && rest[0] >= '0' && rest[0] <= '9'
}
