package core

// itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func itoa(n int) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	if negative {
		n = -n
	}

	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}

// utoa converts an unsigned integer to a string
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}

	return string(buf[pos:])
}

// ftoa formats f with a fixed number of decimals (truncated, not rounded).
// NaN and infinities are rendered as "nan"/"inf".
func ftoa(f float32, decimals int) string {
	if f != f {
		return "nan"
	}
	if f > 3.4e38 || f < -3.4e38 {
		if f < 0 {
			return "-inf"
		}
		return "inf"
	}

	negative := f < 0
	if negative {
		f = -f
	}

	whole := int(f)
	frac := f - float32(whole)

	s := itoa(whole)
	if negative && (whole != 0 || frac > 0) {
		s = "-" + s
	}
	if decimals <= 0 {
		return s
	}

	buf := make([]byte, 0, decimals+1)
	buf = append(buf, '.')
	for i := 0; i < decimals; i++ {
		frac *= 10
		d := int(frac)
		if d > 9 {
			d = 9
		}
		buf = append(buf, byte('0'+d))
		frac -= float32(d)
	}

	return s + string(buf)
}

// Itoa is the exported form of itoa for other firmware packages
func Itoa(n int) string { return itoa(n) }

// Ftoa is the exported form of ftoa for other firmware packages
func Ftoa(f float32, decimals int) string { return ftoa(f, decimals) }
