package header

/*
	ParseOctal decodes an octal-ASCII numeric field.

	Leading spaces are skipped; then octal digits are consumed until
	a non-digit byte or the end of the field.  Anything after the digits
	(a NUL, a trailing space, garbage) simply ends the scan; this never errors.
	A field with no digits at all decodes to zero.
*/
func ParseOctal(field []byte) int64 {
	i := 0
	for i < len(field) && field[i] == ' ' {
		i++
	}
	var n int64
	for ; i < len(field); i++ {
		c := field[i]
		if c < '0' || c > '7' {
			break
		}
		n = n<<3 | int64(c-'0')
	}
	return n
}

/*
	ParseString converts a fixed-width text field to a string.
	The text ends at the first NUL, or at the field width if there is none.
*/
func ParseString(field []byte) string {
	for i, c := range field {
		if c == 0 {
			return string(field[:i])
		}
	}
	return string(field)
}
